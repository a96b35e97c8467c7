package fileinfo

import (
	"bufio"
	"context"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nludban/go-cnc/go-cnc/libgcode"
)

// ParsedFileInfo is the plain record a scan produces. Encoding it for a
// transport layer is deliberately someone else's job.
type ParsedFileInfo struct {
	FileName         string // virtual path
	Size             int64
	LastModified     time.Time
	FirstLayerHeight float64
	LayerHeight      float64
	Height           float64
	NumLayers        int
	Filament         []float64 // mm, one entry per extruder/filter match
	GeneratedBy      string
	PrintTimeS       int
	SimulatedTimeS   int
}

// IsComplete reports whether every field the completeness predicate cares
// about has been populated.
func (p *ParsedFileInfo) IsComplete() bool {
	return p.Height > 0 && p.FirstLayerHeight > 0 && p.LayerHeight > 0 &&
		len(p.Filament) > 0 && p.GeneratedBy != ""
}

// computeNumLayers fills NumLayers from the derived invariant once all
// three inputs are known and positive.
func (p *ParsedFileInfo) computeNumLayers() {
	if p.Height > 0 && p.FirstLayerHeight > 0 && p.LayerHeight > 0 {
		p.NumLayers = int(math.Round((p.Height-p.FirstLayerHeight)/p.LayerHeight)) + 1
	}
}

// Filters bundles the regex extractors the parser consults for each
// comment line, configured per spec.md §6.
type Filters struct {
	LayerHeight   []LayerHeightFilter
	Filament      []FilamentFilter
	GeneratedBy   []GeneratedByFilter
	PrintTime     []TimeFilter
	SimulatedTime []TimeFilter
}

// DefaultFilters returns the built-in filter set mirroring common slicer
// comment conventions.
func DefaultFilters() Filters {
	return Filters{
		LayerHeight:   DefaultLayerHeightFilters(),
		Filament:      DefaultFilamentFilters(),
		GeneratedBy:   DefaultGeneratedByFilters(),
		PrintTime:     DefaultPrintTimeFilters(),
		SimulatedTime: DefaultSimulatedTimeFilters(),
	}
}

// ScanLimits bounds how much of a file the header/footer scans will read,
// mapping to spec.md §6's FileInfoReadLimitHeader/Footer/BufferSize keys.
type ScanLimits struct {
	HeadLimit      int64
	FootLimit      int64
	BufferSize     int
	MaxLayerHeight float64
}

// Source is the seekable, sized byte source a scan reads from (typically
// an *os.File).
type Source interface {
	io.ReaderAt
	Size() int64
}

// Parse populates a ParsedFileInfo by running the header scan forward and
// the footer scan backward over src, stopping early once both halves'
// early-stop conditions are satisfied or the scan limits are exhausted.
// ctx is checked between lines; a cancelled context aborts the scan with
// libgcode.ErrCancelled, returning whatever fields were collected so far.
func Parse(ctx context.Context, src Source, limits ScanLimits, filters Filters) (*ParsedFileInfo, error) {
	info := &ParsedFileInfo{Size: src.Size()}

	if err := scanHeader(ctx, src, limits, filters, info); err != nil {
		return info, err
	}
	if err := scanFooter(ctx, src, limits, filters, info); err != nil {
		return info, err
	}
	info.computeNumLayers()
	return info, nil
}

// lineSource lets the header and footer scans share one extraction loop
// body regardless of which direction they're reading in.
type lineSource interface {
	next() (line string, done bool, err error)
}

type forwardSource struct {
	r *bufio.Reader
}

func (f *forwardSource) next() (string, bool, error) {
	line, err := f.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", false, &libgcode.IoError{Err: err}
	}
	if err == io.EOF && line == "" {
		return "", true, nil
	}
	return strings.TrimRight(line, "\r\n"), false, nil
}

type backwardSource struct {
	r *ReverseLineReader
}

func (b *backwardSource) next() (string, bool, error) {
	line, err := b.r.ReadLine()
	if err == ErrNoMoreData {
		return "", true, nil
	}
	if err != nil {
		return "", false, &libgcode.IoError{Err: err}
	}
	return line, false, nil
}

// zCandidate is an absolute-or-not-yet-known Z move observed by the footer
// scan, held until the next mode directive (G90/G91) resolves whether it
// actually ran in absolute mode.
type zCandidate struct {
	z       float64
	isEMove bool
}

// scanState tracks the G90/G91 mode bit (header scan) or the pending,
// not-yet-mode-resolved Z candidates (footer scan, inverted sense per
// spec.md §4.E) across lines.
type scanState struct {
	absolute          bool // header scan only
	pending           []zCandidate
	consecutiveNoInfo int
	bytesRead         int64
}

func scanHeader(ctx context.Context, src Source, limits ScanLimits, filters Filters, info *ParsedFileInfo) error {
	reader := &forwardReaderAt{src: src}
	ls := &forwardSource{r: bufio.NewReader(reader)}
	state := &scanState{absolute: true} // RepRapFirmware defaults to absolute positioning

	hardStop := limits.HeadLimit + int64(limits.BufferSize)

	for {
		if err := ctx.Err(); err != nil {
			return libgcode.ErrCancelled
		}

		line, done, err := ls.next()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		state.bytesRead += int64(len(line)) + 1
		if state.bytesRead > hardStop {
			return nil
		}

		gotNew := applyHeaderLine(line, filters, limits.MaxLayerHeight, state, info)
		if gotNew {
			state.consecutiveNoInfo = 0
		} else {
			state.consecutiveNoInfo++
		}
		if state.consecutiveNoInfo >= 2 && info.IsComplete() {
			return nil
		}
	}
}

func scanFooter(ctx context.Context, src Source, limits ScanLimits, filters Filters, info *ParsedFileInfo) error {
	rr := NewReverseLineReader(src, src.Size(), limits.BufferSize)
	ls := &backwardSource{r: rr}
	state := &scanState{}

	hardStop := limits.FootLimit + int64(limits.BufferSize)

	for {
		if err := ctx.Err(); err != nil {
			return libgcode.ErrCancelled
		}

		line, done, err := ls.next()
		if err != nil {
			return err
		}
		if done {
			break
		}
		state.bytesRead += int64(len(line)) + 1
		if state.bytesRead > hardStop {
			break
		}

		gotNew := applyFooterLine(line, filters, state, info)
		if gotNew {
			state.consecutiveNoInfo = 0
		} else {
			state.consecutiveNoInfo++
		}
		if state.consecutiveNoInfo >= 2 && info.IsComplete() {
			break
		}
	}

	// Reached the start of the scanned region with unresolved candidates:
	// RepRapFirmware defaults to absolute positioning, so resolve them as
	// if a G90 preceded everything.
	if info.Height == 0 {
		if z, ok := resolveHeightCandidate(state.pending); ok {
			info.Height = z
		}
	}
	return nil
}

// applyHeaderLine tokenizes one header line, tracks G90/G91, and tries the
// comment extractors in priority order for any field still unset. It
// reports whether any new information was found.
func applyHeaderLine(line string, filters Filters, maxLayerHeight float64, state *scanState, info *ParsedFileInfo) bool {
	codes, err := libgcode.Split(line)
	if err != nil {
		codes = nil // malformed lines are skipped, not fatal, per spec.md §7
	}

	gotNew := false
	for _, c := range codes {
		switch {
		case c.Type == libgcode.TypeGCode && c.MajorNumber != nil && *c.MajorNumber == 90:
			state.absolute = true
		case c.Type == libgcode.TypeGCode && c.MajorNumber != nil && *c.MajorNumber == 91:
			state.absolute = false
		case info.FirstLayerHeight == 0 && state.absolute && c.Type == libgcode.TypeGCode &&
			c.MajorNumber != nil && (*c.MajorNumber == 0 || *c.MajorNumber == 1):
			if zp, ok := c.Parameter('Z'); ok {
				if z, err := zp.AsFloat(); err == nil && z > 0 && (maxLayerHeight <= 0 || z <= maxLayerHeight) {
					info.FirstLayerHeight = z
					gotNew = true
				}
			}
		}
	}

	if comment, ok := firstComment(codes); ok {
		if applyCommentFilters(comment, filters, info) {
			gotNew = true
		}
	}
	return gotNew
}

// applyFooterLine mirrors applyHeaderLine but for the backward scan. The
// G90/G91 sense is inverted: reading backward, a Z move is encountered
// before the mode directive that governed it in the original file, so
// each Z move is held in state.pending until the next G90/G91 resolves
// whether its whole run was absolute or relative. Height is taken from the
// first (nearest-tail) pending candidate in an absolute run whose trailing
// comment doesn't start with "E" (a slicer convention for extrusion-only
// comments).
func applyFooterLine(line string, filters Filters, state *scanState, info *ParsedFileInfo) bool {
	codes, err := libgcode.Split(line)
	if err != nil {
		codes = nil
	}

	gotNew := false
	for _, c := range codes {
		if c.Type != libgcode.TypeGCode || c.MajorNumber == nil {
			continue
		}
		switch *c.MajorNumber {
		case 90:
			if info.Height == 0 {
				if z, ok := resolveHeightCandidate(state.pending); ok {
					info.Height = z
					gotNew = true
				}
			}
			state.pending = nil
		case 91:
			state.pending = nil
		case 0, 1:
			if info.Height == 0 {
				if zp, ok := c.Parameter('Z'); ok {
					if z, err := zp.AsFloat(); err == nil && z > 0 {
						state.pending = append(state.pending, zCandidate{
							z:       z,
							isEMove: strings.HasPrefix(strings.TrimSpace(c.Comment), "E"),
						})
					}
				}
			}
		}
	}

	if comment, ok := firstComment(codes); ok {
		if applyCommentFilters(comment, filters, info) {
			gotNew = true
		}
	}
	return gotNew
}

// resolveHeightCandidate picks the nearest-tail pending Z candidate that
// doesn't look like an extrusion-only comment (pending is in
// encounter order, i.e. nearest-tail first).
func resolveHeightCandidate(pending []zCandidate) (float64, bool) {
	for _, c := range pending {
		if !c.isEMove {
			return c.z, true
		}
	}
	return 0, false
}

func firstComment(codes []libgcode.Code) (string, bool) {
	for _, c := range codes {
		if c.HasComment {
			return c.Comment, true
		}
	}
	return "", false
}

// applyCommentFilters tries layer_height, filament_used, generated_by,
// print_time, simulated_time in order against comment, only for fields
// still unset, per spec.md §4.E rule 3.
func applyCommentFilters(comment string, filters Filters, info *ParsedFileInfo) bool {
	gotNew := false

	if info.LayerHeight == 0 {
		for _, f := range filters.LayerHeight {
			if mm, ok := matchNamedGroup(f.Pattern, comment, "mm"); ok {
				if v, err := strconv.ParseFloat(mm, 64); err == nil {
					info.LayerHeight = v
					gotNew = true
					break
				}
			}
		}
	}

	if len(info.Filament) == 0 {
		for _, f := range filters.Filament {
			if mm, ok := matchNamedGroup(f.Pattern, comment, "mm"); ok {
				if vs := parseFilamentList(mm); len(vs) > 0 {
					info.Filament = vs
					gotNew = true
					break
				}
			}
			if m, ok := matchNamedGroup(f.Pattern, comment, "m"); ok {
				if v, err := strconv.ParseFloat(m, 64); err == nil {
					info.Filament = []float64{v * 1000}
					gotNew = true
					break
				}
			}
		}
	}

	if info.GeneratedBy == "" {
		for _, f := range filters.GeneratedBy {
			if match := f.Pattern.FindStringSubmatch(comment); match != nil && len(match) > 1 {
				info.GeneratedBy = strings.TrimSpace(match[1])
				gotNew = true
				break
			}
		}
	}

	if info.PrintTimeS == 0 {
		if s, ok := sumTimeGroups(filters.PrintTime, comment); ok {
			info.PrintTimeS = s
			gotNew = true
		}
	}

	if info.SimulatedTimeS == 0 {
		if s, ok := sumTimeGroups(filters.SimulatedTime, comment); ok {
			info.SimulatedTimeS = s
			gotNew = true
		}
	}

	return gotNew
}

// parseFilamentList splits a comma-separated list of millimeter lengths,
// one per filter match (multi-extruder slicers report one value per tool).
func parseFilamentList(raw string) []float64 {
	parts := strings.Split(raw, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		part = strings.TrimSuffix(part, "mm")
		part = strings.TrimSuffix(part, "m")
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// sumTimeGroups tries each filter in order and sums named "h"/"m"/"s"
// groups (hours, minutes, seconds) from the first one whose match captures
// at least one of those groups.
func sumTimeGroups(filters []TimeFilter, comment string) (int, bool) {
	for _, f := range filters {
		match := f.Pattern.FindStringSubmatch(comment)
		if match == nil {
			continue
		}
		names := f.Pattern.SubexpNames()
		total := 0
		found := false
		for i, name := range names {
			if match[i] == "" {
				continue
			}
			v, err := strconv.Atoi(match[i])
			if err != nil {
				continue
			}
			switch name {
			case "h":
				total += v * 3600
				found = true
			case "m":
				total += v * 60
				found = true
			case "s":
				total += v
				found = true
			}
		}
		if found {
			return total, true
		}
	}
	return 0, false
}

// forwardReaderAt adapts a Source (io.ReaderAt) to io.Reader for bufio,
// tracking its own read cursor.
type forwardReaderAt struct {
	src Source
	pos int64
}

func (f *forwardReaderAt) Read(p []byte) (int, error) {
	n, err := f.src.ReadAt(p, f.pos)
	f.pos += int64(n)
	return n, err
}
