// Package pathresolver translates between the virtual paths G-code and the
// HTTP API speak in ("0:/gcodes/part.gcode") and the physical filesystem
// paths the host OS understands, consulting the machine model's storage
// table and directory-category overrides under a read lock.
package pathresolver

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nludban/go-cnc/go-cnc/libgcode"
	"github.com/nludban/go-cnc/go-cnc/model"
)

// defaultCategoryPaths are RepRapFirmware's stock per-category directories,
// relative to drive 0, used whenever the model store has no override
// recorded for that category.
var defaultCategoryPaths = map[model.Category]string{
	model.GCodes:    "0:/gcodes",
	model.Macros:    "0:/macros",
	model.Filaments: "0:/filaments",
	model.System:    "0:/sys",
	model.WWW:       "0:/www",
}

// Resolver translates virtual paths to physical ones and back, against a
// shared machine model.
type Resolver struct {
	store *model.Store
}

// New returns a Resolver backed by store.
func New(store *model.Store) *Resolver {
	return &Resolver{store: store}
}

// ToPhysical resolves a virtual path to an absolute physical path. category
// is consulted only when virtual is a bare relative path; it is ignored
// for drive-qualified and absolute paths.
func (r *Resolver) ToPhysical(virtual string, category model.Category) (string, error) {
	return r.toPhysical(virtual, category, true)
}

// toPhysical does the real work; allowCategoryRecursion guards against an
// unbounded chain of category overrides that are themselves relative paths
// resolved against a category — spec.md §4.D says "resolve recursively,
// once", so a category override gets exactly one extra hop.
func (r *Resolver) toPhysical(virtual string, category model.Category, allowCategoryRecursion bool) (string, error) {
	if drive, rest, ok := splitDriveQualified(virtual); ok {
		return r.physicalForDrive(drive, rest)
	}
	if strings.HasPrefix(virtual, "/") {
		return r.resolveAbsolute(virtual), nil
	}

	categoryPath, err := r.categoryDirectory(category)
	if err != nil {
		return "", err
	}
	if !allowCategoryRecursion {
		return "", fmt.Errorf("pathresolver: category %s resolves to another relative path", category)
	}
	base, err := r.toPhysical(categoryPath, category, false)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, virtual), nil
}

// categoryDirectory returns the configured virtual path for a directory
// category, falling back to the RepRapFirmware stock default when the
// model store has no override recorded. The model is consulted under a
// read lock, released before this function returns.
func (r *Resolver) categoryDirectory(category model.Category) (string, error) {
	var path string
	var ok bool
	r.store.ReadScope(func(v model.ReadView) {
		path, ok = v.Category(category)
	})
	if ok {
		return path, nil
	}
	def, ok := defaultCategoryPaths[category]
	if !ok {
		return "", fmt.Errorf("pathresolver: unknown directory category %v", category)
	}
	return def, nil
}

// physicalForDrive resolves a drive number plus its trailing path
// fragment. Drive 0 is always the base directory; any other drive is
// looked up in the model store's storage table under a read lock.
func (r *Resolver) physicalForDrive(drive int, rest string) (string, error) {
	if drive == 0 {
		return r.joinBase(rest), nil
	}

	var storagePath string
	var ok bool
	r.store.ReadScope(func(v model.ReadView) {
		storagePath, ok = v.Storage(drive)
	})
	if !ok {
		return "", &libgcode.InvalidDrive{Drive: drive}
	}
	return filepath.Join(storagePath, rest), nil
}

// resolveAbsolute joins the base directory with an absolute-form virtual
// path. When the path is already physical and lives under the base
// directory, it is returned unchanged rather than joined a second time, so
// to_physical stays idempotent on its own output.
func (r *Resolver) resolveAbsolute(virtual string) string {
	base := r.baseDirectory()
	if rel, ok := relativeUnder(base, virtual); ok {
		return filepath.Join(base, rel)
	}
	return filepath.Join(base, strings.TrimPrefix(virtual, "/"))
}

func (r *Resolver) baseDirectory() string {
	var base string
	r.store.ReadScope(func(v model.ReadView) {
		base = v.BaseDirectory()
	})
	return base
}

func (r *Resolver) joinBase(rest string) string {
	return filepath.Join(r.baseDirectory(), rest)
}

// ToVirtual resolves a physical path back to its "0:/…" form when it lives
// under the base directory, or to "<n>:/…" when it lives under the root of
// configured storage drive n (drives 1 to 63 are checked); otherwise it
// returns "0:/" plus the physical path verbatim.
func (r *Resolver) ToVirtual(physical string) string {
	storages := map[int]string{}
	r.store.ReadScope(func(v model.ReadView) {
		for drive := 1; drive < 64; drive++ {
			if path, ok := v.Storage(drive); ok {
				storages[drive] = path
			}
		}
	})
	base := r.baseDirectory()

	if rel, ok := relativeUnder(base, physical); ok {
		return "0:/" + rel
	}
	for drive, root := range storages {
		if rel, ok := relativeUnder(root, physical); ok {
			return strconv.Itoa(drive) + ":/" + rel
		}
	}
	return "0:/" + physical
}

// relativeUnder reports whether target lives under root, returning the
// slash-separated relative remainder.
func relativeUnder(root, target string) (string, bool) {
	if root == "" {
		return "", false
	}
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	if rel == "." {
		return "", true
	}
	return filepath.ToSlash(rel), true
}

// splitDriveQualified recognizes the "<n>:/rest" or "<n>:rest" prefix and
// splits it into drive number and remainder.
func splitDriveQualified(virtual string) (drive int, rest string, ok bool) {
	idx := strings.IndexByte(virtual, ':')
	if idx <= 0 {
		return 0, "", false
	}
	digits := virtual[:idx]
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, "", false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, "", false
	}
	rest = strings.TrimPrefix(virtual[idx+1:], "/")
	return n, rest, true
}
