package fileinfo

import "regexp"

// LayerHeightFilter extracts the layer height in millimeters from a
// comment. The "mm" named group captures the value.
type LayerHeightFilter struct {
	Pattern *regexp.Regexp
}

// FilamentFilter extracts filament length. "mm" (repeatable, millimeters)
// or "m" (meters, scaled by 1000) named groups carry the value.
type FilamentFilter struct {
	Pattern *regexp.Regexp
}

// GeneratedByFilter extracts the slicer name from its first capture group.
type GeneratedByFilter struct {
	Pattern *regexp.Regexp
}

// TimeFilter extracts a duration in seconds from optional "h"/"m"/"s" named
// groups, used for both print time and simulated time.
type TimeFilter struct {
	Pattern *regexp.Regexp
}

func mustCompile(pattern string) *regexp.Regexp {
	return regexp.MustCompile(pattern)
}

// DefaultLayerHeightFilters mirrors the patterns RepRapFirmware-family
// slicers embed in their G-code comments. Patterns run against comment
// text with the leading ';' or '(' already stripped by the tokenizer.
func DefaultLayerHeightFilters() []LayerHeightFilter {
	return []LayerHeightFilter{
		{mustCompile(`(?i)layer_height\s*[:=]\s*(?P<mm>[0-9.]+)`)},
		{mustCompile(`(?i)layer height\s*[:=]\s*(?P<mm>[0-9.]+)`)},
	}
}

func DefaultFilamentFilters() []FilamentFilter {
	return []FilamentFilter{
		{mustCompile(`(?i)filament used\s*(?:\[mm\])?\s*[:=]\s*(?P<mm>[0-9.]+(?:\s*,\s*[0-9.]+)*)`)},
		{mustCompile(`(?i)filament length\s*[:=]\s*(?P<m>[0-9.]+)\s*m\b`)},
	}
}

func DefaultGeneratedByFilters() []GeneratedByFilter {
	return []GeneratedByFilter{
		{mustCompile(`(?i)generated by\s+(\S+.*)`)},
		{mustCompile(`(?i)(Slic3r[^,\n]*)`)},
		{mustCompile(`(?i)(PrusaSlicer[^,\n]*)`)},
		{mustCompile(`(?i)(Cura_SteamEngine[^,\n]*)`)},
	}
}

func DefaultPrintTimeFilters() []TimeFilter {
	return []TimeFilter{
		{mustCompile(`(?i)estimated printing time[^0-9]*(?:(?P<h>\d+)\s*h\s*)?(?:(?P<m>\d+)\s*m\s*)?(?:(?P<s>\d+)\s*s)?`)},
		{mustCompile(`(?i)^TIME:(?P<s>\d+)`)},
	}
}

func DefaultSimulatedTimeFilters() []TimeFilter {
	return []TimeFilter{
		{mustCompile(`(?i)simulated printing time[^0-9]*(?:(?P<h>\d+)\s*h\s*)?(?:(?P<m>\d+)\s*m\s*)?(?:(?P<s>\d+)\s*s)?`)},
	}
}

// matchNamedGroup returns the text captured by the named group, and
// whether it participated in the match at all.
func matchNamedGroup(re *regexp.Regexp, s string, name string) (string, bool) {
	match := re.FindStringSubmatch(s)
	if match == nil {
		return "", false
	}
	for i, group := range re.SubexpNames() {
		if group == name && match[i] != "" {
			return match[i], true
		}
	}
	return "", false
}
