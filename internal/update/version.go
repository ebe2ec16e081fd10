package update

import "strings"

// ParseVersionNumbers parses a version string into numeric segments.
//
// A leading 'v' or 'V' is stripped, the remainder is split on '.', and
// the leading digits of each segment are taken (so "1.0.0-beta" parses
// as 1.0.0). Returns ok=false when any segment has no leading digit or
// the cleaned string is empty.
func ParseVersionNumbers(version string) ([]uint64, bool) {
	cleaned := strings.TrimLeft(strings.TrimSpace(version), "vV")
	if cleaned == "" {
		return nil, false
	}

	parts := strings.Split(cleaned, ".")
	out := make([]uint64, 0, len(parts))
	for _, part := range parts {
		var (
			value uint64
			n     int
		)
		for n < len(part) && part[n] >= '0' && part[n] <= '9' {
			value = value*10 + uint64(part[n]-'0')
			n++
		}
		if n == 0 {
			return nil, false
		}
		out = append(out, value)
	}
	return out, true
}

// CompareVersions compares two version strings numerically, segment by
// segment, padding the shorter with zeros. The comparison is numeric,
// not lexicographic: "0.3.10" is greater than "0.3.9". Returns ok=false
// when either string does not parse.
func CompareVersions(left, right string) (int, bool) {
	l, lok := ParseVersionNumbers(left)
	r, rok := ParseVersionNumbers(right)
	if !lok || !rok {
		return 0, false
	}

	n := len(l)
	if len(r) > n {
		n = len(r)
	}
	for i := 0; i < n; i++ {
		var lv, rv uint64
		if i < len(l) {
			lv = l[i]
		}
		if i < len(r) {
			rv = r[i]
		}
		switch {
		case lv > rv:
			return 1, true
		case lv < rv:
			return -1, true
		}
	}
	return 0, true
}

// IsNewerVersion reports whether latest is strictly newer than current.
//
// WezTerm-style date builds (e.g. "20240203-110000-abc") use a scheme
// incompatible with arb's semver tags: when latest looks like a date
// build and current does not, latest is never considered newer.
// When neither side parses, falls back to raw string inequality after
// stripping the v/V prefix.
func IsNewerVersion(latest, current string) bool {
	latestTrimmed := strings.TrimLeft(latest, "vV")
	currentTrimmed := strings.TrimLeft(current, "vV")

	if strings.HasPrefix(latestTrimmed, "20") &&
		strings.Contains(latestTrimmed, "-") &&
		!strings.HasPrefix(currentTrimmed, "20") {
		return false
	}

	if cmp, ok := CompareVersions(latest, current); ok {
		return cmp > 0
	}
	return latestTrimmed != currentTrimmed
}

// FormatVersionForDisplay strips whitespace and a leading v/V for
// user-facing messages.
func FormatVersionForDisplay(version string) string {
	return strings.TrimLeft(strings.TrimSpace(version), "vV")
}
