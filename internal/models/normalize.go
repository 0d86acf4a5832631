package models

import "strings"

// UnknownArtist is the fallback artist credit when a platform reports none.
const UnknownArtist = "Unknown"

// JoinArtists flattens contributing artist names into the stored artist field.
//
// Multiple artists join with ", "; empty input falls back to [UnknownArtist].
func JoinArtists(names []string) string {
	kept := names[:0:0]
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	if len(kept) == 0 {
		return UnknownArtist
	}
	return strings.Join(kept, ", ")
}

// PadReleaseDate pads partial-precision release dates to a full YYYY-MM-DD.
//
// "2021" becomes "2021-01-01" and "2021-07" becomes "2021-07-01"; anything
// already at day precision (or unrecognized) passes through unchanged.
func PadReleaseDate(date string) string {
	switch len(date) {
	case 4:
		return date + "-01-01"
	case 7:
		return date + "-01"
	default:
		return date
	}
}
