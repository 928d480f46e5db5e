package emoji

import (
	"unicode"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"
)

// MaxLength is the post content bound, counted in grapheme clusters.
const MaxLength = 200

// Length counts grapheme clusters, so a multi-rune emoji sequence
// (ZWJ family, flag, keycap) counts as one character.
func Length(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// Only reports whether s is non-empty and consists solely of emoji.
// Whitespace is not emoji.
func Only(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if unicode.IsSpace(r) {
			return false
		}
	}
	for _, r := range gomoji.RemoveEmojis(s) {
		if !isSequencePart(r) {
			return false
		}
	}
	return true
}

// isSequencePart covers runes that only occur inside emoji sequences
// and may survive gomoji's removal of the base emoji.
func isSequencePart(r rune) bool {
	switch {
	case r == 0x200D: // zero-width joiner
		return true
	case r == 0xFE0E || r == 0xFE0F: // variation selectors
		return true
	case r == 0x20E3: // keycap combiner
		return true
	case r >= 0x1F3FB && r <= 0x1F3FF: // skin tone modifiers
		return true
	case r >= 0x1F1E6 && r <= 0x1F1FF: // regional indicators (flags)
		return true
	}
	return false
}
