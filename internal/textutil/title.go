package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const titleWordLimit = 5

// DeriveTitle builds a conversation title from the first prompt: the first
// five words, with the leading letter upper-cased and an ellipsis when the
// prompt was longer. Empty prompts yield an empty string so callers can fall
// back to a generated name.
func DeriveTitle(prompt string) string {
	words := strings.Fields(strings.TrimSpace(prompt))
	if len(words) == 0 {
		return ""
	}

	title := strings.Join(words, " ")
	if len(words) > titleWordLimit {
		title = strings.Join(words[:titleWordLimit], " ") + "..."
	}

	runes := []rune(title)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

var titleCaser = cases.Title(language.English)

var fallbackAdjectives = []string{
	"amber", "bright", "crisp", "drifting", "early", "fleet", "gilded",
	"humming", "ivory", "jade", "keen", "lucid", "mellow", "nimble",
}

var fallbackNouns = []string{
	"arc", "beam", "canvas", "dial", "ember", "frame", "glyph",
	"horizon", "iris", "lattice", "motion", "orbit", "prism", "reel",
}

// FallbackName produces a readable two-word conversation name from a seed,
// used when no prompt is available to derive a title from.
func FallbackName(seed uint64) string {
	adjective := fallbackAdjectives[seed%uint64(len(fallbackAdjectives))]
	noun := fallbackNouns[(seed/uint64(len(fallbackAdjectives)))%uint64(len(fallbackNouns))]
	return titleCaser.String(adjective + " " + noun)
}
