// Package placeholder protects game markup during machine translation by
// replacing it with numbered markers ([PH0], [PH1], ...) that survive the
// round trip. Source rows carry tokens like [Color_0], [Ascii_2], or HTML
// tags that a plain MT engine would mangle; LLM providers are instructed to
// keep them instead, so this is only used on the line-translation path.
// After translation, Restore substitutes the markers back.
package placeholder

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// game tokens: [Color_0], [Ascii_12], [/Color], [br] and similar
	reGameToken = regexp.MustCompile(`\[/?[A-Za-z]+(?:_\d+)?\]`)

	// HTML/XML tags: opening, closing, and self-closing
	reHTMLTag = regexp.MustCompile(`<[^>]+>`)

	// format verbs: %s, %d, %1$s, {0}
	reFormatVerb = regexp.MustCompile(`%(?:\d+\$)?[sdvf]|\{\d+\}`)

	// placeholder reference in translated text
	rePlaceholder = regexp.MustCompile(`\[PH(\d+)\]`)
)

// Protect replaces markup (game tokens, HTML tags, format verbs) with
// numbered placeholders [PH0], [PH1], ... in the order they appear in text.
// It returns the modified text and the slice of captured originals so
// Restore can put them back.
func Protect(text string) (string, []string) {
	var markers []string
	counter := 0

	replace := func(match string) string {
		id := fmt.Sprintf("[PH%d]", counter)
		markers = append(markers, match)
		counter++
		return id
	}

	// Order matters: game tokens first so [Color_0] is not half-eaten by
	// later passes, then HTML tags, then format verbs.
	text = reGameToken.ReplaceAllStringFunc(text, replace)
	text = reHTMLTag.ReplaceAllStringFunc(text, replace)
	text = reFormatVerb.ReplaceAllStringFunc(text, replace)

	return text, markers
}

// Restore substitutes [PHn] markers in text back with the originals captured
// by Protect. Markers missing from the translated text are silently ignored;
// unrecognised indices leave the placeholder as-is.
func Restore(text string, markers []string) string {
	return rePlaceholder.ReplaceAllStringFunc(text, func(match string) string {
		sub := rePlaceholder.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		idx := 0
		fmt.Sscanf(sub[1], "%d", &idx)
		if idx < 0 || idx >= len(markers) {
			return match
		}
		return markers[idx]
	})
}

// Validate checks whether all markers created by Protect are still present
// in the translated text. It returns the list of missing indices.
func Validate(text string, markers []string) []int {
	var missing []int
	for i := range markers {
		if !strings.Contains(text, fmt.Sprintf("[PH%d]", i)) {
			missing = append(missing, i)
		}
	}
	return missing
}
