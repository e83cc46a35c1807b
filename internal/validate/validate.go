// Package validate checks translation results: that a parsed reply covers
// exactly the expected line numbers, and that translated text appears to be
// written in the target language.
package validate

import (
	"fmt"
	"sort"
	"strings"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/rowlate/rowlate/internal/parse"
)

// Lines verifies that every expected line number appears in the parsed reply.
// Extra lines are tolerated; the engine indexes by line number when merging.
func Lines(got []parse.Translation, expected map[int]bool) error {
	seen := make(map[int]bool, len(got))
	for _, t := range got {
		seen[t.Line] = true
	}

	var missing []int
	for line := range expected {
		if !seen[line] {
			missing = append(missing, line)
		}
	}
	if len(missing) > 0 {
		sort.Ints(missing)
		return fmt.Errorf("missing translation for lines %v", missing)
	}
	return nil
}

// minDetectionLength is the minimum rune count required to attempt language
// detection. Shorter texts produce unreliable results and are accepted
// without validation.
const minDetectionLength = 20

// Validator checks that translated text is written in the expected target
// language. The underlying detector is expensive to build; reuse the instance.
type Validator struct {
	det lingua.LanguageDetector
}

// New creates a Validator backed by the lingua-go language detector.
func New() *Validator {
	return &Validator{
		det: lingua.NewLanguageDetectorBuilder().FromAllLanguages().Build(),
	}
}

// DetectISO returns the ISO 639-1 code of text's language, when determinable.
func (v *Validator) DetectISO(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	lang, ok := v.det.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// sampleLimit caps how many texts DetectISOFromSamples joins before
// detecting.
const sampleLimit = 10

// DetectISOFromSamples joins several texts into one sample and detects its
// language. Single cells are often too short to classify reliably; the
// joined sample must clear the same length guard as Language.
func (v *Validator) DetectISOFromSamples(samples []string) (string, bool) {
	var parts []string
	for _, s := range samples {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		parts = append(parts, s)
		if len(parts) == sampleLimit {
			break
		}
	}
	joined := strings.Join(parts, " ")
	if len([]rune(joined)) < minDetectionLength {
		return "", false
	}
	return v.DetectISO(joined)
}

// Language returns true when text appears to be written in targetLang.
//
// Short texts and texts whose language cannot be determined pass without
// error. When the detected language differs from targetLang the returned
// error names both codes.
func (v *Validator) Language(text, targetLang string) (bool, error) {
	if targetLang == "" {
		return true, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return false, fmt.Errorf("translation is empty")
	}
	if len([]rune(text)) < minDetectionLength {
		return true, nil
	}

	detected, ok := v.DetectISO(text)
	if !ok {
		return true, nil
	}
	if !strings.EqualFold(detected, targetLang) {
		return false, fmt.Errorf("expected %s but detected %s", targetLang, detected)
	}
	return true, nil
}
