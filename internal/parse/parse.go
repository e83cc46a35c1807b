// Package parse extracts structured translations from free-form LLM output.
//
// Model replies are requested as {"translation":[{"line":1,"text":"..."}]}
// but arrive wrapped in markdown fences, cut off mid-array, padded with
// reasoning blocks, or with broken escaping. Extract works through a ladder
// of repairs and gives up only when nothing JSON-like can be recovered.
package parse

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Translation is one parsed line of a provider reply.
type Translation struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// wireItem is the decoded reply item. Text is a pointer so an item that
// never carried a "text" key can be told apart from an empty translation.
type wireItem struct {
	Line int     `json:"line"`
	Text *string `json:"text"`
}

// payload matches the requested reply shape.
type payload struct {
	Translation []wireItem `json:"translation"`
}

var trailingEllipsisRe = regexp.MustCompile(`\.\.\.+\s*$`)

// translationObjectRe extracts a {"translation":[...]} substring from
// surrounding prose when whole-reply parsing fails.
var translationObjectRe = regexp.MustCompile(`(?s)\{[^{}]*"translation"[^{}]*\[[^\]]*\][^{}]*\}`)

// Extract parses raw model output into an ordered list of translations.
// Repairs attempted, in order:
//
//  1. reasoning-block removal (<think>, <thinking>, ...)
//  2. markdown fence stripping
//  3. trailing-ellipsis removal
//  4. truncation to the last brace/bracket-balanced prefix
//  5. JSON parse of either {"translation":[...]} or a bare array
//  6. regex extraction of a "translation" object substring
//  7. escaping of unescaped interior quotes
//
// Items missing a line number or text are dropped. Returns nil when nothing
// can be recovered.
func Extract(raw string) []Translation {
	cleaned := StripReasoning(raw)
	cleaned = stripFences(cleaned)
	cleaned = trailingEllipsisRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil
	}

	items, ok := decode(cleaned)
	if !ok {
		items, ok = decode(balancedPrefix(cleaned))
	}
	if !ok {
		sub := translationObjectRe.FindString(cleaned)
		if sub == "" {
			return nil
		}
		if items, ok = decode(sub); !ok {
			if items, ok = decode(escapeInnerQuotes(sub)); !ok {
				return nil
			}
		}
	}

	out := make([]Translation, 0, len(items))
	for _, it := range items {
		if it.Line > 0 && it.Text != nil {
			out = append(out, Translation{Line: it.Line, Text: *it.Text})
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// decode accepts either the object form {"translation":[...]} or a bare
// [{"line":..,"text":..}] array.
func decode(s string) ([]wireItem, bool) {
	var p payload
	if err := json.Unmarshal([]byte(s), &p); err == nil && p.Translation != nil {
		return p.Translation, true
	}
	var arr []wireItem
	if err := json.Unmarshal([]byte(s), &arr); err == nil {
		return arr, true
	}
	return nil, false
}

// stripFences removes a leading ```json / ``` fence and a trailing ``` fence.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(strings.TrimSpace(s), "```") {
		s = strings.TrimSpace(s)
		s = s[:len(s)-3]
	}
	return strings.TrimSpace(s)
}

// balancedPrefix repairs output that was cut off mid-array: it truncates s
// after the last completely closed element and appends the closers still
// owed for the open braces and brackets at that point. Quotes are tracked so
// delimiters inside string values do not count. Input that is already
// balanced, or has no complete element to fall back to, is returned
// unchanged and the JSON parse is left to fail.
func balancedPrefix(s string) string {
	var stack []byte
	inString, escaped := false, false
	lastComplete := -1
	var lastStack []byte

	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != byte(r) {
				return s
			}
			stack = stack[:len(stack)-1]
			lastComplete = i
			lastStack = append(lastStack[:0], stack...)
		}
	}

	if len(stack) == 0 || lastComplete < 0 {
		return s
	}

	var b strings.Builder
	b.WriteString(s[:lastComplete+1])
	for j := len(lastStack) - 1; j >= 0; j-- {
		b.WriteByte(lastStack[j])
	}
	return b.String()
}

// escapeInnerQuotes escapes double quotes that appear inside string values.
// A quote is treated as the value's closer only when the next significant
// character is a JSON delimiter; everything else is model text that forgot
// its backslash.
func escapeInnerQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	runes := []rune(s)
	inString, escaped := false, false

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if !inString {
			if r == '"' {
				inString = true
			}
			b.WriteRune(r)
			continue
		}
		switch {
		case escaped:
			escaped = false
			b.WriteRune(r)
		case r == '\\':
			escaped = true
			b.WriteRune(r)
		case r == '"':
			if isCloser(runes, i+1) {
				inString = false
				b.WriteRune(r)
			} else {
				b.WriteString(`\"`)
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isCloser reports whether the first non-space rune at or after pos ends a
// JSON string value.
func isCloser(runes []rune, pos int) bool {
	for ; pos < len(runes); pos++ {
		switch runes[pos] {
		case ' ', '\t', '\n', '\r':
			continue
		case ',', ':', '}', ']':
			return true
		default:
			return false
		}
	}
	return true
}
