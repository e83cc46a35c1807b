package parse

import (
	"regexp"
	"strings"
)

// StripReasoning removes <thinking>…</thinking> style blocks, including an
// opened block whose closing tag the model never produced.
func StripReasoning(text string) string {
	text = reasoningBlockRe.ReplaceAllString(text, "")
	text = truncatedReasoningRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Each tag variant is listed explicitly because Go's RE2 engine does not
// support backreferences.
var reasoningBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

var truncatedReasoningRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

// CleanLine removes per-line LLM artifacts: instruction echoes the model
// prepends despite being told not to, and a matching pair of wrapping quotes.
func CleanLine(text string) string {
	text = strings.TrimSpace(text)
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return removeQuoteWrapping(text)
}

// echoPatterns are anchored to the start and require a colon to reduce false
// positives on legitimate content.
var echoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:translated )?(?:translation|text)\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:translation|translated text)\s*:`),
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.]? here(?:'s| is)(?: the)? (?:translated )?(?:translation|text)\s*:`),
}

// removeQuoteWrapping strips a matching pair of outer quotes when the entire
// text is wrapped in them. Supported pairs:
//
//	"…"  '…'  «…»  “…”  ‘…’
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	if (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '“' && last == '”') ||
		(first == '‘' && last == '’') {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}
