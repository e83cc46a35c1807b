// Package prompt builds provider-neutral message lists for chunk translation
// requests: system instruction, recent conversation history, context pairs
// from previously translated material, then the chunk payload as a fenced
// JSON array.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rowlate/rowlate/internal/assemble"
	"github.com/rowlate/rowlate/internal/chunk"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged turn sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options configures message construction for one chunk.
type Options struct {
	SourceLang   string
	TargetLang   string
	TargetColumn string
	Instruction  string            // custom system instruction, empty for default
	Glossary     map[string]string // source term -> required translation
	History      []Message         // recent conversation window, already bounded
	Context      []assemble.Pair   // prior translated material
}

// tierHints maps target-column names to the quality expectation passed to the
// model. Unknown columns get no hint.
var tierHints = map[string]string{
	"Initial":             "Quick, basic translation",
	"Machine translation": "Direct, literal translation",
	"Better translation":  "Improved, more natural translation",
	"Best translation":    "Highest quality, polished translation",
}

// Build assembles the full message list for translating c.
func Build(c *chunk.Chunk, opts Options) ([]Message, error) {
	msgs := []Message{{Role: RoleSystem, Content: systemInstruction(opts)}}

	msgs = append(msgs, opts.History...)

	// Context pairs are replayed as prior turns so the model picks up
	// established names and phrasing without being asked to retranslate.
	for _, p := range opts.Context {
		msgs = append(msgs,
			Message{Role: RoleUser, Content: p.Source},
			Message{Role: RoleAssistant, Content: p.Translation},
		)
	}

	body, err := userPayload(c, opts)
	if err != nil {
		return nil, err
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: body})
	return msgs, nil
}

func userPayload(c *chunk.Chunk, opts Options) (string, error) {
	data, err := json.Marshal(c.Lines)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chunk payload: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Translate the following %d lines from %s to %s for the %q column.\n",
		len(c.Lines), langOrDetected(opts.SourceLang), opts.TargetLang, opts.TargetColumn)
	if hint, ok := tierHints[opts.TargetColumn]; ok {
		fmt.Fprintf(&sb, "Expected quality for this column: %s.\n", hint)
	}
	sb.WriteString("\nReturn the translation as a JSON object with this exact shape:\n")
	sb.WriteString("{\"translation\": [ { \"line\": 1, \"text\": \"...\" }, ... ]}\n\n")
	sb.WriteString("Keep the exact same line numbers and return every line, even names or short phrases. No extra commentary.\n\n")
	sb.WriteString("Input data:\n```")
	sb.Write(data)
	sb.WriteString("```")
	return sb.String(), nil
}

func systemInstruction(opts Options) string {
	base := opts.Instruction
	if base == "" {
		base = defaultInstruction(opts)
	}
	if len(opts.Glossary) == 0 {
		return base
	}

	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("\n\nTERMINOLOGY (use these exact translations):\n")
	for src, tgt := range opts.Glossary {
		fmt.Fprintf(&sb, "  %s → %s\n", src, tgt)
	}
	return sb.String()
}

func defaultInstruction(opts Options) string {
	return fmt.Sprintf(`You are a professional translator working on a line-based translation table. You translate from %s to %s.

You receive input as a JSON array of {"line", "text"} objects and must reply with a single JSON object:

{"translation": [ { "line": 1, "text": "..." }, ... ]}

Rules:
1. The "translation" array must contain exactly one entry per input line, with the same line numbers, in the same order.
2. When several input lines form one sentence, translate the whole sentence first, then split the output to match the per-line alignment.
3. A line holding only a character name introduces that character's dialogue on the next line; keep names and dialogue as separate entries and translate names consistently.
4. Preserve placeholders such as [Color_0] or [Ascii_0] exactly as they appear.
5. Keep original formatting (quotes, punctuation, honorific suffixes) where relevant.
6. Translate faithfully, without omission or censoring.`,
		langOrDetected(opts.SourceLang), opts.TargetLang)
}

func langOrDetected(lang string) string {
	if lang == "" || lang == "auto" {
		return "the detected language"
	}
	return lang
}
