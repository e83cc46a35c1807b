package parse

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestExtract_WellFormed(t *testing.T) {
	raw := `{"translation": [{"line": 1, "text": "Привіт"}, {"line": 2, "text": "Світ"}]}`
	got := Extract(raw)
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].Line != 1 || got[0].Text != "Привіт" {
		t.Errorf("unexpected first item: %+v", got[0])
	}
	if got[1].Line != 2 || got[1].Text != "Світ" {
		t.Errorf("unexpected second item: %+v", got[1])
	}
}

func TestExtract_RoundTrip(t *testing.T) {
	// whatever a chunk requests, a faithful reply parses to the same items
	for _, n := range []int{1, 5, 50} {
		items := make([]Translation, n)
		for i := range items {
			items[i] = Translation{Line: i + 1, Text: fmt.Sprintf("line %d", i+1)}
		}
		data, err := json.Marshal(map[string][]Translation{"translation": items})
		if err != nil {
			t.Fatal(err)
		}
		got := Extract(string(data))
		if len(got) != n {
			t.Fatalf("n=%d: expected %d items, got %d", n, n, len(got))
		}
		for i, it := range got {
			if it != items[i] {
				t.Errorf("n=%d item %d: got %+v want %+v", n, i, it, items[i])
			}
		}
	}
}

func TestExtract_BareArray(t *testing.T) {
	raw := `[{"line": 1, "text": "Привіт"}]`
	got := Extract(raw)
	if len(got) != 1 || got[0].Text != "Привіт" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestExtract_MarkdownFences(t *testing.T) {
	tests := []string{
		"```json\n{\"translation\": [{\"line\": 1, \"text\": \"hi\"}]}\n```",
		"```\n{\"translation\": [{\"line\": 1, \"text\": \"hi\"}]}\n```",
	}
	for _, raw := range tests {
		got := Extract(raw)
		if len(got) != 1 || got[0].Text != "hi" {
			t.Errorf("fence not stripped for %q: %+v", raw, got)
		}
	}
}

func TestExtract_ReasoningBlock(t *testing.T) {
	raw := "<think>let me translate this carefully</think>\n" +
		`{"translation": [{"line": 1, "text": "hi"}]}`
	got := Extract(raw)
	if len(got) != 1 || got[0].Text != "hi" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestExtract_TruncatedWithEllipsis(t *testing.T) {
	// model ran out of tokens mid-array and signed off with "..."
	raw := `{"translation": [{"line": 1, "text": "Привіт"}, {"line": 2, "text": "Сві...`
	got := Extract(raw)
	if len(got) != 1 {
		t.Fatalf("expected 1 recovered item, got %d: %+v", len(got), got)
	}
	if got[0].Line != 1 || got[0].Text != "Привіт" {
		t.Errorf("unexpected recovered item: %+v", got[0])
	}
}

func TestExtract_TruncatedMidObject(t *testing.T) {
	raw := `{"translation": [{"line": 1, "text": "one"}, {"line": 2, "tex`
	got := Extract(raw)
	if len(got) != 1 || got[0].Text != "one" {
		t.Fatalf("expected first item recovered, got %+v", got)
	}
}

func TestExtract_ProseAroundObject(t *testing.T) {
	raw := `Here is your translation: {"translation": [{"line": 1, "text": "hi"}]} Hope it helps!`
	got := Extract(raw)
	if len(got) != 1 || got[0].Text != "hi" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestExtract_UnescapedInnerQuotes(t *testing.T) {
	raw := `{"translation": [{"line": 1, "text": "he said "hello" to me"}]}`
	got := Extract(raw)
	if len(got) != 1 {
		t.Fatalf("expected repaired item, got %+v", got)
	}
	if got[0].Text != `he said "hello" to me` {
		t.Errorf("unexpected repaired text: %q", got[0].Text)
	}
}

func TestExtract_Garbage(t *testing.T) {
	tests := []string{
		"",
		"   \n  ",
		"I cannot translate this content.",
		"{]",
	}
	for _, raw := range tests {
		if got := Extract(raw); got != nil {
			t.Errorf("expected nil for %q, got %+v", raw, got)
		}
	}
}

func TestExtract_DropsItemsWithoutLine(t *testing.T) {
	raw := `{"translation": [{"line": 0, "text": "no line"}, {"line": 2, "text": "ok"}]}`
	got := Extract(raw)
	if len(got) != 1 || got[0].Line != 2 {
		t.Fatalf("expected only the valid item, got %+v", got)
	}
}

func TestExtract_DropsItemsWithoutText(t *testing.T) {
	raw := `{"translation": [{"line": 1}, {"line": 2, "text": "ok"}]}`
	got := Extract(raw)
	if len(got) != 1 || got[0].Line != 2 || got[0].Text != "ok" {
		t.Fatalf("a text-less item must be dropped, got %+v", got)
	}
}

func TestExtract_KeepsEmptyTextItems(t *testing.T) {
	raw := `{"translation": [{"line": 1, "text": ""}]}`
	got := Extract(raw)
	if len(got) != 1 || got[0].Text != "" {
		t.Fatalf("an explicit empty translation must survive, got %+v", got)
	}
}

func TestBalancedPrefix(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"truncated array",
			`{"translation": [{"line": 1, "text": "a"}, {"line": 2`,
			`{"translation": [{"line": 1, "text": "a"}]}`,
		},
		{
			"truncated inside string",
			`[{"line": 1, "text": "a"}, {"line": 2, "text": "b`,
			`[{"line": 1, "text": "a"}]`,
		},
		{
			"already balanced",
			`{"translation": []}`,
			`{"translation": []}`,
		},
		{
			"brace inside string value ignored",
			`[{"line": 1, "text": "curly } brace"}, {"line": 2`,
			`[{"line": 1, "text": "curly } brace"}]`,
		},
		{
			"nothing complete",
			`{"translation": [`,
			`{"translation": [`,
		},
	}
	for _, tt := range tests {
		if got := balancedPrefix(tt.input); got != tt.want {
			t.Errorf("%s:\n  got  %q\n  want %q", tt.name, got, tt.want)
		}
	}
}

func TestStripReasoning(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<thinking>hmm</thinking>answer", "answer"},
		{"<think>hmm</think>answer", "answer"},
		{"answer<reasoning>because</reasoning>", "answer"},
		{"answer<think>never closed", "answer"},
		{"no tags here", "no tags here"},
	}
	for _, tt := range tests {
		if got := StripReasoning(tt.input); got != tt.want {
			t.Errorf("StripReasoning(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCleanLine(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Here is the translation: Привіт", "Привіт"},
		{"Translation: Привіт", "Привіт"},
		{`"Привіт"`, "Привіт"},
		{"«Привіт»", "Привіт"},
		{"“Привіт”", "Привіт"},
		{`"mismatched'`, `"mismatched'`},
		{"  plain text  ", "plain text"},
		{`he said "so"`, `he said "so"`},
	}
	for _, tt := range tests {
		if got := CleanLine(tt.input); got != tt.want {
			t.Errorf("CleanLine(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
