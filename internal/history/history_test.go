package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rowlate/rowlate/internal/prompt"
)

func TestAdd(t *testing.T) {
	l := New("")
	l.Add(prompt.RoleUser, "hello", "")
	l.Add(prompt.RoleAssistant, "reply", "gemini-2.0-flash-exp")

	if len(l.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(l.Messages))
	}
	if l.Messages[0].Timestamp == "" {
		t.Error("timestamp not set")
	}
	if l.ModelName != "gemini-2.0-flash-exp" {
		t.Errorf("model name not captured: %q", l.ModelName)
	}
}

func TestAdd_Eviction(t *testing.T) {
	l := New("")
	for i := 0; i < MaxEntries+10; i++ {
		l.Add(prompt.RoleUser, "msg", "")
	}
	if len(l.Messages) != MaxEntries {
		t.Errorf("expected %d messages after eviction, got %d", MaxEntries, len(l.Messages))
	}
}

func TestAddTranslation(t *testing.T) {
	l := New("")
	l.AddTranslation([]string{"hello", "world"}, []string{"привіт", "світ"}, "gpt-4o", "Initial")

	if len(l.Messages) != 2 {
		t.Fatalf("expected request/response pair, got %d messages", len(l.Messages))
	}
	if l.Messages[0].Role != prompt.RoleUser {
		t.Errorf("first message role = %q", l.Messages[0].Role)
	}
	if !strings.Contains(l.Messages[0].Content, "Initial") {
		t.Errorf("request should name the target column: %q", l.Messages[0].Content)
	}
	if l.Messages[1].Role != prompt.RoleAssistant {
		t.Errorf("second message role = %q", l.Messages[1].Role)
	}
	if !strings.Contains(l.Messages[1].Content, "привіт") {
		t.Errorf("response should carry translations: %q", l.Messages[1].Content)
	}
}

func TestRecordEdits(t *testing.T) {
	l := New("")
	l.AddTranslation([]string{"hello"}, []string{"прівет"}, "", "Initial")

	l.RecordEdits([]string{"прівет"}, []string{"привіт"}, "Initial")

	if len(l.Messages) != 3 {
		t.Fatalf("expected edit entry, got %d messages", len(l.Messages))
	}
	if !strings.Contains(l.Messages[2].Content, "modify_translation") {
		t.Errorf("edit entry missing action: %q", l.Messages[2].Content)
	}
	// the assistant turn is patched so later context shows corrected text
	if !strings.Contains(l.Messages[1].Content, "привіт") {
		t.Errorf("assistant turn not patched: %q", l.Messages[1].Content)
	}
}

func TestRecordEdits_NoChanges(t *testing.T) {
	l := New("")
	l.AddTranslation([]string{"hello"}, []string{"привіт"}, "", "Initial")
	l.RecordEdits([]string{"привіт"}, []string{"привіт"}, "Initial")

	if len(l.Messages) != 2 {
		t.Errorf("identical texts must not add an entry, got %d messages", len(l.Messages))
	}
}

func TestRecent(t *testing.T) {
	l := New("")
	for i := 0; i < 5; i++ {
		l.Add(prompt.RoleUser, string(rune('a'+i)), "")
	}

	recent := l.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(recent))
	}
	if recent[0].Content != "c" || recent[2].Content != "e" {
		t.Errorf("wrong window: %v", recent)
	}

	if got := l.Recent(100); len(got) != 5 {
		t.Errorf("asking past the log size should return all, got %d", len(got))
	}
}

func TestShouldSummarize(t *testing.T) {
	l := New("")
	for i := 0; i < SummarizeThreshold-1; i++ {
		l.Add(prompt.RoleUser, "msg", "")
	}
	if l.ShouldSummarize() {
		t.Error("below threshold should not summarize")
	}
	l.Add(prompt.RoleUser, "msg", "")
	if !l.ShouldSummarize() {
		t.Error("at threshold should summarize")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	l := New(path)
	l.ContextID = "run-1"
	l.AddTranslation([]string{"hello"}, []string{"привіт"}, "gpt-4o", "Initial")
	if err := l.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded := New(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.ContextID != "run-1" {
		t.Errorf("context id = %q", loaded.ContextID)
	}
	if loaded.ModelName != "gpt-4o" {
		t.Errorf("model name = %q", loaded.ModelName)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(loaded.Messages))
	}
	if loaded.Messages[1].Content != l.Messages[1].Content {
		t.Error("message content changed across save/load")
	}
}

func TestSave_NoPath(t *testing.T) {
	l := New("")
	if err := l.Save(); err == nil {
		t.Error("expected error for unconfigured path")
	}
}

func TestLoad_LegacyParts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	legacy := `[
  {"role": "human", "parts": ["Translate to Initial column:", "[\"hello\"]"]},
  {"role": "model", "parts": ["{\"translation\": [\"привіт\"]}"]}
]`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	l := New(path)
	if err := l.Load(); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(l.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(l.Messages))
	}
	if l.Messages[0].Role != prompt.RoleUser {
		t.Errorf("legacy role not mapped: %q", l.Messages[0].Role)
	}
	if l.Messages[1].Role != prompt.RoleAssistant {
		t.Errorf("legacy role not mapped: %q", l.Messages[1].Role)
	}
	if !strings.Contains(l.Messages[0].Content, "hello") {
		t.Errorf("parts not joined: %q", l.Messages[0].Content)
	}
}

func TestLoad_Unrecognized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := New(path).Load(); err == nil {
		t.Error("expected error for unrecognized format")
	}
}

func TestSummary(t *testing.T) {
	l := New("")
	l.AddTranslation([]string{"hello", "world"}, []string{"привіт", "світ"}, "", "Initial")
	l.AddTranslation([]string{"goodbye"}, []string{"бувай"}, "", "Initial")
	l.RecordEdits([]string{"бувай"}, []string{"до побачення"}, "Initial")

	s := l.Summary()
	if !strings.Contains(s, "**Lines translated**: 3") {
		t.Errorf("summary missing line count: %q", s)
	}
	if !strings.Contains(s, "**Translation runs**: 2") {
		t.Errorf("summary missing run count: %q", s)
	}
	if !strings.Contains(s, "**Manual corrections**: 1") {
		t.Errorf("summary missing correction count: %q", s)
	}
	if !strings.Contains(s, "до побачення") {
		t.Errorf("summary missing correction example: %q", s)
	}
}

func TestSummary_Empty(t *testing.T) {
	if s := New("").Summary(); s != "No translation history yet." {
		t.Errorf("unexpected empty summary: %q", s)
	}
}
