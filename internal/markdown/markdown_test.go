package markdown

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	got := ToHTML("**Lines translated**: 42")
	if !strings.Contains(got, "<strong>Lines translated</strong>") {
		t.Errorf("bold not rendered: %q", got)
	}
	if !strings.Contains(got, "42") {
		t.Errorf("text lost: %q", got)
	}
}

func TestToHTML_Heading(t *testing.T) {
	got := ToHTML("# Summary\n\nsome text")
	if !strings.Contains(got, "<h1") || !strings.Contains(got, "Summary") {
		t.Errorf("heading not rendered: %q", got)
	}
}

func TestToPlainText(t *testing.T) {
	got := ToPlainText("**Lines translated**: 42\n\n**Translation runs**: 3")
	if strings.ContainsAny(got, "<>") {
		t.Errorf("tags left in plain text: %q", got)
	}
	if !strings.Contains(got, "Lines translated: 42") {
		t.Errorf("content lost: %q", got)
	}
	if !strings.Contains(got, "Translation runs: 3") {
		t.Errorf("content lost: %q", got)
	}
}

func TestToPlainText_Empty(t *testing.T) {
	if got := ToPlainText(""); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}
