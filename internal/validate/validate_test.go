package validate

import (
	"strings"
	"testing"

	"github.com/rowlate/rowlate/internal/parse"
)

func TestLines_AllPresent(t *testing.T) {
	got := []parse.Translation{
		{Line: 1, Text: "a"},
		{Line: 2, Text: "b"},
		{Line: 3, Text: "c"},
	}
	expected := map[int]bool{1: true, 2: true, 3: true}

	if err := Lines(got, expected); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestLines_Missing(t *testing.T) {
	got := []parse.Translation{{Line: 2, Text: "b"}}
	expected := map[int]bool{1: true, 2: true, 3: true}

	err := Lines(got, expected)
	if err == nil {
		t.Fatal("expected error for missing lines")
	}
	// missing lines are reported sorted
	if !strings.Contains(err.Error(), "[1 3]") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLines_ExtraTolerated(t *testing.T) {
	got := []parse.Translation{
		{Line: 1, Text: "a"},
		{Line: 7, Text: "invented"},
	}
	expected := map[int]bool{1: true}

	if err := Lines(got, expected); err != nil {
		t.Errorf("extra lines should be tolerated, got %v", err)
	}
}

func TestLines_Empty(t *testing.T) {
	if err := Lines(nil, map[int]bool{}); err != nil {
		t.Errorf("empty expectation should pass, got %v", err)
	}
	if err := Lines(nil, map[int]bool{1: true}); err == nil {
		t.Error("expected error when nothing was returned")
	}
}

func TestValidator_DetectISO(t *testing.T) {
	v := New()

	code, ok := v.DetectISO("The quick brown fox jumps over the lazy dog near the river bank.")
	if !ok || code != "en" {
		t.Errorf("expected en, got %q ok=%v", code, ok)
	}

	code, ok = v.DetectISO("Швидка руда лисиця перестрибує через ледачого собаку біля річки.")
	if !ok || code != "uk" {
		t.Errorf("expected uk, got %q ok=%v", code, ok)
	}

	if _, ok := v.DetectISO(""); ok {
		t.Error("empty text must not detect")
	}
}

func TestValidator_DetectISOFromSamples(t *testing.T) {
	v := New()

	// single cells too short to classify; the joined sample is not
	cells := []string{"Меч", "", "Щит", "Зілля здоров'я", "Відкрити скриню", "Вийти з гри"}
	code, ok := v.DetectISOFromSamples(cells)
	if !ok || code != "uk" {
		t.Errorf("expected uk from joined sample, got %q ok=%v", code, ok)
	}

	if _, ok := v.DetectISOFromSamples([]string{"Hi", ""}); ok {
		t.Error("sample below the length guard must not detect")
	}
	if _, ok := v.DetectISOFromSamples(nil); ok {
		t.Error("empty sample must not detect")
	}
}

func TestValidator_Language(t *testing.T) {
	v := New()

	ok, err := v.Language("Швидка руда лисиця перестрибує через ледачого собаку біля річки.", "uk")
	if !ok || err != nil {
		t.Errorf("expected pass for matching language, got ok=%v err=%v", ok, err)
	}

	ok, err = v.Language("The quick brown fox jumps over the lazy dog near the river bank.", "uk")
	if ok || err == nil {
		t.Error("expected failure for wrong language")
	}
	if err != nil && !strings.Contains(err.Error(), "uk") {
		t.Errorf("error should name the expected code: %v", err)
	}
}

func TestValidator_Language_ShortTextPasses(t *testing.T) {
	v := New()
	ok, err := v.Language("Так", "uk")
	if !ok || err != nil {
		t.Errorf("short text should pass without detection, got ok=%v err=%v", ok, err)
	}
}

func TestValidator_Language_EmptyFails(t *testing.T) {
	v := New()
	if ok, err := v.Language("   ", "uk"); ok || err == nil {
		t.Error("empty translation must fail")
	}
}

func TestValidator_Language_NoTargetPasses(t *testing.T) {
	v := New()
	if ok, err := v.Language("anything at all", ""); !ok || err != nil {
		t.Errorf("no target language should pass, got ok=%v err=%v", ok, err)
	}
}
