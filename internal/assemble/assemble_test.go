package assemble

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeContextCSV builds a file of n rows; translated selects which rows get
// a translation cell.
func writeContextCSV(t *testing.T, dir, name string, n int, translated func(int) bool) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("original text,Initial\n")
	for i := 0; i < n; i++ {
		if translated(i) {
			fmt.Fprintf(&sb, "line %d,рядок %d\n", i, i)
		} else {
			fmt.Fprintf(&sb, "line %d,\n", i)
		}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func allRows(int) bool { return true }

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SourceColumn != "original text" || cfg.TranslationColumn != "Initial" {
		t.Errorf("unexpected columns: %+v", cfg)
	}
	if cfg.ChunkSize != 50 || cfg.MaxPairs != 10 {
		t.Errorf("unexpected sizes: %+v", cfg)
	}
	if !cfg.OnlyTranslated {
		t.Error("expected only_translated by default")
	}
}

func TestForChunk_PairPerBlock(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeContextCSV(t, tmpDir, "ctx.csv", 10, allRows)

	cfg := DefaultConfig()
	cfg.Files = []string{path}
	cfg.ChunkSize = 5
	asm := New(cfg)

	pairs := asm.ForChunk(-1, -1)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs (10 rows / 5), got %d", len(pairs))
	}
	if !strings.Contains(pairs[0].Source, "line 0") || !strings.Contains(pairs[0].Translation, "рядок 4") {
		t.Errorf("unexpected first pair: %+v", pairs[0])
	}
}

func TestForChunk_ExcludesCurrentBlock(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeContextCSV(t, tmpDir, "ctx.csv", 15, allRows)

	cfg := DefaultConfig()
	cfg.Files = []string{path}
	cfg.ChunkSize = 5
	asm := New(cfg)

	// translating rows 5-9 must drop the middle block
	pairs := asm.ForChunk(5, 9)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs with middle excluded, got %d", len(pairs))
	}
	for _, p := range pairs {
		if strings.Contains(p.Source, "line 5") || strings.Contains(p.Source, "line 9") {
			t.Errorf("current block leaked into context: %+v", p)
		}
	}
}

func TestForChunk_MaxPairsBound(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeContextCSV(t, tmpDir, "ctx.csv", 40, allRows)

	cfg := DefaultConfig()
	cfg.Files = []string{path}
	cfg.ChunkSize = 5
	cfg.MaxPairs = 3
	asm := New(cfg)

	pairs := asm.ForChunk(-1, -1)
	if len(pairs) != 3 {
		t.Fatalf("expected MaxPairs bound of 3, got %d", len(pairs))
	}
	// oldest blocks kept by default
	if !strings.Contains(pairs[0].Source, "line 0") {
		t.Errorf("expected oldest block first: %+v", pairs[0])
	}
}

func TestForChunk_NewestFirst(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeContextCSV(t, tmpDir, "ctx.csv", 40, allRows)

	cfg := DefaultConfig()
	cfg.Files = []string{path}
	cfg.ChunkSize = 5
	cfg.MaxPairs = 3
	cfg.NewestFirst = true
	asm := New(cfg)

	pairs := asm.ForChunk(-1, -1)
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(pairs))
	}
	// newest block (rows 35-39) comes first
	if !strings.Contains(pairs[0].Source, "line 39") {
		t.Errorf("expected newest block first: %+v", pairs[0])
	}
}

func TestForChunk_OnlyTranslated(t *testing.T) {
	tmpDir := t.TempDir()
	// rows 0-4 translated, rows 5-9 not
	path := writeContextCSV(t, tmpDir, "ctx.csv", 10, func(i int) bool { return i < 5 })

	cfg := DefaultConfig()
	cfg.Files = []string{path}
	cfg.ChunkSize = 5
	asm := New(cfg)

	pairs := asm.ForChunk(-1, -1)
	if len(pairs) != 1 {
		t.Fatalf("expected only the translated block, got %d", len(pairs))
	}

	cfg.OnlyTranslated = false
	asm = New(cfg)
	pairs = asm.ForChunk(-1, -1)
	// the untranslated block still has no translation text, so it is dropped
	if len(pairs) != 1 {
		t.Fatalf("block without any translation text cannot form a pair, got %d", len(pairs))
	}
}

func TestValidate(t *testing.T) {
	tmpDir := t.TempDir()
	good := writeContextCSV(t, tmpDir, "good.csv", 3, allRows)
	bad := filepath.Join(tmpDir, "bad.csv")
	os.WriteFile(bad, []byte("other column\nx\n"), 0o644)

	cfg := DefaultConfig()
	cfg.Files = []string{good, bad, filepath.Join(tmpDir, "missing.csv")}
	asm := New(cfg)

	results := asm.Validate()
	if results[good] != nil {
		t.Errorf("good file flagged: %v", results[good])
	}
	if results[bad] == nil {
		t.Error("expected error for file without source column")
	}
	if results[cfg.Files[2]] == nil {
		t.Error("expected error for missing file")
	}
}

func TestPreviewAndEstimate(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeContextCSV(t, tmpDir, "ctx.csv", 20, allRows)

	cfg := DefaultConfig()
	cfg.Files = []string{path}
	cfg.ChunkSize = 5
	asm := New(cfg)

	pairs, stats := asm.Preview(2)
	if len(pairs) != 2 {
		t.Errorf("expected preview capped at 2, got %d", len(pairs))
	}
	if stats.Pairs != 4 {
		t.Errorf("expected 4 pairs total, got %d", stats.Pairs)
	}
	if stats.Files != 1 {
		t.Errorf("expected 1 file, got %d", stats.Files)
	}

	est := asm.Estimate()
	if est.Chars == 0 || est.EstimatedTokens == 0 {
		t.Errorf("expected non-zero size estimate: %+v", est)
	}
	if est.PairsPerRequest != 4 {
		t.Errorf("expected 4 pairs per request (under MaxPairs), got %d", est.PairsPerRequest)
	}
}

func TestLoadFile_CachedUntilForced(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeContextCSV(t, tmpDir, "ctx.csv", 2, allRows)

	asm := New(DefaultConfig())
	if err := asm.LoadFile(path, false); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	// rewrite the file; cached copy must still be served
	os.WriteFile(path, []byte("original text,Initial\nchanged,змінено\n"), 0o644)

	cols, err := asm.Columns(path)
	if err != nil {
		t.Fatalf("Columns failed: %v", err)
	}
	if len(cols) != 2 {
		t.Errorf("unexpected columns: %v", cols)
	}

	if err := asm.LoadFile(path, true); err != nil {
		t.Fatalf("forced reload failed: %v", err)
	}
	asm.Clear()
	if err := asm.LoadFile(path, false); err != nil {
		t.Fatalf("reload after Clear failed: %v", err)
	}
}
