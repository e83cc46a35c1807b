package csvio

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "test.csv",
		"original text,Initial\nHello,Привіт\nWorld,\n")

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(table.Header) != 2 || table.Header[0] != "original text" {
		t.Errorf("unexpected header: %v", table.Header)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	if table.Rows[0][1] != "Привіт" {
		t.Errorf("unexpected cell: %q", table.Rows[0][1])
	}
}

func TestLoad_PadsShortRows(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "test.csv",
		"original text,Initial,Best translation\nHello\n")

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(table.Rows[0]) != 3 {
		t.Errorf("expected padded row of 3 cells, got %d", len(table.Rows[0]))
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load("/nonexistent.csv"); err == nil {
		t.Error("expected error for missing file")
	}

	empty := writeCSV(t, t.TempDir(), "empty.csv", "")
	if _, err := Load(empty); err == nil {
		t.Error("expected error for empty file")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	table := &Table{
		Header: []string{"original text", "Initial"},
		Rows: [][]string{
			{"Hello, world", "Привіт, світ"},
			{`He said "hi"`, ""},
		},
	}

	out := filepath.Join(tmpDir, "sub", "out.csv")
	if err := table.Save(out); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(out)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Rows[0][1] != "Привіт, світ" {
		t.Errorf("comma cell not preserved: %q", loaded.Rows[0][1])
	}
	if loaded.Rows[1][0] != `He said "hi"` {
		t.Errorf("quoted cell not preserved: %q", loaded.Rows[1][0])
	}
}

func TestTable_Column(t *testing.T) {
	table := &Table{
		Header: []string{"original text", "Initial"},
		Rows:   [][]string{{"a", "A"}, {"b", "B"}},
	}

	col := table.Column("Initial")
	if col[0] != "A" || col[1] != "B" {
		t.Errorf("unexpected column: %v", col)
	}

	missing := table.Column("nope")
	if len(missing) != 2 || missing[0] != "" {
		t.Errorf("missing column should be empty cells: %v", missing)
	}
}

func TestTable_EnsureAndSetColumn(t *testing.T) {
	table := &Table{
		Header: []string{"original text"},
		Rows:   [][]string{{"a"}, {"b"}},
	}

	idx := table.EnsureColumn("Initial")
	if idx != 1 || len(table.Rows[0]) != 2 {
		t.Fatalf("EnsureColumn did not extend rows: idx=%d rows=%v", idx, table.Rows)
	}
	// second call is a no-op
	if again := table.EnsureColumn("Initial"); again != idx {
		t.Errorf("EnsureColumn not idempotent: %d vs %d", again, idx)
	}

	table.SetColumn("Initial", []string{"A"})
	if table.Rows[0][1] != "A" {
		t.Errorf("SetColumn did not write: %v", table.Rows)
	}
	if table.Rows[1][1] != "" {
		t.Errorf("short values should leave later cells untouched: %v", table.Rows)
	}
}

func TestScan(t *testing.T) {
	tmpDir := t.TempDir()
	writeCSV(t, tmpDir, "b.csv", "x\n")
	writeCSV(t, tmpDir, "a.CSV", "x\n")
	writeCSV(t, tmpDir, "notes.txt", "x\n")
	os.Mkdir(filepath.Join(tmpDir, "sub.csv"), 0o755)

	files, err := Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 csv files, got %v", files)
	}
	if filepath.Base(files[0]) != "a.CSV" || filepath.Base(files[1]) != "b.csv" {
		t.Errorf("expected sorted csv files, got %v", files)
	}
}

func TestInfo(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeCSV(t, tmpDir, "test.csv",
		"original text,Initial,Better translation\nHello,Привіт,\n")

	info, err := Info(path)
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if !info.HasSource {
		t.Error("expected source column detected")
	}
	if info.RowCount != 1 || info.ColumnCount != 3 {
		t.Errorf("unexpected counts: %+v", info)
	}
	// Better translation exists but is empty, so only Initial counts
	if len(info.TranslationColumns) != 1 || info.TranslationColumns[0] != "Initial" {
		t.Errorf("unexpected translation columns: %v", info.TranslationColumns)
	}
}
