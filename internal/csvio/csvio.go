// Package csvio loads and writes CSV translation tables. A table's first
// record is the header; the source column holds the original text and each
// translation column corresponds to a quality tier.
package csvio

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultSourceColumn is the conventional name of the original-text column.
const DefaultSourceColumn = "original text"

// TierColumns are the translation columns in ascending quality order.
var TierColumns = []string{
	"Initial",
	"Machine translation",
	"Better translation",
	"Best translation",
}

// Table is an in-memory CSV translation table.
type Table struct {
	Path   string
	Header []string
	Rows   [][]string
}

// Load reads a CSV file into a Table. Records shorter than the header are
// padded so every row has a cell for every column.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty: %s", path)
	}

	t := &Table{Path: path, Header: records[0], Rows: records[1:]}
	for i, row := range t.Rows {
		for len(row) < len(t.Header) {
			row = append(row, "")
		}
		t.Rows[i] = row
	}
	return t, nil
}

// Save writes the table to path, creating parent directories as needed.
func (t *Table) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output CSV: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	w.Flush()
	return w.Error()
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named column, one cell per row. Missing
// columns yield a slice of empty strings.
func (t *Table) Column(name string) []string {
	idx := t.ColumnIndex(name)
	col := make([]string, len(t.Rows))
	if idx < 0 {
		return col
	}
	for i, row := range t.Rows {
		col[i] = row[idx]
	}
	return col
}

// EnsureColumn returns the index of the named column, appending it (with
// empty cells) when absent.
func (t *Table) EnsureColumn(name string) int {
	if idx := t.ColumnIndex(name); idx >= 0 {
		return idx
	}
	t.Header = append(t.Header, name)
	for i, row := range t.Rows {
		t.Rows[i] = append(row, "")
	}
	return len(t.Header) - 1
}

// SetColumn overwrites the named column with values, creating the column if
// needed. Extra values are dropped; missing values leave cells untouched.
func (t *Table) SetColumn(name string, values []string) {
	idx := t.EnsureColumn(name)
	for i := range t.Rows {
		if i < len(values) {
			t.Rows[i][idx] = values[i]
		}
	}
}

// FileInfo summarizes a CSV file for directory listings.
type FileInfo struct {
	Path               string
	Name               string
	RowCount           int
	ColumnCount        int
	Columns            []string
	HasSource          bool
	TranslationColumns []string
	Size               int64
	Modified           time.Time
}

// Scan lists *.csv files under dir, sorted by name.
func Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Info loads file metadata and column availability for a CSV file.
func Info(path string) (*FileInfo, error) {
	t, err := Load(path)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	info := &FileInfo{
		Path:        path,
		Name:        filepath.Base(path),
		RowCount:    len(t.Rows),
		ColumnCount: len(t.Header),
		Columns:     t.Header,
		HasSource:   t.ColumnIndex(DefaultSourceColumn) >= 0,
		Size:        st.Size(),
		Modified:    st.ModTime(),
	}
	for _, tier := range TierColumns {
		if idx := t.ColumnIndex(tier); idx >= 0 {
			for _, row := range t.Rows {
				if strings.TrimSpace(row[idx]) != "" {
					info.TranslationColumns = append(info.TranslationColumns, tier)
					break
				}
			}
		}
	}
	return info, nil
}
