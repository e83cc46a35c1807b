// Package chunk splits a column of source rows into fixed-size translation
// batches. Blank rows are filtered out before batching; every kept line keeps
// a pointer back to its table row so completed translations merge back into
// the right cells.
package chunk

import "strings"

// Statuses a chunk moves through during a translation run.
const (
	StatusPending     = "pending"
	StatusTranslating = "translating"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
)

// Line is a single non-blank source line within a chunk. Number is 1-based
// and local to the chunk; Row is the 0-based table row the line came from.
type Line struct {
	Number int    `json:"line"`
	Text   string `json:"text"`
	Row    int    `json:"-"`
}

// Chunk is a bounded batch of source lines sent to a provider in one request.
type Chunk struct {
	ID           int
	StartRow     int
	EndRow       int
	TargetColumn string
	Lines        []Line
	Translations []string
	Status       string
	Err          string
}

// Build splits rows into chunks of at most size non-blank lines. Blank or
// whitespace-only rows are skipped. With size <= 0 a single chunk holding all
// non-blank rows is returned (or nil when there are none).
//
// Line numbers restart at 1 in each chunk and are strictly increasing.
func Build(rows []string, size int) []*Chunk {
	var chunks []*Chunk
	var cur *Chunk

	for row, text := range rows {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if cur == nil || (size > 0 && len(cur.Lines) >= size) {
			cur = &Chunk{
				ID:       len(chunks),
				StartRow: row,
				Status:   StatusPending,
			}
			chunks = append(chunks, cur)
		}
		cur.Lines = append(cur.Lines, Line{
			Number: len(cur.Lines) + 1,
			Text:   strings.TrimSpace(text),
			Row:    row,
		})
		cur.EndRow = row
	}

	return chunks
}

// BuildRows is Build restricted to a row selection. Rows outside selected are
// ignored; selected indices out of range are skipped. A nil selection means
// all rows.
func BuildRows(rows []string, size int, selected []int) []*Chunk {
	if selected == nil {
		return Build(rows, size)
	}
	keep := make(map[int]bool, len(selected))
	for _, r := range selected {
		keep[r] = true
	}
	masked := make([]string, len(rows))
	for i, text := range rows {
		if keep[i] {
			masked[i] = text
		}
	}
	return Build(masked, size)
}

// Complete marks the chunk done with the given translations. The caller must
// pass exactly one translation per line; anything else is a programming error
// that Fail should have handled instead.
func (c *Chunk) Complete(translations []string) {
	c.Translations = translations
	c.Status = StatusCompleted
	c.Err = ""
}

// Fail marks the chunk failed and clears any partial translations.
func (c *Chunk) Fail(reason string) {
	c.Translations = nil
	c.Status = StatusFailed
	c.Err = reason
}

// Merge writes a completed chunk's translations into column, indexing by each
// line's source row. Chunks that are not completed, or whose translation
// count does not match their line count, are ignored.
func (c *Chunk) Merge(column []string) {
	if c.Status != StatusCompleted || len(c.Translations) != len(c.Lines) {
		return
	}
	for i, ln := range c.Lines {
		if ln.Row >= 0 && ln.Row < len(column) {
			column[ln.Row] = c.Translations[i]
		}
	}
}

// ExpectedLines returns the set of line numbers a well-formed response for
// this chunk must cover.
func (c *Chunk) ExpectedLines() map[int]bool {
	set := make(map[int]bool, len(c.Lines))
	for _, ln := range c.Lines {
		set[ln.Number] = true
	}
	return set
}
