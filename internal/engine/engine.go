// Package engine drives a translation run: it chunks the source column,
// builds prompts, calls the provider, parses and validates responses, and
// merges results back into the table with retry, memory, and checkpoint
// support.
package engine

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rowlate/rowlate/internal/assemble"
	"github.com/rowlate/rowlate/internal/chunk"
	"github.com/rowlate/rowlate/internal/csvio"
	"github.com/rowlate/rowlate/internal/history"
	"github.com/rowlate/rowlate/internal/parse"
	"github.com/rowlate/rowlate/internal/placeholder"
	"github.com/rowlate/rowlate/internal/prompt"
	"github.com/rowlate/rowlate/internal/provider"
	"github.com/rowlate/rowlate/internal/store"
	"github.com/rowlate/rowlate/internal/validate"
)

// Config carries everything one run needs. Provider is the only required
// field; optional collaborators are skipped when nil.
type Config struct {
	Provider     provider.Provider
	Model        provider.ModelConfig
	SourceLang   string
	TargetLang   string
	SourceColumn string
	TargetColumn string
	Instruction  string

	ChunkSize  int
	MaxRetries int
	Sleep      time.Duration

	// SelectedRows restricts translation to specific table rows. Nil means
	// all rows.
	SelectedRows []int

	// SkipTranslated leaves rows alone when the target column already has
	// text.
	SkipTranslated bool

	// CheckLanguage rejects chunk responses whose detected language does not
	// match TargetLang.
	CheckLanguage bool

	Store     *store.Store
	History   *history.Log
	Assembler *assemble.Assembler
	Validator *validate.Validator

	Progress func(Event)
}

// Event reports per-chunk progress to the caller.
type Event struct {
	ChunkID    int
	ChunkCount int
	Status     string
	Err        string
	LinesDone  int
	LinesTotal int
	FromMemory bool
}

// Stats summarizes a completed run.
type Stats struct {
	Chunks          int
	ChunksCompleted int
	ChunksFailed    int
	LinesTranslated int
	MemoryHits      int
	CheckpointID    string
}

type Engine struct {
	cfg Config
}

func New(cfg Config) (*Engine, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if cfg.SourceColumn == "" {
		cfg.SourceColumn = csvio.DefaultSourceColumn
	}
	if cfg.TargetColumn == "" {
		cfg.TargetColumn = csvio.TierColumns[0]
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Engine{cfg: cfg}, nil
}

// TranslateTable runs the full pipeline over one loaded table. The table is
// modified in place; the caller decides when to save it. Per-chunk failures
// are recorded in the returned stats and the chunks' Err fields but do not
// abort the run. inputPath is used only for checkpoint bookkeeping.
func (e *Engine) TranslateTable(ctx context.Context, t *csvio.Table, inputPath string) (*Stats, []*chunk.Chunk, error) {
	source := t.Column(e.cfg.SourceColumn)
	if source == nil {
		return nil, nil, fmt.Errorf("column %q not found in %s", e.cfg.SourceColumn, t.Path)
	}
	t.EnsureColumn(e.cfg.TargetColumn)
	target := t.Column(e.cfg.TargetColumn)

	rows := e.selectRows(source, target)
	chunks := chunk.BuildRows(rows, e.cfg.ChunkSize, e.cfg.SelectedRows)
	for _, c := range chunks {
		c.TargetColumn = e.cfg.TargetColumn
	}

	stats := &Stats{Chunks: len(chunks)}
	if len(chunks) == 0 {
		return stats, nil, nil
	}

	saved, err := e.openCheckpoint(ctx, inputPath, stats)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: checkpoint unavailable: %v\n", err)
	}

	glossary := e.loadGlossary(ctx)

	requestsMade := false
	for _, c := range chunks {
		if e.restoreFromCheckpoint(c, saved) {
			e.report(c, len(chunks), Event{Status: c.Status, FromMemory: true})
			stats.ChunksCompleted++
			stats.LinesTranslated += len(c.Lines)
		} else if e.restoreFromMemory(ctx, c) {
			stats.MemoryHits++
			stats.ChunksCompleted++
			stats.LinesTranslated += len(c.Lines)
			e.report(c, len(chunks), Event{Status: c.Status, FromMemory: true})
		} else {
			if requestsMade {
				if err := e.pause(ctx); err != nil {
					return stats, chunks, err
				}
			}
			requestsMade = true

			if err := e.translateChunk(ctx, c, glossary); err != nil {
				if ctx.Err() != nil {
					return stats, chunks, ctx.Err()
				}
				c.Fail(err.Error())
				stats.ChunksFailed++
				fmt.Fprintf(os.Stderr, "Chunk %d failed: %v\n", c.ID, err)
				e.report(c, len(chunks), Event{Status: c.Status, Err: c.Err})
				continue
			}
			stats.ChunksCompleted++
			stats.LinesTranslated += len(c.Lines)
			e.report(c, len(chunks), Event{Status: c.Status})
			e.recordChunk(ctx, c)
		}

		c.Merge(target)
		e.saveRows(ctx, stats.CheckpointID, c)
	}

	t.SetColumn(e.cfg.TargetColumn, target)

	if e.cfg.Store != nil && stats.CheckpointID != "" && stats.ChunksFailed == 0 {
		_ = e.cfg.Store.CompleteCheckpoint(ctx, stats.CheckpointID)
	}
	return stats, chunks, nil
}

// selectRows returns the source rows eligible for translation, blanking the
// rest so chunking skips them.
func (e *Engine) selectRows(source, target []string) []string {
	rows := make([]string, len(source))
	copy(rows, source)
	if e.cfg.SkipTranslated {
		for i := range rows {
			if i < len(target) && strings.TrimSpace(target[i]) != "" {
				rows[i] = ""
			}
		}
	}
	return rows
}

func (e *Engine) openCheckpoint(ctx context.Context, inputPath string, stats *Stats) (map[int]string, error) {
	if e.cfg.Store == nil || inputPath == "" {
		return nil, nil
	}

	if cp, err := e.cfg.Store.FindCheckpoint(ctx, inputPath, e.cfg.TargetLang, e.cfg.TargetColumn); err == nil && cp != nil {
		stats.CheckpointID = cp.ID
		saved, err := e.cfg.Store.Rows(ctx, cp.ID)
		if err != nil {
			return nil, err
		}
		if len(saved) > 0 {
			fmt.Fprintf(os.Stderr, "Resuming checkpoint %s (%d rows already done)\n", cp.ID, len(saved))
		}
		return saved, nil
	}

	id, err := e.cfg.Store.CreateCheckpoint(ctx, inputPath, inputPath, e.cfg.SourceLang, e.cfg.TargetLang, e.cfg.TargetColumn)
	if err != nil {
		return nil, err
	}
	stats.CheckpointID = id
	return nil, nil
}

// restoreFromCheckpoint completes a chunk from saved checkpoint rows when
// every line of the chunk is present.
func (e *Engine) restoreFromCheckpoint(c *chunk.Chunk, saved map[int]string) bool {
	if len(saved) == 0 {
		return false
	}
	translations := make([]string, len(c.Lines))
	for i, ln := range c.Lines {
		text, ok := saved[ln.Row]
		if !ok {
			return false
		}
		translations[i] = text
	}
	c.Complete(translations)
	return true
}

// restoreFromMemory completes a chunk from the translation memory. Partial
// hits are ignored so line numbering stays intact for the provider request.
func (e *Engine) restoreFromMemory(ctx context.Context, c *chunk.Chunk) bool {
	if e.cfg.Store == nil {
		return false
	}
	translations := make([]string, len(c.Lines))
	for i, ln := range c.Lines {
		text, found, err := e.cfg.Store.GetMemory(ctx, ln.Text, e.cfg.SourceLang, e.cfg.TargetLang, e.cfg.TargetColumn)
		if err != nil || !found {
			return false
		}
		translations[i] = text
	}
	c.Complete(translations)
	return true
}

// translateChunk attempts a chunk up to MaxRetries times, pausing between
// attempts like between chunks.
func (e *Engine) translateChunk(ctx context.Context, c *chunk.Chunk, glossary map[string]string) error {
	c.Status = chunk.StatusTranslating

	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			if err := e.pause(ctx); err != nil {
				return err
			}
		}

		translations, err := e.attempt(ctx, c, glossary)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			fmt.Fprintf(os.Stderr, "Chunk %d attempt %d/%d: %v\n", c.ID, attempt, e.cfg.MaxRetries, err)
			continue
		}
		c.Complete(translations)
		return nil
	}
	return fmt.Errorf("all %d attempts failed: %w", e.cfg.MaxRetries, lastErr)
}

// attempt performs one provider round trip for a chunk.
func (e *Engine) attempt(ctx context.Context, c *chunk.Chunk, glossary map[string]string) ([]string, error) {
	// Plain MT providers translate line by line without prompting. Markup
	// is swapped for placeholders first since they cannot be instructed to
	// preserve it.
	if lt, ok := e.cfg.Provider.(provider.LineTranslator); ok {
		lines := make([]string, len(c.Lines))
		markers := make([][]string, len(c.Lines))
		for i, ln := range c.Lines {
			lines[i], markers[i] = placeholder.Protect(ln.Text)
		}
		out, err := lt.TranslateLines(ctx, lines, e.cfg.SourceLang, e.cfg.TargetLang)
		if err != nil {
			return nil, err
		}
		if len(out) != len(lines) {
			return nil, fmt.Errorf("got %d translations for %d lines", len(out), len(lines))
		}
		for i := range out {
			if missing := placeholder.Validate(out[i], markers[i]); len(missing) > 0 {
				fmt.Fprintf(os.Stderr, "Warning: row %d lost %d markup tokens\n", c.Lines[i].Row, len(missing))
			}
			out[i] = placeholder.Restore(out[i], markers[i])
		}
		return out, nil
	}

	opts := prompt.Options{
		SourceLang:   e.cfg.SourceLang,
		TargetLang:   e.cfg.TargetLang,
		TargetColumn: e.cfg.TargetColumn,
		Instruction:  e.cfg.Instruction,
		Glossary:     glossary,
	}
	if e.cfg.History != nil {
		opts.History = e.cfg.History.Recent(history.SummarizeThreshold)
	}
	if e.cfg.Assembler != nil {
		opts.Context = e.cfg.Assembler.ForChunk(c.StartRow, c.EndRow)
	}

	messages, err := prompt.Build(c, opts)
	if err != nil {
		return nil, err
	}

	result, err := e.cfg.Provider.Complete(ctx, provider.Request{
		Messages:    messages,
		Model:       e.cfg.Model.Model,
		Temperature: e.cfg.Model.Temperature,
		MaxTokens:   e.cfg.Model.MaxTokens,
		TopP:        e.cfg.Model.TopP,
	})
	if err != nil {
		return nil, err
	}

	text := parse.StripReasoning(result.Text)
	parsed := parse.Extract(text)
	if parsed == nil {
		return nil, fmt.Errorf("unparseable response (%d bytes)", len(result.Text))
	}
	if err := validate.Lines(parsed, c.ExpectedLines()); err != nil {
		return nil, err
	}

	byLine := make(map[int]string, len(parsed))
	for _, tr := range parsed {
		byLine[tr.Line] = tr.Text
	}
	translations := make([]string, len(c.Lines))
	for i, ln := range c.Lines {
		translations[i] = parse.CleanLine(byLine[ln.Number])
	}

	if e.cfg.CheckLanguage && e.cfg.Validator != nil {
		joined := strings.Join(translations, " ")
		if ok, lerr := e.cfg.Validator.Language(joined, e.cfg.TargetLang); !ok {
			if lerr == nil {
				lerr = fmt.Errorf("response not in target language %s", e.cfg.TargetLang)
			}
			return nil, lerr
		}
	}
	return translations, nil
}

// recordChunk writes a completed chunk to the memory and the conversation
// log. Persistence failures are warnings, not run failures.
func (e *Engine) recordChunk(ctx context.Context, c *chunk.Chunk) {
	original := make([]string, len(c.Lines))
	for i, ln := range c.Lines {
		original[i] = ln.Text
	}

	if e.cfg.Store != nil {
		for i, ln := range c.Lines {
			if err := e.cfg.Store.SaveMemory(ctx, ln.Text, e.cfg.SourceLang, e.cfg.TargetLang,
				e.cfg.TargetColumn, c.Translations[i], e.cfg.Provider.Name(), e.cfg.Model.Model); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save memory: %v\n", err)
				break
			}
		}
	}
	if e.cfg.History != nil {
		e.cfg.History.AddTranslation(original, c.Translations, e.cfg.Model.Model, e.cfg.TargetColumn)
	}
}

func (e *Engine) saveRows(ctx context.Context, checkpointID string, c *chunk.Chunk) {
	if e.cfg.Store == nil || checkpointID == "" || c.Status != chunk.StatusCompleted {
		return
	}
	for i, ln := range c.Lines {
		_ = e.cfg.Store.SaveRow(ctx, checkpointID, ln.Row, c.Translations[i])
	}
}

func (e *Engine) loadGlossary(ctx context.Context) map[string]string {
	if e.cfg.Store == nil {
		return nil
	}
	terms, err := e.cfg.Store.GetGlossaryTerms(ctx, e.cfg.SourceLang, e.cfg.TargetLang)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load glossary: %v\n", err)
		return nil
	}
	if len(terms) == 0 {
		return nil
	}
	return terms
}

// pause sleeps the configured delay between consecutive provider requests,
// returning early if the context is cancelled.
func (e *Engine) pause(ctx context.Context) error {
	if e.cfg.Sleep <= 0 {
		return nil
	}
	timer := time.NewTimer(e.cfg.Sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Engine) report(c *chunk.Chunk, count int, ev Event) {
	if e.cfg.Progress == nil {
		return
	}
	ev.ChunkID = c.ID
	ev.ChunkCount = count
	ev.LinesTotal = len(c.Lines)
	if c.Status == chunk.StatusCompleted {
		ev.LinesDone = len(c.Lines)
	}
	e.cfg.Progress(ev)
}
