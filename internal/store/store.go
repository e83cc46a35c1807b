// Package store persists translation state between runs: a translation
// memory keyed by normalized source line, run checkpoints for resume after
// interruption, a mirror of the conversation log, and the glossary.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		target_column TEXT NOT NULL DEFAULT 'Initial',
		final_text TEXT NOT NULL,
		provider_used TEXT,
		model_used TEXT,
		usage_count INTEGER DEFAULT 1,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, source_lang, target_lang, target_column)
	);

	CREATE TABLE IF NOT EXISTS run_checkpoints (
		id TEXT PRIMARY KEY,
		input_file TEXT NOT NULL,
		output_file TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		target_column TEXT NOT NULL,
		status TEXT DEFAULT 'running',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS checkpoint_rows (
		checkpoint_id TEXT NOT NULL,
		row_idx INTEGER NOT NULL,
		translated_text TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (checkpoint_id, row_idx),
		FOREIGN KEY (checkpoint_id) REFERENCES run_checkpoints(id)
	);

	CREATE TABLE IF NOT EXISTS history_log (
		id TEXT PRIMARY KEY,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		model_used TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS glossary (
		id TEXT PRIMARY KEY,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		source_term TEXT NOT NULL,
		target_term TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_lang, target_lang, source_term)
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_text, source_lang, target_lang, target_column);
	CREATE INDEX IF NOT EXISTS idx_checkpoint_rows ON checkpoint_rows(checkpoint_id);
	CREATE INDEX IF NOT EXISTS idx_glossary_lookup ON glossary(source_lang, target_lang);
	CREATE INDEX IF NOT EXISTS idx_history_time ON history_log(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// GetMemory returns the cached translation of a single source line, bumping
// its usage counter on a hit. Invalidated entries miss.
func (s *Store) GetMemory(ctx context.Context, sourceText, sourceLang, targetLang, targetColumn string) (string, bool, error) {
	key := normalizeText(sourceText)

	var finalText string
	var invalidated bool
	err := s.db.QueryRowContext(ctx,
		`SELECT final_text, invalidated FROM translation_memory
		 WHERE source_text = ? AND source_lang = ? AND target_lang = ? AND target_column = ?`,
		key, sourceLang, targetLang, targetColumn).Scan(&finalText, &invalidated)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if invalidated {
		return "", false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ?
		 WHERE source_text = ? AND source_lang = ? AND target_lang = ? AND target_column = ?`,
		time.Now(), key, sourceLang, targetLang, targetColumn)
	return finalText, true, err
}

// SaveMemory inserts or replaces a memory entry for one source line.
func (s *Store) SaveMemory(ctx context.Context, sourceText, sourceLang, targetLang, targetColumn, finalText, providerUsed, modelUsed string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_memory
		 (id, source_text, source_lang, target_lang, target_column, final_text, provider_used, model_used, usage_count, invalidated, last_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, FALSE, ?, ?)`,
		uuid.NewString(), normalizeText(sourceText), sourceLang, targetLang, targetColumn,
		finalText, providerUsed, modelUsed, time.Now(), time.Now())
	return err
}

// MemoryEntry is one row of the translation memory.
type MemoryEntry struct {
	ID           string
	SourceText   string
	SourceLang   string
	TargetLang   string
	TargetColumn string
	FinalText    string
	ProviderUsed string
	UsageCount   int
	Invalidated  bool
	LastUsed     time.Time
}

// ListMemory returns all memory entries ordered by most recently used.
func (s *Store) ListMemory(ctx context.Context) ([]MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, source_lang, target_lang, target_column, final_text,
		        COALESCE(provider_used, ''), usage_count, invalidated, last_used
		 FROM translation_memory ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.ID, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.TargetColumn,
			&e.FinalText, &e.ProviderUsed, &e.UsageCount, &e.Invalidated, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// InvalidateMemory marks an entry stale without deleting it.
func (s *Store) InvalidateMemory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE translation_memory SET invalidated = TRUE WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no memory entry with id %s", id)
	}
	return nil
}

// DeleteMemory permanently removes a memory entry by ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no memory entry with id %s", id)
	}
	return nil
}

// ClearMemory removes all memory entries and reports how many were deleted.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MemoryStats summarizes the translation memory.
type MemoryStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
}

func (s *Store) Stats(ctx context.Context) (*MemoryStats, error) {
	stats := &MemoryStats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM translation_memory`).Scan(
		&stats.TotalEntries, &stats.ActiveEntries, &stats.InvalidEntries, &stats.TotalUsage)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Checkpoint describes a translation run eligible for resume.
type Checkpoint struct {
	ID           string
	InputFile    string
	OutputFile   string
	SourceLang   string
	TargetLang   string
	TargetColumn string
	Status       string
	CreatedAt    time.Time
}

// CreateCheckpoint opens a new run checkpoint and returns its ID.
func (s *Store) CreateCheckpoint(ctx context.Context, inputFile, outputFile, sourceLang, targetLang, targetColumn string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_checkpoints (id, input_file, output_file, source_lang, target_lang, target_column, status)
		 VALUES (?, ?, ?, ?, ?, ?, 'running')`,
		id, inputFile, outputFile, sourceLang, targetLang, targetColumn)
	if err != nil {
		return "", err
	}
	return id, nil
}

// FindCheckpoint returns the most recent unfinished checkpoint matching the
// run parameters, or nil when there is nothing to resume.
func (s *Store) FindCheckpoint(ctx context.Context, inputFile, targetLang, targetColumn string) (*Checkpoint, error) {
	cp := &Checkpoint{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, input_file, output_file, source_lang, target_lang, target_column, status, created_at
		 FROM run_checkpoints
		 WHERE input_file = ? AND target_lang = ? AND target_column = ? AND status = 'running'
		 ORDER BY created_at DESC LIMIT 1`,
		inputFile, targetLang, targetColumn).Scan(
		&cp.ID, &cp.InputFile, &cp.OutputFile, &cp.SourceLang, &cp.TargetLang,
		&cp.TargetColumn, &cp.Status, &cp.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cp, nil
}

// SaveRow records one translated row under a checkpoint.
func (s *Store) SaveRow(ctx context.Context, checkpointID string, rowIdx int, translatedText string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO checkpoint_rows (checkpoint_id, row_idx, translated_text)
		 VALUES (?, ?, ?)`, checkpointID, rowIdx, translatedText)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE run_checkpoints SET updated_at = ? WHERE id = ?`, time.Now(), checkpointID)
	return err
}

// Rows returns the saved rows of a checkpoint keyed by row index.
func (s *Store) Rows(ctx context.Context, checkpointID string) (map[int]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_idx, translated_text FROM checkpoint_rows WHERE checkpoint_id = ?`, checkpointID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	saved := make(map[int]string)
	for rows.Next() {
		var idx int
		var text string
		if err := rows.Scan(&idx, &text); err != nil {
			return nil, err
		}
		saved[idx] = text
	}
	return saved, rows.Err()
}

// CompleteCheckpoint marks a run finished. Its rows are kept for auditing.
func (s *Store) CompleteCheckpoint(ctx context.Context, checkpointID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE run_checkpoints SET status = 'completed', updated_at = ? WHERE id = ?`,
		time.Now(), checkpointID)
	return err
}

// LogMessage appends a conversation message to the persistent history log.
func (s *Store) LogMessage(ctx context.Context, role, content, modelUsed string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history_log (id, role, content, model_used) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), role, content, modelUsed)
	return err
}

// ClearHistoryLog drops all persisted conversation messages.
func (s *Store) ClearHistoryLog(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM history_log`)
	return err
}

// GlossaryEntry is a fixed term mapping applied to every prompt.
type GlossaryEntry struct {
	ID         string
	SourceLang string
	TargetLang string
	SourceTerm string
	TargetTerm string
}

// AddGlossaryTerm inserts or replaces a term mapping for a language pair.
func (s *Store) AddGlossaryTerm(ctx context.Context, sourceLang, targetLang, sourceTerm, targetTerm string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO glossary (id, source_lang, target_lang, source_term, target_term)
		 VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), sourceLang, targetLang, normalizeText(sourceTerm), normalizeText(targetTerm))
	return err
}

// GetGlossaryTerms returns the term map for a language pair.
func (s *Store) GetGlossaryTerms(ctx context.Context, sourceLang, targetLang string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_term, target_term FROM glossary WHERE source_lang = ? AND target_lang = ?`,
		sourceLang, targetLang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	terms := make(map[string]string)
	for rows.Next() {
		var src, tgt string
		if err := rows.Scan(&src, &tgt); err != nil {
			return nil, err
		}
		terms[src] = tgt
	}
	return terms, rows.Err()
}

// ListGlossaryTerms returns all glossary entries, optionally filtered by
// language pair when both languages are non-empty.
func (s *Store) ListGlossaryTerms(ctx context.Context, sourceLang, targetLang string) ([]GlossaryEntry, error) {
	query := `SELECT id, source_lang, target_lang, source_term, target_term FROM glossary`
	var args []any
	if sourceLang != "" && targetLang != "" {
		query += ` WHERE source_lang = ? AND target_lang = ?`
		args = append(args, sourceLang, targetLang)
	}
	query += ` ORDER BY source_lang, target_lang, source_term`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []GlossaryEntry
	for rows.Next() {
		var e GlossaryEntry
		if err := rows.Scan(&e.ID, &e.SourceLang, &e.TargetLang, &e.SourceTerm, &e.TargetTerm); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteGlossaryTerm removes a term mapping.
func (s *Store) DeleteGlossaryTerm(ctx context.Context, sourceLang, targetLang, sourceTerm string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM glossary WHERE source_lang = ? AND target_lang = ? AND source_term = ?`,
		sourceLang, targetLang, normalizeText(sourceTerm))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no glossary term %q for %s->%s", sourceTerm, sourceLang, targetLang)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
