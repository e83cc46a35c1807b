// Package assemble mines previously translated material from CSV tables and
// turns it into (source, translation) pairs supplied to the model as
// conversational context. Pairs are built block-wise so the model sees the
// same granularity it is asked to produce.
package assemble

import (
	"fmt"
	"os"
	"strings"

	"github.com/rowlate/rowlate/internal/csvio"
)

// Config selects which files and columns feed the context and how much of it
// is sent per request.
type Config struct {
	Files             []string `mapstructure:"files" json:"files"`
	SourceColumn      string   `mapstructure:"source_column" json:"source_column"`
	TranslationColumn string   `mapstructure:"translation_column" json:"translation_column"`
	ChunkSize         int      `mapstructure:"chunk_size" json:"chunk_size"`
	MaxPairs          int      `mapstructure:"max_pairs" json:"max_pairs"`
	OnlyTranslated    bool     `mapstructure:"only_translated" json:"only_translated"`
	NewestFirst       bool     `mapstructure:"newest_first" json:"newest_first"`
	IncludeRows       bool     `mapstructure:"include_rows" json:"include_rows"`
}

// DefaultConfig mirrors the conventional table layout: context is mined from
// the original-text column against the Initial tier.
func DefaultConfig() Config {
	return Config{
		SourceColumn:      csvio.DefaultSourceColumn,
		TranslationColumn: "Initial",
		ChunkSize:         50,
		MaxPairs:          10,
		OnlyTranslated:    true,
	}
}

// Pair is one context unit: a block of source lines and its translation.
type Pair struct {
	Source      string `json:"source"`
	Translation string `json:"translation"`
	Rows        string `json:"rows,omitempty"`
}

// Stats describes the context that would be assembled.
type Stats struct {
	Files           int `json:"files"`
	Pairs           int `json:"pairs"`
	Chars           int `json:"chars"`
	EstimatedTokens int `json:"estimated_tokens"`
	PairsPerRequest int `json:"pairs_per_request"`
}

// Assembler caches loaded tables between chunks of the same run.
type Assembler struct {
	cfg    Config
	loaded map[string]*csvio.Table
}

func New(cfg Config) *Assembler {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}
	if cfg.MaxPairs <= 0 {
		cfg.MaxPairs = DefaultConfig().MaxPairs
	}
	return &Assembler{cfg: cfg, loaded: make(map[string]*csvio.Table)}
}

func (a *Assembler) Config() Config { return a.cfg }

// LoadFile reads a context file into the cache. Already-loaded files are not
// reread unless force is set.
func (a *Assembler) LoadFile(path string, force bool) error {
	if _, ok := a.loaded[path]; ok && !force {
		return nil
	}
	t, err := csvio.Load(path)
	if err != nil {
		return err
	}
	a.loaded[path] = t
	return nil
}

// UnloadFile drops a file from the cache.
func (a *Assembler) UnloadFile(path string) {
	delete(a.loaded, path)
}

// Clear drops all cached files.
func (a *Assembler) Clear() {
	a.loaded = make(map[string]*csvio.Table)
}

// Validate checks that every configured file loads and carries both the
// source and translation columns. The result maps file path to the problem,
// nil meaning valid.
func (a *Assembler) Validate() map[string]error {
	results := make(map[string]error, len(a.cfg.Files))
	for _, path := range a.cfg.Files {
		if err := a.LoadFile(path, false); err != nil {
			results[path] = err
			continue
		}
		t := a.loaded[path]
		switch {
		case t.ColumnIndex(a.cfg.SourceColumn) < 0:
			results[path] = fmt.Errorf("missing column %q", a.cfg.SourceColumn)
		case t.ColumnIndex(a.cfg.TranslationColumn) < 0:
			results[path] = fmt.Errorf("missing column %q", a.cfg.TranslationColumn)
		default:
			results[path] = nil
		}
	}
	return results
}

// ForChunk returns the context pairs for translating table rows
// [curStart, curEnd]. The block covering that range is excluded so the model
// never sees the lines it is about to translate. Pass a negative range to
// include everything.
func (a *Assembler) ForChunk(curStart, curEnd int) []Pair {
	var pairs []Pair
	for _, path := range a.cfg.Files {
		if err := a.LoadFile(path, false); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping context file %s: %v\n", path, err)
			continue
		}
		pairs = append(pairs, a.extract(a.loaded[path], curStart, curEnd)...)
	}

	if len(pairs) > a.cfg.MaxPairs {
		if a.cfg.NewestFirst {
			pairs = pairs[len(pairs)-a.cfg.MaxPairs:]
		} else {
			pairs = pairs[:a.cfg.MaxPairs]
		}
	}
	if a.cfg.NewestFirst {
		for i, j := 0, len(pairs)-1; i < j; i, j = i+1, j-1 {
			pairs[i], pairs[j] = pairs[j], pairs[i]
		}
	}
	return pairs
}

func (a *Assembler) extract(t *csvio.Table, curStart, curEnd int) []Pair {
	srcIdx := t.ColumnIndex(a.cfg.SourceColumn)
	trIdx := t.ColumnIndex(a.cfg.TranslationColumn)
	if srcIdx < 0 || trIdx < 0 {
		return nil
	}

	var pairs []Pair
	for start := 0; start < len(t.Rows); start += a.cfg.ChunkSize {
		end := start + a.cfg.ChunkSize
		if end > len(t.Rows) {
			end = len(t.Rows)
		}
		// Skip the block currently being translated.
		if curStart >= 0 && start >= curStart && end <= curEnd+1 {
			continue
		}

		var src, tr []string
		translated := false
		for _, row := range t.Rows[start:end] {
			s, tl := strings.TrimSpace(row[srcIdx]), strings.TrimSpace(row[trIdx])
			if tl != "" {
				translated = true
			}
			if s != "" {
				src = append(src, s)
			}
			if tl != "" {
				tr = append(tr, tl)
			}
		}

		if a.cfg.OnlyTranslated && !translated {
			continue
		}
		if len(src) == 0 || len(tr) == 0 {
			continue
		}

		p := Pair{Source: strings.Join(src, "\n"), Translation: strings.Join(tr, "\n")}
		if a.cfg.IncludeRows {
			p.Rows = fmt.Sprintf("%d-%d", start, end-1)
		}
		pairs = append(pairs, p)
	}
	return pairs
}

// Preview returns up to max pairs along with stats over the whole context.
func (a *Assembler) Preview(max int) ([]Pair, Stats) {
	pairs := a.all()
	stats := a.stats(pairs)
	if len(pairs) > max {
		pairs = pairs[:max]
	}
	return pairs, stats
}

// Estimate computes context size without truncation.
func (a *Assembler) Estimate() Stats {
	return a.stats(a.all())
}

func (a *Assembler) all() []Pair {
	var pairs []Pair
	for _, path := range a.cfg.Files {
		if err := a.LoadFile(path, false); err != nil {
			continue
		}
		pairs = append(pairs, a.extract(a.loaded[path], -1, -1)...)
	}
	return pairs
}

func (a *Assembler) stats(pairs []Pair) Stats {
	chars := 0
	for _, p := range pairs {
		chars += len(p.Source) + len(p.Translation)
	}
	perReq := len(pairs)
	if perReq > a.cfg.MaxPairs {
		perReq = a.cfg.MaxPairs
	}
	return Stats{
		Files:           len(a.loaded),
		Pairs:           len(pairs),
		Chars:           chars,
		EstimatedTokens: chars / 4,
		PairsPerRequest: perReq,
	}
}

// Columns lists the header of a context file, loading it if necessary.
func (a *Assembler) Columns(path string) ([]string, error) {
	if err := a.LoadFile(path, false); err != nil {
		return nil, err
	}
	return a.loaded[path].Header, nil
}
