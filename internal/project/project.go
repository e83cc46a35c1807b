// Package project saves and restores translation session state so a batch
// of files can be worked on across multiple sessions.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rowlate/rowlate/internal/assemble"
	"github.com/rowlate/rowlate/internal/csvio"
)

// Extension is the project file suffix.
const Extension = ".rlproj"

const formatVersion = "1.0"

// Project is the persisted state of a translation session.
type Project struct {
	FormatVersion string    `json:"format_version"`
	Name          string    `json:"name"`
	SavedAt       time.Time `json:"saved_at"`

	SourceDir     string   `json:"source_dir"`
	TranslatedDir string   `json:"translated_dir"`
	Files         []string `json:"files"`

	SourceLang   string `json:"source_lang,omitempty"`
	TargetLang   string `json:"target_lang"`
	TargetColumn string `json:"target_column"`
	Instruction  string `json:"instruction,omitempty"`

	ChunkSize    int `json:"chunk_size"`
	SleepSeconds int `json:"sleep_seconds"`
	MaxRetries   int `json:"max_retries"`

	Context assemble.Config `json:"context"`

	Processed []string `json:"processed_files,omitempty"`
	Failed    []string `json:"failed_files,omitempty"`
}

// New returns a project with the stock run parameters.
func New(name string) *Project {
	return &Project{
		FormatVersion: formatVersion,
		Name:          name,
		TargetColumn:  csvio.TierColumns[0],
		ChunkSize:     50,
		SleepSeconds:  10,
		MaxRetries:    3,
		Context:       assemble.DefaultConfig(),
	}
}

// ScanSource refreshes Files from the source directory.
func (p *Project) ScanSource() error {
	if p.SourceDir == "" {
		return fmt.Errorf("source directory not set")
	}
	files, err := csvio.Scan(p.SourceDir)
	if err != nil {
		return err
	}
	p.Files = files
	return nil
}

// MarkProcessed records a successfully translated file, removing it from the
// failed list if it was there.
func (p *Project) MarkProcessed(file string) {
	p.Failed = remove(p.Failed, file)
	if !contains(p.Processed, file) {
		p.Processed = append(p.Processed, file)
	}
}

// MarkFailed records a file whose run did not complete.
func (p *Project) MarkFailed(file string) {
	if !contains(p.Failed, file) {
		p.Failed = append(p.Failed, file)
	}
}

// Pending returns the files not yet processed, failed ones included so they
// are retried on the next pass.
func (p *Project) Pending() []string {
	var out []string
	for _, f := range p.Files {
		if !contains(p.Processed, f) {
			out = append(out, f)
		}
	}
	return out
}

// Save writes the project to path, adding the extension when missing.
func (p *Project) Save(path string) error {
	if filepath.Ext(path) == "" {
		path += Extension
	}
	p.FormatVersion = formatVersion
	p.SavedAt = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create project directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write project: %w", err)
	}
	return nil
}

// Load reads a project file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}
	p := New("")
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse project: %w", err)
	}
	return p, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func remove(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
