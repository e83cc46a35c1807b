/*
Copyright © 2025 The rowlate authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rowlate/rowlate/internal/assemble"
	"github.com/rowlate/rowlate/internal/chunk"
	"github.com/rowlate/rowlate/internal/csvio"
	"github.com/rowlate/rowlate/internal/engine"
	"github.com/rowlate/rowlate/internal/history"
	"github.com/rowlate/rowlate/internal/store"
	"github.com/rowlate/rowlate/internal/validate"
)

var (
	trInputPath  string
	trOutputPath string
	trSourceLang string
	trTargetLang string
	trColumn     string

	trProviderName string
	trModel        string
	trTemperature  float64
	trMaxTokens    int

	trChunkSize  int
	trSleep      int
	trMaxRetries int
	trRows       []int

	trSkipTranslated bool
	trCheckLanguage  bool
	trInstruction    string

	trContextFiles  []string
	trContextColumn string
	trContextPairs  int

	trHistoryFile string
	trNoHistory   bool

	trNoCache bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate the text column of CSV files",
	Long: `Translate the source column of a CSV file (or every CSV file in a
directory) into a quality-tier column.

Rows are batched into chunks and sent to the provider as JSON; responses are
parsed, repaired if malformed, and validated for line coverage before being
written back. A chunk that keeps failing after retries is skipped and reported
at the end; the rest of the file still completes.

Available providers:
  - gemini      Google Generative Language API (default)
  - openai      OpenAI chat completions (or compatible base URL)
  - anthropic   Anthropic messages API
  - openrouter  OpenRouter with model rotation
  - ollama      Self-hosted Ollama
  - googlemt    Google Cloud Translate (for the "Machine translation" column)

Example:
  rowlate translate -i dialogue.csv -o out/dialogue.csv -t uk
  rowlate translate -i src/ -o out/ -t uk --provider ollama --chunk-size 30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if trInputPath == trOutputPath {
			return fmt.Errorf("input path and output path cannot be the same")
		}

		ctx := context.Background()

		prov, err := buildProvider(trProviderName)
		if err != nil {
			return err
		}

		var db *store.Store
		if !trNoCache {
			db, err = store.New(viper.GetString("db"))
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
		}

		var asm *assemble.Assembler
		if len(trContextFiles) > 0 {
			cfg := assemble.DefaultConfig()
			cfg.Files = trContextFiles
			cfg.MaxPairs = trContextPairs
			if trContextColumn != "" {
				cfg.TranslationColumn = trContextColumn
			}
			asm = assemble.New(cfg)
			for _, f := range trContextFiles {
				if err := asm.LoadFile(f, false); err != nil {
					return fmt.Errorf("failed to load context file %s: %w", f, err)
				}
			}
		}

		var hist *history.Log
		if !trNoHistory {
			hist = history.New(trHistoryFile)
			if err := hist.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(os.Stderr, "Warning: could not load history: %v\n", err)
			}
		}

		files, outputs, err := resolveFiles(trInputPath, trOutputPath)
		if err != nil {
			return err
		}

		validator := validate.New()

		failures := 0
		for i, inFile := range files {
			table, err := csvio.Load(inFile)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", inFile, err)
			}

			srcLang := trSourceLang
			if srcLang == "auto" {
				srcLang = detectSourceLang(validator, table)
			}

			eng, err := engine.New(engine.Config{
				Provider:       prov,
				Model:          modelConfig(trProviderName, trModel, trTemperature, trMaxTokens),
				SourceLang:     srcLang,
				TargetLang:     trTargetLang,
				TargetColumn:   trColumn,
				Instruction:    trInstruction,
				ChunkSize:      trChunkSize,
				MaxRetries:     trMaxRetries,
				Sleep:          time.Duration(trSleep) * time.Second,
				SelectedRows:   selectedRows(),
				SkipTranslated: trSkipTranslated,
				CheckLanguage:  trCheckLanguage,
				Store:          db,
				History:        hist,
				Assembler:      asm,
				Validator:      validator,
				Progress:       printProgress,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Translating %s (%d/%d)\n", inFile, i+1, len(files))
			stats, chunks, err := eng.TranslateTable(ctx, table, inFile)
			if err != nil {
				return fmt.Errorf("translation of %s failed: %w", inFile, err)
			}

			if err := table.Save(outputs[i]); err != nil {
				return fmt.Errorf("failed to save %s: %w", outputs[i], err)
			}

			fmt.Printf("%s: %d/%d chunks completed, %d lines translated",
				outputs[i], stats.ChunksCompleted, stats.Chunks, stats.LinesTranslated)
			if stats.MemoryHits > 0 {
				fmt.Printf(" (%d chunks from memory)", stats.MemoryHits)
			}
			fmt.Println()

			if stats.ChunksFailed > 0 {
				failures += stats.ChunksFailed
				for _, c := range chunks {
					if c.Status == chunk.StatusFailed {
						fmt.Fprintf(os.Stderr, "  chunk %d (rows %d-%d): %s\n", c.ID, c.StartRow, c.EndRow, c.Err)
					}
				}
			}
		}

		if hist != nil {
			if err := os.MkdirAll(filepath.Dir(trHistoryFile), 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not create history directory: %v\n", err)
			}
			if err := hist.Save(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not save history: %v\n", err)
			}
		}

		if failures > 0 {
			return fmt.Errorf("%d chunks failed; rerun to retry them", failures)
		}
		return nil
	},
}

// resolveFiles expands a file or directory input into matched input/output
// path lists.
func resolveFiles(input, output string) ([]string, []string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat input: %w", err)
	}
	if !info.IsDir() {
		return []string{input}, []string{output}, nil
	}

	files, err := csvio.Scan(input)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no CSV files in %s", input)
	}

	outs := make([]string, len(files))
	for i, f := range files {
		outs[i] = filepath.Join(output, filepath.Base(f))
	}
	return files, outs, nil
}

func detectSourceLang(v *validate.Validator, t *csvio.Table) string {
	if detected, ok := v.DetectISOFromSamples(t.Column(csvio.DefaultSourceColumn)); ok {
		fmt.Fprintf(os.Stderr, "Detected source language: %s\n", detected)
		return detected
	}
	return ""
}

func selectedRows() []int {
	if len(trRows) == 0 {
		return nil
	}
	return trRows
}

func printProgress(ev engine.Event) {
	switch ev.Status {
	case chunk.StatusCompleted:
		if ev.FromMemory {
			fmt.Fprintf(os.Stderr, "  chunk %d/%d: %d lines (cached)\n", ev.ChunkID+1, ev.ChunkCount, ev.LinesTotal)
		} else {
			fmt.Fprintf(os.Stderr, "  chunk %d/%d: %d lines\n", ev.ChunkID+1, ev.ChunkCount, ev.LinesTotal)
		}
	case chunk.StatusFailed:
		fmt.Fprintf(os.Stderr, "  chunk %d/%d: failed\n", ev.ChunkID+1, ev.ChunkCount)
	}
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&trInputPath, "input", "i", "", "Input CSV file or directory (required)")
	translateCmd.Flags().StringVarP(&trOutputPath, "output", "o", "", "Output CSV file or directory (required)")
	translateCmd.Flags().StringVarP(&trSourceLang, "source", "s", "auto", "Source language code")
	translateCmd.Flags().StringVarP(&trTargetLang, "target", "t", "", "Target language code (required)")
	translateCmd.Flags().StringVarP(&trColumn, "column", "l", "Initial", "Target quality-tier column")

	translateCmd.Flags().StringVar(&trProviderName, "provider", "gemini", "Translation provider")
	translateCmd.Flags().StringVarP(&trModel, "model", "m", "", "Model name (provider default if empty)")
	translateCmd.Flags().Float64Var(&trTemperature, "temperature", -1, "Sampling temperature override")
	translateCmd.Flags().IntVar(&trMaxTokens, "max-tokens", 0, "Response token limit override")

	translateCmd.Flags().IntVar(&trChunkSize, "chunk-size", 50, "Lines per request")
	translateCmd.Flags().IntVar(&trSleep, "sleep", 10, "Seconds to wait between provider requests")
	translateCmd.Flags().IntVar(&trMaxRetries, "max-retries", 3, "Attempts per chunk including the first")
	translateCmd.Flags().IntSliceVar(&trRows, "rows", nil, "Translate only these row indices (0-indexed, repeatable)")

	translateCmd.Flags().BoolVar(&trSkipTranslated, "skip-translated", false, "Skip rows that already have text in the target column")
	translateCmd.Flags().BoolVar(&trCheckLanguage, "check-language", false, "Reject responses not in the target language")
	translateCmd.Flags().StringVar(&trInstruction, "instruction", "", "Extra instruction appended to the system prompt")

	translateCmd.Flags().StringSliceVar(&trContextFiles, "context-file", nil, "Translated CSV to use as in-prompt examples (repeatable)")
	translateCmd.Flags().StringVar(&trContextColumn, "context-column", "", "Column to read context translations from (default: Initial)")
	translateCmd.Flags().IntVar(&trContextPairs, "context-pairs", 10, "Maximum context pairs per request")

	translateCmd.Flags().StringVar(&trHistoryFile, "history", "./data/history.json", "Conversation history file")
	translateCmd.Flags().BoolVar(&trNoHistory, "no-history", false, "Disable conversation history")

	translateCmd.Flags().BoolVar(&trNoCache, "no-cache", false, "Disable translation memory and checkpoints")

	translateCmd.MarkFlagRequired("input")
	translateCmd.MarkFlagRequired("output")
	translateCmd.MarkFlagRequired("target")
}
