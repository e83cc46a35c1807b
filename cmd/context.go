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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rowlate/rowlate/internal/assemble"
)

var (
	ctxFiles             []string
	ctxSourceColumn      string
	ctxTranslationColumn string
	ctxMaxPairs          int
	ctxOnlyTranslated    bool
	ctxNewestFirst       bool
	ctxPreviewMax        int
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Inspect context assembly from translated files",
	Long: `Preview, validate, and estimate the source/translation pairs that would be
injected into prompts as few-shot examples.

Context files are previously translated CSVs. Each prompt gets up to
--max-pairs pairs from them, never from the rows currently being translated.`,
}

func buildAssembler() (*assemble.Assembler, error) {
	if len(ctxFiles) == 0 {
		return nil, fmt.Errorf("at least one --file is required")
	}
	cfg := assemble.DefaultConfig()
	cfg.Files = ctxFiles
	cfg.MaxPairs = ctxMaxPairs
	cfg.OnlyTranslated = ctxOnlyTranslated
	cfg.NewestFirst = ctxNewestFirst
	if ctxSourceColumn != "" {
		cfg.SourceColumn = ctxSourceColumn
	}
	if ctxTranslationColumn != "" {
		cfg.TranslationColumn = ctxTranslationColumn
	}

	asm := assemble.New(cfg)
	for _, f := range ctxFiles {
		if err := asm.LoadFile(f, false); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return asm, nil
}

var contextPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the pairs a prompt would receive",
	RunE: func(cmd *cobra.Command, args []string) error {
		asm, err := buildAssembler()
		if err != nil {
			return err
		}

		pairs, stats := asm.Preview(ctxPreviewMax)
		if len(pairs) == 0 {
			fmt.Println("No usable context pairs.")
			return nil
		}

		for i, p := range pairs {
			fmt.Printf("--- pair %d ---\n", i+1)
			fmt.Printf("source:      %s\n", p.Source)
			fmt.Printf("translation: %s\n", p.Translation)
		}
		fmt.Printf("\n%d pairs shown of %d available across %d files\n",
			len(pairs), stats.Pairs, stats.Files)
		return nil
	},
}

var contextValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check context files for missing columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		asm, err := buildAssembler()
		if err != nil {
			return err
		}

		problems := asm.Validate()
		if len(problems) == 0 {
			fmt.Println("All context files are usable.")
			return nil
		}
		for file, ferr := range problems {
			fmt.Fprintf(os.Stderr, "%s: %v\n", file, ferr)
		}
		return fmt.Errorf("%d context files have problems", len(problems))
	},
}

var contextEstimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate context size and coverage",
	RunE: func(cmd *cobra.Command, args []string) error {
		asm, err := buildAssembler()
		if err != nil {
			return err
		}

		stats := asm.Estimate()
		fmt.Printf("Files loaded:      %d\n", stats.Files)
		fmt.Printf("Usable pairs:      %d\n", stats.Pairs)
		fmt.Printf("Pairs per request: %d\n", stats.PairsPerRequest)
		fmt.Printf("Total chars:       %d\n", stats.Chars)
		fmt.Printf("Estimated tokens:  %d\n", stats.EstimatedTokens)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(contextCmd)

	contextCmd.PersistentFlags().StringSliceVarP(&ctxFiles, "file", "f", nil, "Translated CSV file (repeatable)")
	contextCmd.PersistentFlags().StringVar(&ctxSourceColumn, "source-column", "", "Source text column (default: original text)")
	contextCmd.PersistentFlags().StringVar(&ctxTranslationColumn, "translation-column", "", "Translation column (default: Initial)")
	contextCmd.PersistentFlags().IntVar(&ctxMaxPairs, "max-pairs", 10, "Maximum pairs per prompt")
	contextCmd.PersistentFlags().BoolVar(&ctxOnlyTranslated, "only-translated", true, "Use only rows that have a translation")
	contextCmd.PersistentFlags().BoolVar(&ctxNewestFirst, "newest-first", false, "Order pairs newest first")

	contextPreviewCmd.Flags().IntVar(&ctxPreviewMax, "max", 10, "Maximum pairs to show")

	contextCmd.AddCommand(contextPreviewCmd)
	contextCmd.AddCommand(contextValidateCmd)
	contextCmd.AddCommand(contextEstimateCmd)
}
