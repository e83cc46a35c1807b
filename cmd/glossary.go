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
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rowlate/rowlate/internal/store"
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Manage the terminology glossary",
	Long: `Add, list, and delete terminology glossary entries.

Glossary entries are injected into every translation prompt so specific
source terms always translate to the same target term. Useful for character
names, place names, and recurring game terminology.`,
}

var (
	glossaryListSource string
	glossaryListTarget string
)

var glossaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List glossary entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(viper.GetString("db"))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		// Pass empty strings to list everything; flags narrow the filter.
		entries, err := db.ListGlossaryTerms(context.Background(), glossaryListSource, glossaryListTarget)
		if err != nil {
			return fmt.Errorf("failed to list glossary: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("Glossary is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE LANG\tTARGET LANG\tSOURCE TERM\tTARGET TERM")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				e.SourceLang, e.TargetLang, e.SourceTerm, e.TargetTerm)
		}
		return w.Flush()
	},
}

var (
	glossaryAddSource string
	glossaryAddTarget string
)

var glossaryAddCmd = &cobra.Command{
	Use:   "add <source-term> <target-term>",
	Short: "Add or update a glossary entry",
	Long: `Add a glossary entry mapping a source-language term to a target-language term.

Example:
  rowlate glossary add "Kyiv" "Київ" --source en --target uk`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if glossaryAddSource == "" {
			return fmt.Errorf("--source language flag is required")
		}
		if glossaryAddTarget == "" {
			return fmt.Errorf("--target language flag is required")
		}

		db, err := store.New(viper.GetString("db"))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.AddGlossaryTerm(context.Background(), glossaryAddSource, glossaryAddTarget, args[0], args[1]); err != nil {
			return fmt.Errorf("failed to add glossary entry: %w", err)
		}
		fmt.Printf("Added: [%s>%s] %q -> %q\n", glossaryAddSource, glossaryAddTarget, args[0], args[1])
		return nil
	},
}

var (
	glossaryDeleteSource string
	glossaryDeleteTarget string
)

var glossaryDeleteCmd = &cobra.Command{
	Use:   "delete <source-term>",
	Short: "Delete a glossary entry",
	Long: `Delete a glossary entry by its source term and language pair.

Example:
  rowlate glossary delete "Kyiv" --source en --target uk`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if glossaryDeleteSource == "" || glossaryDeleteTarget == "" {
			return fmt.Errorf("--source and --target language flags are required")
		}

		db, err := store.New(viper.GetString("db"))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.DeleteGlossaryTerm(context.Background(), glossaryDeleteSource, glossaryDeleteTarget, args[0]); err != nil {
			return fmt.Errorf("failed to delete glossary entry: %w", err)
		}
		fmt.Printf("Deleted glossary entry: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(glossaryCmd)

	glossaryListCmd.Flags().StringVarP(&glossaryListSource, "source", "s", "", "Filter by source language code (e.g. en)")
	glossaryListCmd.Flags().StringVarP(&glossaryListTarget, "target", "t", "", "Filter by target language code (e.g. uk)")

	glossaryAddCmd.Flags().StringVarP(&glossaryAddSource, "source", "s", "", "Source language code (e.g. en)")
	glossaryAddCmd.Flags().StringVarP(&glossaryAddTarget, "target", "t", "", "Target language code (e.g. uk)")

	glossaryDeleteCmd.Flags().StringVarP(&glossaryDeleteSource, "source", "s", "", "Source language code (e.g. en)")
	glossaryDeleteCmd.Flags().StringVarP(&glossaryDeleteTarget, "target", "t", "", "Target language code (e.g. uk)")

	glossaryCmd.AddCommand(glossaryListCmd)
	glossaryCmd.AddCommand(glossaryAddCmd)
	glossaryCmd.AddCommand(glossaryDeleteCmd)
}
