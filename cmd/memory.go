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

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Manage the translation memory",
	Long:  `List, inspect, invalidate, and clear the SQLite translation memory.`,
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all translation memory entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(viper.GetString("db"))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		entries, err := db.ListMemory(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No entries in translation memory.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSOURCE\tTARGET\tCOLUMN\tPROVIDER\tUSED\tLAST USED\tINVALID\tTEXT")
		for _, e := range entries {
			snippet := e.SourceText
			if len(snippet) > 40 {
				snippet = snippet[:37] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%v\t%s\n",
				e.ID, e.SourceLang, e.TargetLang, e.TargetColumn, e.ProviderUsed,
				e.UsageCount, e.LastUsed.Format("2006-01-02 15:04"),
				e.Invalidated, snippet)
		}
		return w.Flush()
	},
}

var memoryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show translation memory statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(viper.GetString("db"))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Total entries:   %d\n", stats.TotalEntries)
		fmt.Printf("Active entries:  %d\n", stats.ActiveEntries)
		fmt.Printf("Invalid entries: %d\n", stats.InvalidEntries)
		fmt.Printf("Total usage:     %d\n", stats.TotalUsage)
		return nil
	},
}

var memoryInvalidateCmd = &cobra.Command{
	Use:   "invalidate <id>",
	Short: "Mark a memory entry stale without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(viper.GetString("db"))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.InvalidateMemory(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to invalidate entry: %w", err)
		}
		fmt.Printf("Invalidated entry: %s\n", args[0])
		return nil
	},
}

var memoryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a memory entry by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(viper.GetString("db"))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.DeleteMemory(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		fmt.Printf("Deleted entry: %s\n", args[0])
		return nil
	},
}

var memoryClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all entries from translation memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(viper.GetString("db"))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		n, err := db.ClearMemory(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear memory: %w", err)
		}
		fmt.Printf("Cleared %d entries from translation memory.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(memoryCmd)

	memoryCmd.AddCommand(memoryListCmd)
	memoryCmd.AddCommand(memoryStatsCmd)
	memoryCmd.AddCommand(memoryInvalidateCmd)
	memoryCmd.AddCommand(memoryDeleteCmd)
	memoryCmd.AddCommand(memoryClearCmd)
}
