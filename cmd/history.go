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

	"github.com/spf13/cobra"

	"github.com/rowlate/rowlate/internal/history"
	"github.com/rowlate/rowlate/internal/markdown"
)

var (
	historyFile        string
	historySummaryHTML bool
	historySummaryRaw  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the translation conversation log",
	Long: `Show, summarize, and clear the conversation history that is replayed
into prompts for translation consistency.`,
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the logged messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := history.New(historyFile)
		if err := log.Load(); err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}

		if len(log.Messages) == 0 {
			fmt.Println("History is empty.")
			return nil
		}

		for i, m := range log.Messages {
			fmt.Printf("[%d] %s", i, m.Role)
			if m.ModelName != "" {
				fmt.Printf(" (%s)", m.ModelName)
			}
			if m.Timestamp != "" {
				fmt.Printf(" at %s", m.Timestamp)
			}
			fmt.Printf(":\n%s\n\n", m.Content)
		}
		fmt.Printf("%d messages total\n", len(log.Messages))
		return nil
	},
}

var historySummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print a digest of translation activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := history.New(historyFile)
		if err := log.Load(); err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}

		md := log.Summary()
		switch {
		case historySummaryHTML:
			fmt.Println(markdown.ToHTML(md))
		case historySummaryRaw:
			fmt.Println(md)
		default:
			fmt.Println(markdown.ToPlainText(md))
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Erase the conversation log",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := history.New(historyFile)
		log.Clear()
		if err := log.Save(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Println("History cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.PersistentFlags().StringVar(&historyFile, "history", "./data/history.json", "Conversation history file")

	historySummaryCmd.Flags().BoolVar(&historySummaryHTML, "html", false, "Render the summary as HTML")
	historySummaryCmd.Flags().BoolVar(&historySummaryRaw, "markdown", false, "Print the raw markdown summary")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySummaryCmd)
	historyCmd.AddCommand(historyClearCmd)
}
