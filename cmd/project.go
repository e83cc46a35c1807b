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

	"github.com/rowlate/rowlate/internal/project"
)

var (
	projSourceDir     string
	projTranslatedDir string
	projTargetLang    string
	projChunkSize     int
	projSleep         int
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage saved translation projects",
	Long: `A project file (` + project.Extension + `) records the source and output
directories, run parameters, and which files have been processed, so a large
batch can be translated across several sessions.`,
}

var projectInitCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Create a project file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := project.New(args[0])
		p.SourceDir = projSourceDir
		p.TranslatedDir = projTranslatedDir
		p.TargetLang = projTargetLang
		if projChunkSize > 0 {
			p.ChunkSize = projChunkSize
		}
		if projSleep >= 0 {
			p.SleepSeconds = projSleep
		}

		if p.SourceDir != "" {
			if err := p.ScanSource(); err != nil {
				return err
			}
		}

		path := args[0] + project.Extension
		if err := p.Save(path); err != nil {
			return err
		}
		fmt.Printf("Created %s with %d files\n", path, len(p.Files))
		return nil
	},
}

var projectScanCmd = &cobra.Command{
	Use:   "scan <project-file>",
	Short: "Refresh a project's file list from its source directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project.Load(args[0])
		if err != nil {
			return err
		}
		if err := p.ScanSource(); err != nil {
			return err
		}
		if err := p.Save(args[0]); err != nil {
			return err
		}
		fmt.Printf("Scanned %s: %d files\n", p.SourceDir, len(p.Files))
		return nil
	},
}

var projectStatusCmd = &cobra.Command{
	Use:   "status <project-file>",
	Short: "Show a project's progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project.Load(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Project:        %s\n", p.Name)
		fmt.Printf("Source dir:     %s\n", p.SourceDir)
		fmt.Printf("Translated dir: %s\n", p.TranslatedDir)
		fmt.Printf("Target:         %s (%s column)\n", p.TargetLang, p.TargetColumn)
		fmt.Printf("Run params:     chunk %d, sleep %ds, %d retries\n", p.ChunkSize, p.SleepSeconds, p.MaxRetries)
		fmt.Printf("Files:          %d total, %d processed, %d failed, %d pending\n",
			len(p.Files), len(p.Processed), len(p.Failed), len(p.Pending()))

		for _, f := range p.Failed {
			fmt.Printf("  failed: %s\n", f)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)

	projectInitCmd.Flags().StringVar(&projSourceDir, "source-dir", "", "Directory with source CSV files")
	projectInitCmd.Flags().StringVar(&projTranslatedDir, "translated-dir", "", "Directory for translated output")
	projectInitCmd.Flags().StringVarP(&projTargetLang, "target", "t", "", "Target language code")
	projectInitCmd.Flags().IntVar(&projChunkSize, "chunk-size", 0, "Lines per request")
	projectInitCmd.Flags().IntVar(&projSleep, "sleep", -1, "Seconds between provider requests")

	projectCmd.AddCommand(projectInitCmd)
	projectCmd.AddCommand(projectScanCmd)
	projectCmd.AddCommand(projectStatusCmd)
}
