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

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "rowlate",
	Short: "Row-aligned CSV translator driven by LLMs",
	Long: `rowlate translates the text column of CSV files row by row using LLM
providers, keeping every translation aligned with its source row.

Rows are sent in chunks, responses are parsed and repaired from JSON, and
validated results are written into quality-tier columns (Initial, Machine
translation, Better translation, Best translation).

Use "rowlate translate --help" for translation options.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./rowlate.yaml)")
	rootCmd.PersistentFlags().String("db", "./data/rowlate.db", "Database path for memory, checkpoints, and glossary")
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
}

// initConfig loads .env and the optional config file, and binds ROWLATE_*
// environment variables. API keys are usually supplied this way rather than
// as flags.
func initConfig() {
	// .env is optional; ignore a missing file.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("rowlate")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ROWLATE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
