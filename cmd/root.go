// Copyright © 2025 The typls authors

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	colorFlag string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "typls",
	Short: "typls is a Typst language server and document toolchain",
	Long: `typls is a language server and command-line toolchain for Typst
documents, implemented in Go.

Getting started:
  typls lsp                    Start the language server on stdio
  typls compile main.typ       Compile a document to PDF
  typls watch main.typ         Recompile whenever a source file changes
  typls fmt file.typ           Format Typst markup
  typls lint file.typ          Run static checks on Typst sources
  typls doc heading            Show standard-library documentation
  typls fonts                  List the fonts the compiler can see

The language server speaks LSP 3.16 and provides diagnostics as you
type, completion, hover documentation, signature help, document and
workspace symbols, semantic tokens, folding, formatting, and on-save
PDF export. Editors configure it with "typls lsp --stdio".

Per-workspace behavior is controlled with initialization options or a
didChangeConfiguration payload under the "typst-lsp" key:
  exportPdf         "never", "onSave" (default), or "onType"
  outputRoot        "source" (default), "workspace", or "absolute"
  outputPath        Subdirectory or directory for exported PDFs
  semanticTokens    "enable" (default) or "disable"
  positionEncoding  "utf-16" (default) or "utf-8"
  fontPaths         Extra directories to scan for fonts

More information:
  Source code:     https://github.com/typls/typls`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.typls.yaml)")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto",
		`Control colored output: "auto", "always", or "never".`)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".typls" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".typls")
	}

	viper.SetEnvPrefix("typls")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
