package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "visionxtract",
	Short: "Document extraction service with unified inter-module dispatch",
	Long: `VisionXtract serves the built-in document processing modules
(ocr, llm_judge) behind one HTTP API and routes calls between them
in-process when possible, over HTTP when not.

Quick start:
  visionxtract serve     # Start the server
  visionxtract validate  # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "visionxtract.yaml", "config file path")
}
