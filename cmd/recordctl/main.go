package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:                   "recordctl",
	Short:                 "Inspect the file catalogue and exported parquet files as records",
	DisableFlagsInUseLine: true,
	SilenceUsage:          true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output-format", "f", DefaultOutputFormat, "Output format. Supported formats: text, csv, json")
	rootCmd.AddCommand(buildQueryCommand())
	rootCmd.AddCommand(buildReadCommand())
	rootCmd.AddCommand(buildMigrateCommand())
	rootCmd.AddCommand(buildGlobCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
