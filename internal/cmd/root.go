/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

const version = "1.1.0"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "csv-notes [file]",
	Short: "Turn spreadsheet rows into markdown notes",
	Long: `csv-notes converts each row of a CSV or XLSX file into its own markdown
note, with the row's values stored as YAML frontmatter.

Pointed at a file, it walks through column selection, note naming, and an
interactive preview before anything is written. Every file the tool creates
is logged so a whole session can be reversed with csv-notes undo.`,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runGenerateCommand,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var noLog bool

func init() {
	// Global flags for all commands
	rootCmd.PersistentFlags().BoolVar(&noLog, "no-log", false, "Disable operation logging for this run")
}
