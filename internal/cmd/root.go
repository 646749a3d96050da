package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for n5toc
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "n5toc",
		Short: "Table of contents for N5 volumes",
		Long: `n5toc walks a directory tree of N5 volumes and publishes a table of
contents with one row per volume and neuroglancer links for each.

Run without a subcommand to serve the table over HTTP.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (YAML)")
	cmd.PersistentFlags().String("root-dir", "", "Directory searched for N5 volumes")
	cmd.PersistentFlags().StringArray("exclude", nil, "Directory name pattern to skip (repeatable)")
	cmd.PersistentFlags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
	addServeFlags(cmd)

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewScanCommand())
	cmd.AddCommand(NewExportCommand())

	return cmd
}
