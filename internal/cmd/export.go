package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"n5toc/internal/app"
)

// NewExportCommand creates the export command
func NewExportCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Scan once and write the result to a SQLite database",
		Long: `Scan the root directory once and store the report in a SQLite
database. Every export adds a new scan; earlier scans are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				return errors.New("--db is required")
			}

			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			application, err := app.New(cfg, nil, log)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			report, err := application.Export(ctx, dbPath)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", report.ID)
			writeSummary(cmd.ErrOrStderr(), report)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Path to the SQLite database file")
	return cmd
}
