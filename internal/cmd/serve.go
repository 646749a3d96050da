package cmd

import (
	"github.com/spf13/cobra"

	"n5toc/internal/app"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the table of contents over HTTP",
		Long: `Serve the table of contents over HTTP. Every request to /toc or
/api/toc rescans the root directory, so the table is always current.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	addServeFlags(cmd)
	return cmd
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("listen", "", "Address the HTTP server binds to (default :9998)")
	cmd.Flags().Duration("scan-timeout", 0, "Longest a request waits for a scan, e.g. 90s (0 = no limit)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	application, err := app.New(cfg, nil, log)
	if err != nil {
		return err
	}
	return application.Run(cmd.Context())
}
