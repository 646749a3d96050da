package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"n5toc/internal/app"
	"n5toc/internal/toc"
)

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan once and print the table of contents",
		Long: `Scan the root directory once and print one row per N5 volume.
With --json the full report, including skipped files, is written instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			application, err := app.New(cfg, nil, log)
			if err != nil {
				return err
			}
			report, err := application.Scan()
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			if err := writeTable(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			writeSummary(cmd.ErrOrStderr(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Write the report as JSON")
	return cmd
}

// writeTable aligns the rows first and colors the header afterwards, since
// escape sequences would skew the column widths.
func writeTable(out io.Writer, report *toc.Report) error {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SAMPLE\tSTAGE\tSECTION\tVERSION\tOFFSET\tNAME")
	for _, e := range report.Sorted() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", e.Sample, e.Stage, e.Section, e.Version, e.Offset, e.Name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	header, rows, _ := strings.Cut(buf.String(), "\n")
	if _, err := color.New(color.Bold).Fprintln(out, header); err != nil {
		return err
	}
	_, err := io.WriteString(out, rows)
	return err
}

func writeSummary(out io.Writer, report *toc.Report) {
	fmt.Fprintf(out, "%s volumes from %s metadata files in %s (%s not volumes)\n",
		humanize.Comma(int64(len(report.Entries))),
		humanize.Comma(int64(report.Candidates)),
		report.Duration().Round(time.Millisecond),
		humanize.Comma(int64(report.NonVolumes)))

	if len(report.Issues) == 0 {
		return
	}
	var kinds []string
	for _, kind := range toc.IssueKinds {
		if n := report.Count(kind); n > 0 {
			kinds = append(kinds, fmt.Sprintf("%s %d", kind, n))
		}
	}
	warn := color.New(color.FgYellow)
	warn.Fprintf(out, "%s files skipped or incomplete (%s):\n",
		humanize.Comma(int64(len(report.Issues))), strings.Join(kinds, ", "))
	for _, issue := range report.Issues {
		fmt.Fprintf(out, "  [%s] %s: %s\n", issue.Kind, issue.Path, issue.Err)
	}
}
