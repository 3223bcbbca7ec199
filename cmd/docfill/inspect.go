package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/benjaminschreck/docfill/pkg/docfill"
)

func newInspectCmd() *cobra.Command {
	var (
		asJSON bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "inspect <template>",
		Short: "List the placeholders of a template",
		Long: `inspect lists every placeholder of a template with the command that
handles it. Unknown keys get a suggestion, and malformed placeholders make
the command fail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			config.CacheMaxSize = 0
			eng := docfill.NewWithOptions(docfill.WithConfig(config), docfill.WithLogger(logger))
			defer eng.Close()

			f := &filler{eng: eng, template: args[0], opts: fillOptions{format: format}}
			tmpl, err := f.loadTemplate()
			if err != nil {
				return err
			}
			report, inspectErr := eng.Inspect(tmpl)
			if report == nil {
				return inspectErr
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else if err := printReport(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			return inspectErr
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Template format when the extension does not tell")
	return cmd
}

func printReport(w io.Writer, report *docfill.Report) error {
	fmt.Fprintf(w, "%s (%s): %d placeholder(s)\n\n", report.Template, report.Format, len(report.Placeholders))
	if len(report.Placeholders) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PART\tPLACEHOLDER\tSTATUS")
	for _, p := range report.Placeholders {
		status := "ok"
		switch {
		case p.Error != "":
			status = "error: " + p.Error
		case !p.Known && p.Hint != "":
			status = fmt.Sprintf("unknown, did you mean '%s'?", p.Hint)
		case !p.Known:
			status = "unknown"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", p.Part, p.Raw, status)
	}
	return tw.Flush()
}
