package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kpr/internal/services"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	flags := &loanFlags{}
	var format, out string

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Write the month-by-month schedule as PDF or XLSX",
		Example: "  kprctl export --price 500000000 --dp 100000000 --tenor 15 --rate 1 --format xlsx --out schedule.xlsx",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := services.ExportFormat(format)
			if f != services.ExportPDF && f != services.ExportXLSX {
				return fmt.Errorf("--format must be pdf or xlsx, got %q", format)
			}
			req, err := flags.request()
			if err != nil {
				return err
			}
			calc, err := opts.calculator()
			if err != nil {
				return err
			}
			doc, err := calc.ExportSchedule(req, f)
			if err != nil {
				return err
			}
			if out == "" {
				out = "kpr-schedule." + format
			}
			if err := os.WriteFile(out, doc, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(doc))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "pdf", "Document format: pdf or xlsx")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default kpr-schedule.<format>)")
	return cmd
}
