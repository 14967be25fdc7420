package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mangashelf/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var opts preflight.Options
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, database, and model endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, opts)
			if asJSON {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					status := paint(colorize, ansiGreen, "ok")
					if !r.Passed {
						status = paint(colorize, ansiRed, "FAIL")
					}
					rows = append(rows, []string{r.Name, status, r.Detail})
				}
				fmt.Fprint(out, renderTable([]column{
					{header: "Check"},
					{header: "Status"},
					{header: "Detail", maxWidth: 70},
				}, rows))
			}
			if preflight.Failed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.SkipNetwork, "offline", false, "Skip checks that contact model endpoints")
	cmd.Flags().StringVar(&opts.SampleDocument, "document", "", "Count pages of this document to verify document support")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
