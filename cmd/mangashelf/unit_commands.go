package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mangashelf/internal/ingestion"
	"mangashelf/internal/library"
)

func newUnitCommand(ctx *commandContext) *cobra.Command {
	unitCmd := &cobra.Command{
		Use:   "unit",
		Short: "Inspect and remove units",
	}
	unitCmd.AddCommand(newUnitPagesCommand(ctx))
	unitCmd.AddCommand(newUnitRemoveCommand(ctx))
	return unitCmd
}

func newUnitPagesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "pages UNIT",
		Short: "List a unit's pages in reading order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *library.Store) error {
				unit, err := store.GetUnit(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				pages, err := store.ListPages(cmd.Context(), unit.ID)
				if err != nil {
					return err
				}
				if asJSON {
					if pages == nil {
						pages = []*library.Page{}
					}
					return writeJSON(cmd, pages)
				}
				rows := make([][]string, 0, len(pages))
				for _, page := range pages {
					rows = append(rows, []string{strconv.Itoa(page.Index + 1), string(page.SourceType), pageLocation(page)})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]column{
					{header: "Page", align: alignRight},
					{header: "Source"},
					{header: "Reference"},
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func pageLocation(page *library.Page) string {
	if page.SourceType == library.SourceDocumentPage {
		return fmt.Sprintf("%s (page %d)", page.DocumentRef, page.DocumentPage+1)
	}
	return page.ImageRef
}

func newUnitRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove UNIT",
		Aliases: []string{"rm"},
		Short:   "Remove a unit and its pages",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withIngestion(func(p *ingestion.Pipeline, _ *library.Store) error {
				if err := p.DeleteUnit(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed unit %s\n", args[0])
				return nil
			})
		},
	}
}
