package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mangashelf/internal/ingestion"
	"mangashelf/internal/library"
	"mangashelf/internal/notifications"
)

func newItemCommand(ctx *commandContext) *cobra.Command {
	itemCmd := &cobra.Command{
		Use:   "item",
		Short: "Create, inspect, and remove library items",
	}

	itemCmd.AddCommand(newItemAddCommand(ctx))
	itemCmd.AddCommand(newItemAppendCommand(ctx))
	itemCmd.AddCommand(newItemListCommand(ctx))
	itemCmd.AddCommand(newItemShowCommand(ctx))
	itemCmd.AddCommand(newItemRemoveCommand(ctx))

	return itemCmd
}

// pageSource holds the mutually exclusive --image/--document flags shared by
// add and append. Positional arguments count as images.
type pageSource struct {
	images   []string
	document string
}

func (s *pageSource) bind(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&s.images, "image", "i", nil, "Page image (repeatable, in page order)")
	cmd.Flags().StringVarP(&s.document, "document", "d", "", "Paginated document (PDF, CBZ, EPUB)")
	cmd.MarkFlagsMutuallyExclusive("image", "document")
}

func (s *pageSource) resolve(args []string) ([]string, string, error) {
	images := append(append([]string(nil), s.images...), args...)
	if s.document != "" && len(images) > 0 {
		return nil, "", errors.New("use either images or --document, not both")
	}
	if s.document == "" && len(images) == 0 {
		return nil, "", errors.New("no pages given: pass image paths or --document")
	}
	return images, s.document, nil
}

func newItemAddCommand(ctx *commandContext) *cobra.Command {
	var in ingestion.ItemInput
	var source pageSource
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "add [IMAGE...]",
		Short: "Create an item from page images or a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			images, document, err := source.resolve(args)
			if err != nil {
				return err
			}
			return ctx.withIngestion(func(p *ingestion.Pipeline, store *library.Store) error {
				var itemID string
				if document != "" {
					itemID, err = p.CreateItemFromDocument(cmd.Context(), in, document)
				} else {
					itemID, err = p.CreateItemFromImages(cmd.Context(), in, images)
				}
				if err != nil {
					return err
				}
				item, err := store.GetItem(cmd.Context(), itemID)
				if err != nil {
					return err
				}
				ctx.notify(cmd.Context(), func(nctx context.Context, svc notifications.Service) error {
					return svc.NotifyItemAdded(nctx, item.Title, countPages(nctx, store, item.ID))
				})
				if asJSON {
					return writeJSON(cmd, item)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created item %s (%q, %s)\n", item.ID, item.Title, item.Description)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "Item title (defaults to library.default_title)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Item description")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	source.bind(cmd)
	return cmd
}

func newItemAppendCommand(ctx *commandContext) *cobra.Command {
	var source pageSource

	cmd := &cobra.Command{
		Use:   "append ITEM [IMAGE...]",
		Short: "Append the next unit to an item",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID := args[0]
			images, document, err := source.resolve(args[1:])
			if err != nil {
				return err
			}
			return ctx.withIngestion(func(p *ingestion.Pipeline, store *library.Store) error {
				var unitID string
				if document != "" {
					unitID, err = p.AppendUnitFromDocument(cmd.Context(), itemID, document)
				} else {
					unitID, err = p.AppendUnitFromImages(cmd.Context(), itemID, images)
				}
				if err != nil {
					return err
				}
				unit, err := store.GetUnit(cmd.Context(), unitID)
				if err != nil {
					return err
				}
				ctx.notify(cmd.Context(), func(nctx context.Context, svc notifications.Service) error {
					item, err := store.GetItem(nctx, itemID)
					if err != nil {
						return err
					}
					return svc.NotifyUnitAppended(nctx, item.Title, unit.SequenceNumber, unit.PageCount)
				})
				fmt.Fprintf(cmd.OutOrStdout(), "Appended unit %s (#%d, %d pages) to item %s\n",
					unit.ID, unit.SequenceNumber, unit.PageCount, itemID)
				return nil
			})
		},
	}
	source.bind(cmd)
	return cmd
}

func newItemListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *library.Store) error {
				items, err := store.ListItems(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					if items == nil {
						items = []*library.Item{}
					}
					return writeJSON(cmd, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Library is empty")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{item.ID, item.Title, strconv.Itoa(item.UnitCount), formatTime(item.CreatedAt)})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]column{
					{header: "ID"},
					{header: "Title", maxWidth: 40},
					{header: "Units", align: alignRight},
					{header: "Created"},
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

type itemDetail struct {
	*library.Item
	Units []*library.Unit `json:"units"`
}

func newItemShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show ITEM",
		Short: "Show an item and its units",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *library.Store) error {
				item, err := store.GetItem(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				units, err := store.ListUnits(cmd.Context(), item.ID)
				if err != nil {
					return err
				}
				if asJSON {
					if units == nil {
						units = []*library.Unit{}
					}
					return writeJSON(cmd, itemDetail{Item: item, Units: units})
				}

				out := cmd.OutOrStdout()
				heading(out, item.Title)
				fmt.Fprintf(out, "ID:          %s\n", item.ID)
				fmt.Fprintf(out, "Description: %s\n", orDash(item.Description))
				fmt.Fprintf(out, "Cover:       %s\n", orDash(item.CoverRef))
				fmt.Fprintf(out, "Created:     %s\n", formatTime(item.CreatedAt))
				if len(units) == 0 {
					fmt.Fprintln(out, "No units")
					return nil
				}
				rows := make([][]string, 0, len(units))
				for _, u := range units {
					rows = append(rows, []string{strconv.Itoa(u.SequenceNumber), u.ID, orDash(u.Title), strconv.Itoa(u.PageCount)})
				}
				fmt.Fprint(out, renderTable([]column{
					{header: "#", align: alignRight},
					{header: "Unit ID"},
					{header: "Title", maxWidth: 30},
					{header: "Pages", align: alignRight},
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newItemRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove ITEM",
		Aliases: []string{"rm"},
		Short:   "Remove an item with all of its units and pages",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withIngestion(func(p *ingestion.Pipeline, _ *library.Store) error {
				if err := p.DeleteItem(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed item %s\n", args[0])
				return nil
			})
		},
	}
}

func countPages(ctx context.Context, store *library.Store, itemID string) int {
	units, err := store.ListUnits(ctx, itemID)
	if err != nil {
		return 0
	}
	total := 0
	for _, u := range units {
		total += u.PageCount
	}
	return total
}
