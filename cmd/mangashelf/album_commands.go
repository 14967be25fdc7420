package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mangashelf/internal/library"
)

func newAlbumCommand(ctx *commandContext) *cobra.Command {
	albumCmd := &cobra.Command{
		Use:   "album",
		Short: "Group units from any item into named albums",
	}

	albumCmd.AddCommand(newAlbumCreateCommand(ctx))
	albumCmd.AddCommand(newAlbumAddCommand(ctx))
	albumCmd.AddCommand(newAlbumListCommand(ctx))
	albumCmd.AddCommand(newAlbumShowCommand(ctx))
	albumCmd.AddCommand(newAlbumRemoveCommand(ctx))

	return albumCmd
}

func newAlbumCreateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create an empty album",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *library.Store) error {
				album, err := store.CreateAlbum(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created album %s (%q)\n", album.ID, album.Name)
				return nil
			})
		},
	}
}

func newAlbumAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add ALBUM UNIT...",
		Short: "Add units to an album, skipping ones already present",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *library.Store) error {
				added, skipped, err := store.AddUnitsToAlbum(cmd.Context(), args[0], args[1:])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d unit(s), skipped %d already in album\n", added, skipped)
				return nil
			})
		},
	}
}

func newAlbumListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List albums",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *library.Store) error {
				albums, err := store.ListAlbums(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					if albums == nil {
						albums = []*library.Album{}
					}
					return writeJSON(cmd, albums)
				}
				if len(albums) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No albums")
					return nil
				}
				rows := make([][]string, 0, len(albums))
				for _, a := range albums {
					rows = append(rows, []string{a.ID, a.Name, strconv.Itoa(a.UnitCount), formatTime(a.CreatedAt)})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]column{
					{header: "ID"},
					{header: "Name", maxWidth: 40},
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

func newAlbumShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show ALBUM",
		Short: "List the units in an album",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *library.Store) error {
				album, err := store.GetAlbum(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				entries, err := store.ListAlbumUnits(cmd.Context(), album.ID)
				if err != nil {
					return err
				}
				if asJSON {
					if entries == nil {
						entries = []*library.AlbumEntry{}
					}
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				heading(out, album.Name)
				if len(entries) == 0 {
					fmt.Fprintln(out, "Album is empty")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.ItemTitle,
						strconv.Itoa(e.Unit.SequenceNumber),
						e.Unit.ID,
						strconv.Itoa(e.Unit.PageCount),
						formatTime(e.AddedAt),
					})
				}
				fmt.Fprint(out, renderTable([]column{
					{header: "Item", maxWidth: 30},
					{header: "#", align: alignRight},
					{header: "Unit ID"},
					{header: "Pages", align: alignRight},
					{header: "Added"},
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newAlbumRemoveCommand(ctx *commandContext) *cobra.Command {
	var unitID string

	cmd := &cobra.Command{
		Use:     "remove ALBUM",
		Aliases: []string{"rm"},
		Short:   "Delete an album, or with --unit take one unit out of it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *library.Store) error {
				if unitID != "" {
					if err := store.RemoveUnitFromAlbum(cmd.Context(), args[0], unitID); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed unit %s from album %s\n", unitID, args[0])
					return nil
				}
				if err := store.DeleteAlbum(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed album %s (units kept)\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&unitID, "unit", "", "Remove only this unit from the album")
	return cmd
}
