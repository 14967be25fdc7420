package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mangashelf/internal/fileutil"
	"mangashelf/internal/history"
	"mangashelf/internal/library"
	"mangashelf/internal/textutil"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Read and export past translations",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryExportCommand(ctx))
	historyCmd.AddCommand(newHistoryImportCommand(ctx))
	historyCmd.AddCommand(newHistoryWatchCommand(ctx))
	return historyCmd
}

func historyRows(records []*library.HistoryRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			formatTime(rec.Timestamp),
			fmt.Sprintf("%s→%s", orDash(rec.SourceLanguage), orDash(rec.TargetLanguage)),
			textutil.Truncate(rec.RecognizedText, 60),
			textutil.Truncate(rec.TranslatedText, 60),
		})
	}
	return rows
}

var historyColumns = []column{
	{header: "When"},
	{header: "Lang"},
	{header: "Recognized", maxWidth: 40},
	{header: "Translated", maxWidth: 40},
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List translations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *library.Store) error {
				records, err := history.New(store).List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					if records == nil {
						records = []*library.HistoryRecord{}
					}
					return writeJSON(cmd, records)
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No history yet")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(historyColumns, historyRows(records)))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum records to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newHistoryExportCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full history as YAML or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := history.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *library.Store) error {
				log := history.New(store)
				if outputPath == "" {
					_, err := log.Export(cmd.Context(), cmd.OutOrStdout(), format)
					return err
				}
				var n int
				err := fileutil.WriteAtomic(outputPath, 0o644, func(w io.Writer) error {
					var err error
					n, err = log.Export(cmd.Context(), w, format)
					return err
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d record(s) to %s\n", n, outputPath)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "yaml", "Export format (yaml or json)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func newHistoryImportCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Append records from a history export (\"-\" reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := formatFlag
			if name == "" {
				name = importFormatFor(args[0])
			}
			format, err := history.ParseFormat(name)
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open export: %w", err)
				}
				defer f.Close()
				in = f
			}
			records, err := history.Import(in, format)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *library.Store) error {
				n, err := history.New(store).Append(cmd.Context(), records)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d record(s)\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Input format (yaml or json, default from file extension)")
	return cmd
}

func importFormatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}

func newHistoryWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print translations as they are recorded",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *library.Store) error {
				updates, err := history.New(store).Watch(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				seen := make(map[string]struct{})
				first := true
				for snapshot := range updates {
					var fresh []*library.HistoryRecord
					for _, rec := range snapshot {
						if _, ok := seen[rec.ID]; ok {
							continue
						}
						seen[rec.ID] = struct{}{}
						fresh = append(fresh, rec)
					}
					if first {
						first = false
						fmt.Fprintf(out, "Watching history (%d existing records); press Ctrl+C to stop\n", len(snapshot))
						continue
					}
					// Snapshots are newest first; print oldest first.
					for i := len(fresh) - 1; i >= 0; i-- {
						rec := fresh[i]
						fmt.Fprintf(out, "[%s] %s→%s\n  %s\n  %s\n", formatTime(rec.Timestamp),
							orDash(rec.SourceLanguage), orDash(rec.TargetLanguage), rec.RecognizedText, rec.TranslatedText)
					}
				}
				return nil
			})
		},
	}
}
