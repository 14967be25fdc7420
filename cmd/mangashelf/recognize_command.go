package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mangashelf/internal/workflow"
)

func newRecognizeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "recognize IMAGE...",
		Short: "Recognize and translate page images",
		Long: `Recognize submits each image in order. A later image supersedes an earlier one
that is still running, so only the latest result is printed. Every run that
finishes translating is saved to history.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkflow(cmd.Context(), func(m *workflow.Manager) error {
				if !quiet && !asJSON {
					stop := m.AddObserver(progressPrinter(cmd))
					defer stop()
				}

				var ticket workflow.Ticket
				for _, ref := range args {
					var err error
					ticket, err = m.Submit(cmd.Context(), workflow.Submission{ImageRef: ref})
					if err != nil {
						return err
					}
				}

				ev, err := m.Wait(cmd.Context(), ticket)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, ev)
				}
				return printResult(cmd, ev)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the final event as JSON")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print progress")
	return cmd
}

func progressPrinter(cmd *cobra.Command) workflow.Observer {
	w := cmd.ErrOrStderr()
	return workflow.ObserverFunc(func(ev workflow.Event) {
		switch ev.State {
		case workflow.StateRecognizing:
			fmt.Fprintf(w, "[%d] recognizing %s\n", ev.Generation, ev.ImageRef)
		case workflow.StateLanguageDetecting:
			fmt.Fprintf(w, "[%d] detecting language\n", ev.Generation)
		case workflow.StateTranslating:
			note := ""
			if ev.UsedFallback {
				note = " (language undetermined, using default)"
			}
			fmt.Fprintf(w, "[%d] translating %s→%s%s\n", ev.Generation, ev.SourceLanguage, ev.TargetLanguage, note)
		}
	})
}

func printResult(cmd *cobra.Command, ev workflow.Event) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	if ev.State == workflow.StateFailed {
		fmt.Fprintln(out, paint(colorize, ansiRed, "Failed: "+ev.FailureMessage))
		return errors.New(ev.FailureKind)
	}
	heading(out, ev.ImageRef)
	if ev.RecognizedText == "" {
		fmt.Fprintln(out, "No text found on this page")
		return nil
	}
	fmt.Fprintf(out, "%s\n%s\n\n", paint(colorize, ansiBold, "Recognized ("+ev.SourceLanguage+"):"), ev.RecognizedText)
	fmt.Fprintf(out, "%s\n%s\n", paint(colorize, ansiGreen, "Translated ("+ev.TargetLanguage+"):"), ev.TranslatedText)
	return nil
}
