package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/app"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/export"
	"github.com/spf13/cobra"
)

type exportFlags struct {
	userID string
	format string
	out    string
}

func ExportCmd() *cobra.Command {
	var flags exportFlags

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Render a goal or transcription to PDF or HTML",
	}
	exportCmd.PersistentFlags().StringVar(&flags.userID, "user", "", "id of the owning user")
	exportCmd.PersistentFlags().StringVar(&flags.format, "format", "pdf", "pdf or html")
	exportCmd.PersistentFlags().StringVarP(&flags.out, "out", "o", "", "output file (default: the generated filename)")
	_ = exportCmd.MarkPersistentFlagRequired("user")

	exportCmd.AddCommand(&cobra.Command{
		Use:   "transcription <id>",
		Short: "Export one transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags, func(a *app.App, format export.Format) (*export.Result, error) {
				return a.ExportService.ExportTranscription(cmd.Context(), flags.userID, args[0], format)
			})
		},
	})

	exportCmd.AddCommand(&cobra.Command{
		Use:   "goal <id>",
		Short: "Export a goal with its journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags, func(a *app.App, format export.Format) (*export.Result, error) {
				return a.ExportService.ExportGoal(cmd.Context(), flags.userID, args[0], format)
			})
		},
	})

	return exportCmd
}

func runExport(cmd *cobra.Command, flags exportFlags, render func(a *app.App, format export.Format) (*export.Result, error)) error {
	format, err := export.ParseFormat(flags.format)
	if err != nil {
		return err
	}

	return withApp(cmd, func(a *app.App) error {
		result, err := render(a, format)
		if errors.Is(err, export.ErrPDFDependencyMissing) {
			fmt.Println(errorStyle.Render("no Chrome or Chromium found; install one, set CHROME_PATH or use --format html"))
			return err
		}
		if err != nil {
			return err
		}

		path := flags.out
		if path == "" {
			path = result.Filename
		}
		err = os.WriteFile(path, result.Data, 0o644)
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		fmt.Println(successStyle.Render("wrote "+path), mutedStyle.Render(fmt.Sprintf("(%d bytes, %s)", len(result.Data), result.MimeType)))
		return nil
	})
}
