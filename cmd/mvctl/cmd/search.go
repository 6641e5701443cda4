package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/app"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/search"
	"github.com/spf13/cobra"
)

func SearchCmd() *cobra.Command {
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Manage the Meilisearch indexes",
	}

	searchCmd.AddCommand(&cobra.Command{
		Use:   "reindex",
		Short: "Push every goal and transcription to Meilisearch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				start := time.Now()

				goals, err := a.GoalRepository.All()
				if err != nil {
					return fmt.Errorf("failed to load goals: %w", err)
				}
				transcriptions, err := a.TranscriptionRepository.All()
				if err != nil {
					return fmt.Errorf("failed to load transcriptions: %w", err)
				}

				err = a.SearchService.ReindexAll(goals, transcriptions)
				if errors.Is(err, search.ErrSearchUnavailable) {
					fmt.Println(errorStyle.Render("meilisearch is not configured or not reachable (set MEILI_URL)"))
					return err
				}
				if err != nil {
					return err
				}

				fmt.Println(successStyle.Render(fmt.Sprintf("indexed %d goals and %d transcriptions", len(goals), len(transcriptions))),
					mutedStyle.Render(time.Since(start).Round(time.Millisecond).String()))
				return nil
			})
		},
	})

	return searchCmd
}
