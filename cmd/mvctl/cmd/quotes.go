package cmd

import (
	"fmt"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/app"
	"github.com/spf13/cobra"
)

func QuotesCmd() *cobra.Command {
	quotes := &cobra.Command{
		Use:   "quotes",
		Short: "Inspect the motivational quote catalog",
	}

	var category string
	list := &cobra.Command{
		Use:   "list",
		Short: "List quotes, optionally by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				all, err := a.QuoteService.List(category)
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(all))
				for _, q := range all {
					rows = append(rows, []string{q.Category, q.Author, q.Text})
				}
				fmt.Println(renderTable([]string{"Category", "Author", "Quote"}, rows, 72))
				fmt.Println(mutedStyle.Render(fmt.Sprintf("%d quotes", len(all))))
				return nil
			})
		},
	}
	list.Flags().StringVar(&category, "category", "", "only quotes in this category")

	var refresh bool
	daily := &cobra.Command{
		Use:   "daily",
		Short: "Print today's quote",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				if refresh {
					if err := a.QuoteService.ResetDaily(cmd.Context()); err != nil {
						return err
					}
				}
				q, err := a.QuoteService.Daily(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Println(titleStyle.Render(q.Text))
				fmt.Println(mutedStyle.Render("  " + q.Author))
				return nil
			})
		},
	}

	daily.Flags().BoolVar(&refresh, "refresh", false, "drop the cached quote after editing the catalog")

	quotes.AddCommand(list, daily)
	return quotes
}
