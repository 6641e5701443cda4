package cmd

import (
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/app"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/mcpserver"
	"github.com/spf13/cobra"
)

func MCPCmd() *cobra.Command {
	var userID string

	mcp := &cobra.Command{
		Use:   "mcp",
		Short: "Serve a user's MindVault data to MCP clients over stdio",
		Long: `Runs a Model Context Protocol server on stdin/stdout. All tools act on
the user given by --user: list_goals, search_transcriptions, get_daily_quote
and log_tracking_session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				_, err := a.UserService.ByID(userID)
				if err != nil {
					return err
				}

				return mcpserver.New(mcpserver.Services{
					Goals:    a.GoalService,
					Search:   a.SearchService,
					Quotes:   a.QuoteService,
					Tracking: a.TrackingService,
				}, userID).Serve(version)
			})
		},
	}
	mcp.Flags().StringVar(&userID, "user", "", "id of the user the tools act for")
	_ = mcp.MarkFlagRequired("user")

	return mcp
}
