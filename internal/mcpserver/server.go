// Package mcpserver exposes a user's goals, transcriptions, quotes and
// tracking to MCP clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/repository"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/search"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// Services is what the tools read and write through.
type Services struct {
	Goals    *service.GoalService
	Search   *search.Service
	Quotes   *service.QuoteService
	Tracking *service.TrackingService
}

// Server binds the tools to a single user. Every call is scoped to that user.
type Server struct {
	svc    Services
	userID string
}

func New(svc Services, userID string) *Server {
	return &Server{svc: svc, userID: userID}
}

// MCPServer registers the tools on a new MCP server.
func (s *Server) MCPServer(version string) *server.MCPServer {
	srv := server.NewMCPServer("mindvault", version, server.WithToolCapabilities(false))

	srv.AddTool(mcp.NewTool("list_goals",
		mcp.WithDescription("List the user's goals, optionally filtered by status."),
		mcp.WithString("status",
			mcp.Description("Only goals with this status"),
			mcp.Enum("active", "completed", "archived"),
		),
		mcp.WithString("parent_id", mcp.Description("Only direct sub-goals of this goal; \"root\" for top-level goals")),
	), s.listGoals)

	srv.AddTool(mcp.NewTool("search_transcriptions",
		mcp.WithDescription("Full-text search over the user's voice transcriptions."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Words to search for")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 10, max 50)")),
	), s.searchTranscriptions)

	srv.AddTool(mcp.NewTool("get_daily_quote",
		mcp.WithDescription("Today's motivational quote. Stable for the whole UTC day."),
	), s.dailyQuote)

	srv.AddTool(mcp.NewTool("log_tracking_session",
		mcp.WithDescription("Add time spent on a goal to the user's daily tracking."),
		mcp.WithString("goal_id", mcp.Required(), mcp.Description("Goal the time was spent on")),
		mcp.WithNumber("seconds", mcp.Required(), mcp.Description("Length of the session in seconds")),
		mcp.WithString("day", mcp.Description("Day as YYYY-MM-DD, defaults to today (UTC)")),
	), s.logTrackingSession)

	return srv
}

// Serve runs the server on stdin/stdout until the client disconnects.
func (s *Server) Serve(version string) error {
	return server.ServeStdio(s.MCPServer(version))
}

func (s *Server) listGoals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	goals, err := s.svc.Goals.List(s.userID, req.GetString("parent_id", ""), req.GetString("status", ""), "")
	if err != nil {
		return toolError(err)
	}
	return jsonResult(goals)
}

func (s *Server) searchTranscriptions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	limit := req.GetInt("limit", defaultSearchLimit)
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	resp := s.svc.Search.Search(search.Query{
		Text:       query,
		UserID:     s.userID,
		FilterType: search.ResultTranscription,
		Limit:      limit,
	})
	return jsonResult(resp)
}

func (s *Server) dailyQuote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	quote, err := s.svc.Quotes.Daily(ctx)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("%q (%s)", quote.Text, quote.Author)), nil
}

func (s *Server) logTrackingSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	goalID, err := req.RequireString("goal_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	seconds, err := req.RequireFloat("seconds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	row, err := s.svc.Tracking.RecordSession(s.userID, service.TrackingInput{
		GoalID:  goalID,
		Seconds: int64(seconds),
		Day:     req.GetString("day", ""),
	})
	if err != nil {
		return toolError(err)
	}
	return jsonResult(row)
}

// toolError reports client mistakes and missing records to the model; anything
// else fails the call.
func toolError(err error) (*mcp.CallToolResult, error) {
	var input *service.InputError
	if errors.As(err, &input) || isNotFound(err) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrGoalNotFound) ||
		errors.Is(err, repository.ErrQuoteNotFound) ||
		errors.Is(err, repository.ErrTranscriptionNotFound)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
