package export

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/markdown"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/metrics"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/repository"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/storage"
)

// Bulk exports stop at this many entries.
const maxBulkEntries = 500

type GoalSource interface {
	ByID(userID, goalID string) (*model.Goal, error)
	Goals(userID string, filter repository.GoalFilter) ([]*model.Goal, error)
}

type TranscriptionSource interface {
	ByID(userID, id string) (*model.Transcription, error)
	Transcriptions(userID string, filter repository.TranscriptionFilter) ([]*model.Transcription, error)
}

type TrackingSource interface {
	Summary(userID string, filter repository.TrackingFilter) ([]*model.TrackingSummary, error)
}

type UserSource interface {
	ByID(id string) (*model.User, error)
}

type FileSource interface {
	ByFilename(filename string) (*model.File, error)
}

// ActivityRecorder logs the export for the user's activity feed.
type ActivityRecorder interface {
	Log(userID, activityType string, goalID, entityID *string, metadata map[string]any)
}

type Options struct {
	AppURL     string
	ChromePath string
	Timeout    time.Duration
	// ImageTimeout bounds each remote image download. Zero means 5s.
	ImageTimeout time.Duration
}

type Sources struct {
	Goals          GoalSource
	Transcriptions TranscriptionSource
	Tracking       TrackingSource
	Users          UserSource
	Files          FileSource
}

// Service provides goal and transcription export
type Service struct {
	goals          GoalSource
	transcriptions TranscriptionSource
	tracking       TrackingSource
	users          UserSource
	files          FileSource
	storage        storage.Storage
	markdown       *markdown.Renderer
	activity       ActivityRecorder
	opts           Options
	httpClient     *http.Client

	// printPDF is swapped in tests
	printPDF func(ctx context.Context, html string) ([]byte, error)
}

func NewService(src Sources, store storage.Storage, activity ActivityRecorder, opts Options) *Service {
	s := &Service{
		goals:          src.Goals,
		transcriptions: src.Transcriptions,
		tracking:       src.Tracking,
		users:          src.Users,
		files:          src.Files,
		storage:        store,
		markdown:       markdown.NewRenderer(),
		activity:       activity,
		opts:           opts,
		httpClient:     &http.Client{},
	}
	s.printPDF = func(ctx context.Context, html string) ([]byte, error) {
		return chromePDF(ctx, opts.ChromePath, opts.Timeout, html)
	}
	return s
}

func (s *Service) ExportTranscription(ctx context.Context, userID, id string, format Format) (*Result, error) {
	t, err := s.transcriptions.ByID(userID, id)
	if err != nil {
		return nil, err
	}

	data := s.baseData(userID, titleOr(t.Title, "Transcription"))
	data.Subtitle = t.CreatedAt.Format("January 2, 2006")
	data.Entries = []EntrySection{s.entry(ctx, userID, t)}

	return s.finish(ctx, userID, data, format, nil, &t.ID, "transcription")
}

func (s *Service) ExportGoal(ctx context.Context, userID, id string, format Format) (*Result, error) {
	goal, err := s.goals.ByID(userID, id)
	if err != nil {
		return nil, err
	}

	section := &GoalSection{
		Status:      goal.Status,
		TargetDate:  goal.TargetDate,
		CompletedAt: goal.CompletedAt,
	}

	if goal.Description != "" {
		html, err := s.markdown.Render(goal.Description)
		if err != nil {
			return nil, fmt.Errorf("failed to render goal description: %w", err)
		}
		section.DescriptionHTML = html
	}

	journal := goal.Journal()
	if journal.Notes != "" {
		html, err := s.markdown.Render(journal.Notes)
		if err != nil {
			return nil, fmt.Errorf("failed to render goal notes: %w", err)
		}
		section.NotesHTML = html
	}
	section.Media = s.resolveMedia(ctx, userID, journal.Media)
	for _, e := range journal.Entries {
		section.Journal = append(section.Journal, JournalSection{
			Date:  e.Date,
			Text:  e.Text,
			Media: s.resolveMedia(ctx, userID, e.Media),
		})
	}

	subGoals, err := s.goals.Goals(userID, repository.GoalFilter{ParentID: goal.ID, Sort: repository.GoalSortTitle})
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-goals: %w", err)
	}
	section.SubGoals = subGoals

	if s.tracking != nil {
		summaries, err := s.tracking.Summary(userID, repository.TrackingFilter{GoalID: goal.ID})
		if err != nil {
			slog.Warn("export tracking summary unavailable", "error", err, "goal_id", goal.ID)
		} else if len(summaries) > 0 {
			section.Tracking = summaries[0]
		}
	}

	list, err := s.transcriptions.Transcriptions(userID, repository.TranscriptionFilter{GoalID: goal.ID, Limit: maxBulkEntries})
	if err != nil {
		return nil, fmt.Errorf("failed to list goal transcriptions: %w", err)
	}

	data := s.baseData(userID, goal.Title)
	data.Goal = section
	for _, t := range list {
		data.Entries = append(data.Entries, s.entry(ctx, userID, t))
	}

	return s.finish(ctx, userID, data, format, &goal.ID, &goal.ID, "goal")
}

func (s *Service) ExportTranscriptions(ctx context.Context, userID string, filter BulkFilter, format Format) (*Result, error) {
	title := "Transcriptions"
	var goalID *string
	if filter.GoalID != "" {
		goal, err := s.goals.ByID(userID, filter.GoalID)
		if err != nil {
			return nil, err
		}
		title = goal.Title + " - Transcriptions"
		goalID = &goal.ID
	}

	list, err := s.transcriptions.Transcriptions(userID, repository.TranscriptionFilter{
		GoalID: filter.GoalID,
		From:   filter.From,
		To:     filter.To,
		Limit:  maxBulkEntries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transcriptions: %w", err)
	}
	if len(list) == 0 {
		return nil, ErrNothingToExport
	}

	data := s.baseData(userID, title)
	data.Subtitle = rangeSubtitle(filter, len(list))
	for _, t := range list {
		data.Entries = append(data.Entries, s.entry(ctx, userID, t))
	}

	return s.finish(ctx, userID, data, format, goalID, nil, "transcriptions")
}

func (s *Service) baseData(userID, title string) TemplateData {
	data := TemplateData{Title: title, GeneratedAt: time.Now().UTC()}
	if s.users != nil {
		if user, err := s.users.ByID(userID); err == nil {
			data.Author = user.Name()
		}
	}
	return data
}

func (s *Service) entry(ctx context.Context, userID string, t *model.Transcription) EntrySection {
	return EntrySection{
		Title:           t.Title,
		Text:            t.Text,
		Language:        t.Language,
		DurationSeconds: int64(t.DurationSeconds),
		CreatedAt:       t.CreatedAt,
		Media:           s.resolveMedia(ctx, userID, t.MediaItems()),
	}
}

func (s *Service) finish(ctx context.Context, userID string, data TemplateData, format Format, goalID, entityID *string, kind string) (*Result, error) {
	start := time.Now()
	result, err := s.render(ctx, data, format)
	metrics.ExportFinished(string(format), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if s.activity != nil {
		s.activity.Log(userID, model.ActivityExport, goalID, entityID, map[string]any{
			"kind":    kind,
			"format":  string(format),
			"entries": len(data.Entries),
		})
	}
	return result, nil
}

func (s *Service) render(ctx context.Context, data TemplateData, format Format) (*Result, error) {
	html, err := RenderDocumentHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	name := sanitizeFilename(data.Title)
	switch format {
	case FormatHTML:
		return &Result{Data: []byte(html), Filename: name + ".html", MimeType: "text/html; charset=utf-8"}, nil
	case FormatPDF:
		pdf, err := s.printPDF(ctx, html)
		if err != nil {
			return nil, err
		}
		return &Result{Data: pdf, Filename: name + ".pdf", MimeType: "application/pdf"}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func rangeSubtitle(filter BulkFilter, n int) string {
	const layout = "Jan 2, 2006"
	entries := fmt.Sprintf("%d entries", n)
	if n == 1 {
		entries = "1 entry"
	}
	switch {
	case filter.From != nil && filter.To != nil:
		return fmt.Sprintf("%s to %s, %s", filter.From.Format(layout), lastDay(*filter.To).Format(layout), entries)
	case filter.From != nil:
		return fmt.Sprintf("Since %s, %s", filter.From.Format(layout), entries)
	case filter.To != nil:
		return fmt.Sprintf("Through %s, %s", lastDay(*filter.To).Format(layout), entries)
	default:
		return entries
	}
}

// lastDay is the last calendar day an exclusive end covers. A midnight end
// belongs to the day before.
func lastDay(to time.Time) time.Time {
	to = to.UTC()
	if to.Equal(to.Truncate(24 * time.Hour)) {
		return to.AddDate(0, 0, -1)
	}
	return to
}

func titleOr(title, fallback string) string {
	if title == "" {
		return fallback
	}
	return title
}
