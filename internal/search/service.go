package search

import (
	"errors"
	"log/slog"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/metrics"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
)

var ErrSearchUnavailable = errors.New("search engine not available")

// Service is the facade that tries the engine first and falls back to SQL.
type Service struct {
	engine Engine
	sql    Searcher
}

// NewService creates a search service. engine may be nil if Meilisearch is not configured.
func NewService(engine Engine, sql Searcher) *Service {
	return &Service{engine: engine, sql: sql}
}

func (s *Service) engineReady() bool {
	return s != nil && s.engine != nil && s.engine.Healthy()
}

// Search tries the engine if healthy, otherwise falls back to SQL.
func (s *Service) Search(q Query) Response {
	if s.engineReady() {
		results, total, err := s.engine.Search(q)
		if err == nil {
			metrics.SearchQuery("meilisearch")
			return Response{Results: nonNil(results), Total: total, Query: q.Text, Backend: "meilisearch"}
		}
		slog.Warn("meilisearch error, falling back to sql", "error", err)
	}

	metrics.SearchQuery("sql")
	results, total, err := s.sql.Search(q)
	if err != nil {
		slog.Error("sql search failed", "error", err, "user_id", q.UserID)
		return Response{Results: []Result{}, Total: 0, Query: q.Text, Backend: "sql"}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text, Backend: "sql"}
}

func nonNil(results []Result) []Result {
	if results == nil {
		return []Result{}
	}
	return results
}

// IndexGoal indexes a goal (fire-and-forget).
func (s *Service) IndexGoal(g *model.Goal) {
	if !s.engineReady() {
		return
	}
	record := GoalRecordFrom(g)
	go func() {
		if err := s.engine.IndexGoals([]GoalRecord{record}); err != nil {
			slog.Warn("search index goal failed", "goal_id", record.ID, "error", err)
		}
	}()
}

// IndexTranscription indexes a transcription (fire-and-forget).
func (s *Service) IndexTranscription(t *model.Transcription) {
	if !s.engineReady() {
		return
	}
	record := TranscriptionRecordFrom(t)
	go func() {
		if err := s.engine.IndexTranscriptions([]TranscriptionRecord{record}); err != nil {
			slog.Warn("search index transcription failed", "transcription_id", record.ID, "error", err)
		}
	}()
}

// DeleteGoal removes a goal from the index (fire-and-forget).
func (s *Service) DeleteGoal(id string) {
	if !s.engineReady() {
		return
	}
	go func() {
		if err := s.engine.DeleteGoal(id); err != nil {
			slog.Warn("search delete goal failed", "goal_id", id, "error", err)
		}
	}()
}

// DeleteTranscription removes a transcription from the index (fire-and-forget).
func (s *Service) DeleteTranscription(id string) {
	if !s.engineReady() {
		return
	}
	go func() {
		if err := s.engine.DeleteTranscription(id); err != nil {
			slog.Warn("search delete transcription failed", "transcription_id", id, "error", err)
		}
	}()
}

// ReindexAll pushes every goal and transcription to the engine synchronously.
func (s *Service) ReindexAll(goals []*model.Goal, transcriptions []*model.Transcription) error {
	if !s.engineReady() {
		return ErrSearchUnavailable
	}

	goalRecords := make([]GoalRecord, 0, len(goals))
	for _, g := range goals {
		goalRecords = append(goalRecords, GoalRecordFrom(g))
	}
	transcriptionRecords := make([]TranscriptionRecord, 0, len(transcriptions))
	for _, t := range transcriptions {
		transcriptionRecords = append(transcriptionRecords, TranscriptionRecordFrom(t))
	}

	return errors.Join(
		s.engine.IndexGoals(goalRecords),
		s.engine.IndexTranscriptions(transcriptionRecords),
	)
}

func GoalRecordFrom(g *model.Goal) GoalRecord {
	return GoalRecord{
		ID:          g.ID,
		UserID:      g.UserID,
		Title:       g.Title,
		Description: g.Description,
		Status:      g.Status,
		UpdatedAt:   g.UpdatedAt.Unix(),
	}
}

func TranscriptionRecordFrom(t *model.Transcription) TranscriptionRecord {
	r := TranscriptionRecord{
		ID:        t.ID,
		UserID:    t.UserID,
		Title:     t.Title,
		Text:      t.Text,
		CreatedAt: t.CreatedAt.Unix(),
	}
	if t.GoalID != nil {
		r.GoalID = *t.GoalID
	}
	return r
}
