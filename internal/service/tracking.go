package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/metrics"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/repository"
	"github.com/google/uuid"
)

const maxSessionSeconds = 86400

var (
	ErrInvalidSeconds = errors.New("seconds must be between 1 and 86400")
	ErrInvalidDay     = errors.New("day must be formatted YYYY-MM-DD")
	ErrGoalRequired   = errors.New("goalId is required")
)

type TrackingInput struct {
	GoalID  string `json:"goalId"`
	Seconds int64  `json:"seconds"`
	Day     string `json:"day"`
}

type TrackingQuery struct {
	GoalID string
	From   string
	To     string
}

type TrackingService struct {
	repo            repository.TrackingRepository
	goals           repository.GoalRepository
	activityService *ActivityService
	now             func() time.Time
}

func NewTrackingService(repo repository.TrackingRepository, goals repository.GoalRepository, activityService *ActivityService) *TrackingService {
	return &TrackingService{
		repo:            repo,
		goals:           goals,
		activityService: activityService,
		now:             time.Now,
	}
}

// RecordSession adds a work session to the goal's row for the day.
// Day defaults to today in UTC.
func (s *TrackingService) RecordSession(userID string, in TrackingInput) (*model.ProjectTracking, error) {
	if in.GoalID == "" {
		return nil, invalid(ErrGoalRequired)
	}
	if in.Seconds < 1 || in.Seconds > maxSessionSeconds {
		return nil, invalid(ErrInvalidSeconds)
	}

	day := in.Day
	if day == "" {
		day = s.now().UTC().Format(model.DayLayout)
	} else if !validDay(day) {
		return nil, invalid(ErrInvalidDay)
	}

	_, err := s.goals.ByID(userID, in.GoalID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	row, err := s.repo.AddSession(&model.ProjectTracking{
		ID:           uuid.New().String(),
		UserID:       userID,
		GoalID:       in.GoalID,
		Day:          day,
		SecondsSpent: in.Seconds,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to record tracking session: %w", err)
	}

	metrics.TrackedSeconds(in.Seconds)
	s.activityService.Log(userID, model.ActivityTrackingSession, &in.GoalID, &row.ID, map[string]any{
		"seconds": in.Seconds,
		"day":     day,
	})

	return row, nil
}

func (s *TrackingService) List(userID string, q TrackingQuery) ([]*model.ProjectTracking, error) {
	filter, err := trackingFilter(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Days(userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking rows: %w", err)
	}
	return rows, nil
}

func (s *TrackingService) Summary(userID string, q TrackingQuery) ([]*model.TrackingSummary, error) {
	filter, err := trackingFilter(q)
	if err != nil {
		return nil, err
	}
	summary, err := s.repo.Summary(userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize tracking: %w", err)
	}
	return summary, nil
}

func trackingFilter(q TrackingQuery) (repository.TrackingFilter, error) {
	if (q.From != "" && !validDay(q.From)) || (q.To != "" && !validDay(q.To)) {
		return repository.TrackingFilter{}, invalid(ErrInvalidDay)
	}
	return repository.TrackingFilter{GoalID: q.GoalID, From: q.From, To: q.To}, nil
}

func validDay(day string) bool {
	_, err := time.Parse(model.DayLayout, day)
	return err == nil
}
