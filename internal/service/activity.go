package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/events"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/metrics"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrInvalidActivityType  = errors.New("activity type must be lowercase letters, digits or underscores")
	ErrReservedActivityType = errors.New("activity type is reserved")
)

var activityTypePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,48}$`)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
	publishTimeout       = 5 * time.Second
)

// ActivityPage is one page of the activity feed. NextCursor is empty on the last page.
type ActivityPage struct {
	Activities []*model.Activity `json:"activities"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

type ActivityService struct {
	repo      repository.ActivityRepository
	publisher events.Publisher
}

func NewActivityService(repo repository.ActivityRepository, publisher events.Publisher) *ActivityService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &ActivityService{repo: repo, publisher: publisher}
}

// Record appends an activity row and publishes it.
func (s *ActivityService) Record(userID, activityType string, goalID, entityID *string, metadata map[string]any) (*model.Activity, error) {
	if !activityTypePattern.MatchString(activityType) {
		return nil, invalid(ErrInvalidActivityType)
	}

	raw := model.RawJSON(`{}`)
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode activity metadata: %w", err)
		}
		raw = model.RawJSON(b)
	}

	activity := &model.Activity{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      activityType,
		GoalID:    goalID,
		EntityID:  entityID,
		Metadata:  raw,
		CreatedAt: time.Now().UTC(),
	}

	err := s.repo.Create(activity)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	metrics.ActivityLogged(activityType)
	go s.publish(activity)

	return activity, nil
}

// Log is the best-effort form of Record used by other services.
// RecordClient records an activity reported by a client. Types the server
// logs itself are refused.
func (s *ActivityService) RecordClient(userID, activityType string, goalID, entityID *string, metadata map[string]any) (*model.Activity, error) {
	if model.IsServerActivity(activityType) {
		return nil, invalid(fmt.Errorf("%w: %s", ErrReservedActivityType, activityType))
	}
	return s.Record(userID, activityType, goalID, entityID, metadata)
}

func (s *ActivityService) Log(userID, activityType string, goalID, entityID *string, metadata map[string]any) {
	if s == nil {
		return
	}
	_, err := s.Record(userID, activityType, goalID, entityID, metadata)
	if err != nil {
		slog.Warn("failed to log activity", "error", err, "user_id", userID, "activity_type", activityType)
	}
}

func (s *ActivityService) publish(a *model.Activity) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := s.publisher.PublishActivity(ctx, events.ActivityEvent{
		ID:         a.ID,
		UserID:     a.UserID,
		Type:       a.Type,
		GoalID:     a.GoalID,
		EntityID:   a.EntityID,
		Metadata:   json.RawMessage(a.Metadata),
		OccurredAt: a.CreatedAt,
	})
	metrics.EventPublished(err)
	if err != nil {
		slog.Warn("failed to publish activity event", "error", err, "activity_id", a.ID, "user_id", a.UserID)
	}
}

// List returns the newest activities first. cursor is the NextCursor of the previous page.
func (s *ActivityService) List(userID string, limit int, cursor, activityType string) (*ActivityPage, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	after, err := repository.DecodeCursor(cursor)
	if err != nil {
		return nil, invalid(err)
	}

	list, next, err := s.repo.Activities(userID, repository.ActivityQuery{
		Type:   activityType,
		Limit:  limit,
		Cursor: after,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	return &ActivityPage{Activities: list, NextCursor: repository.EncodeCursor(next)}, nil
}

func (s *ActivityService) Summary(userID string, since time.Time) ([]model.ActivityCount, error) {
	counts, err := s.repo.Summary(userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize activities: %w", err)
	}
	return counts, nil
}
