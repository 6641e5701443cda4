package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/metrics"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/repository"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/search"
	"github.com/google/uuid"
)

const (
	maxTranscriptionTitle = 200
	maxTranscriptionLimit = 200
)

var (
	ErrTextRequired     = errors.New("text is required")
	ErrInvalidDuration  = errors.New("durationSeconds must not be negative")
	ErrTitleTooLong     = errors.New("title is too long")
	ErrLanguageTooLong  = errors.New("language is too long")
	ErrInvalidPageRange = errors.New("limit and offset must not be negative")
)

type TranscriptionInput struct {
	Title           string          `json:"title"`
	Text            string          `json:"text"`
	GoalID          *string         `json:"goalId"`
	Language        string          `json:"language"`
	DurationSeconds int             `json:"durationSeconds"`
	Media           json.RawMessage `json:"media"`
}

type TranscriptionPatch struct {
	Title           *string          `json:"title"`
	Text            *string          `json:"text"`
	GoalID          Nullable[string] `json:"goalId"`
	Language        *string          `json:"language"`
	DurationSeconds *int             `json:"durationSeconds"`
	Media           json.RawMessage  `json:"media"`
}

// TranscriptionQuery lists transcriptions. GoalID "none" selects unlinked entries.
type TranscriptionQuery struct {
	GoalID string
	Limit  int
	Offset int
}

type TranscriptionService struct {
	repo            repository.TranscriptionRepository
	goals           repository.GoalRepository
	activityService *ActivityService
	search          *search.Service
}

func NewTranscriptionService(
	repo repository.TranscriptionRepository,
	goals repository.GoalRepository,
	activityService *ActivityService,
	searchService *search.Service,
) *TranscriptionService {
	return &TranscriptionService{
		repo:            repo,
		goals:           goals,
		activityService: activityService,
		search:          searchService,
	}
}

func validateTranscriptionFields(title, text, language string, duration int) error {
	if strings.TrimSpace(text) == "" {
		return invalid(ErrTextRequired)
	}
	if utf8.RuneCountInString(title) > maxTranscriptionTitle {
		return invalid(ErrTitleTooLong)
	}
	if len(language) > 35 {
		return invalid(ErrLanguageTooLong)
	}
	if duration < 0 {
		return invalid(ErrInvalidDuration)
	}
	return nil
}

// checkGoal confirms the goal exists and belongs to the user.
func (s *TranscriptionService) checkGoal(userID string, goalID *string) (*string, error) {
	if goalID == nil || *goalID == "" {
		return nil, nil
	}
	_, err := s.goals.ByID(userID, *goalID)
	if err != nil {
		return nil, err
	}
	return goalID, nil
}

func (s *TranscriptionService) Create(userID string, in TranscriptionInput) (*model.Transcription, error) {
	title := strings.TrimSpace(in.Title)
	language := strings.TrimSpace(in.Language)
	err := validateTranscriptionFields(title, in.Text, language, in.DurationSeconds)
	if err != nil {
		return nil, err
	}

	media, err := normalizeJSON(in.Media, `[]`, true)
	if err != nil {
		return nil, err
	}

	goalID, err := s.checkGoal(userID, in.GoalID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &model.Transcription{
		ID:              uuid.New().String(),
		UserID:          userID,
		GoalID:          goalID,
		Title:           title,
		Text:            in.Text,
		Language:        language,
		DurationSeconds: in.DurationSeconds,
		Media:           media,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.repo.Create(t)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create transcription: %w", err)
	}

	metrics.TranscriptionCreated()
	s.activityService.Log(userID, model.ActivityTranscriptionCreated, t.GoalID, &t.ID, map[string]any{
		"words":           len(strings.Fields(t.Text)),
		"durationSeconds": t.DurationSeconds,
	})
	s.search.IndexTranscription(t)

	return t, nil
}

func (s *TranscriptionService) List(userID string, q TranscriptionQuery) ([]*model.Transcription, error) {
	if q.Limit < 0 || q.Offset < 0 {
		return nil, invalid(ErrInvalidPageRange)
	}
	if q.Limit > maxTranscriptionLimit {
		q.Limit = maxTranscriptionLimit
	}

	filter := repository.TranscriptionFilter{Limit: q.Limit, Offset: q.Offset}
	switch q.GoalID {
	case "":
	case "none":
		filter.Unlinked = true
	default:
		_, err := s.goals.ByID(userID, q.GoalID)
		if err != nil {
			return nil, err
		}
		filter.GoalID = q.GoalID
	}

	list, err := s.repo.Transcriptions(userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcriptions: %w", err)
	}
	return list, nil
}

func (s *TranscriptionService) Get(userID, id string) (*model.Transcription, error) {
	return s.repo.ByID(userID, id)
}

func (s *TranscriptionService) Update(userID, id string, patch TranscriptionPatch) (*model.Transcription, error) {
	t, err := s.repo.ByID(userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		t.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Text != nil {
		t.Text = *patch.Text
	}
	if patch.Language != nil {
		t.Language = strings.TrimSpace(*patch.Language)
	}
	if patch.DurationSeconds != nil {
		t.DurationSeconds = *patch.DurationSeconds
	}
	err = validateTranscriptionFields(t.Title, t.Text, t.Language, t.DurationSeconds)
	if err != nil {
		return nil, err
	}

	if len(patch.Media) > 0 {
		media, err := normalizeJSON(patch.Media, `[]`, true)
		if err != nil {
			return nil, err
		}
		t.Media = media
	}

	if patch.GoalID.Set {
		goalID, err := s.checkGoal(userID, patch.GoalID.Value)
		if err != nil {
			return nil, err
		}
		t.GoalID = goalID
	}

	err = s.repo.Update(t)
	if err != nil {
		if errors.Is(err, repository.ErrTranscriptionNotFound) || errors.Is(err, repository.ErrGoalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update transcription: %w", err)
	}

	s.activityService.Log(userID, model.ActivityTranscriptionUpdated, t.GoalID, &t.ID, nil)
	s.search.IndexTranscription(t)

	return t, nil
}

func (s *TranscriptionService) Delete(userID, id string) error {
	err := s.repo.Delete(userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrTranscriptionNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete transcription: %w", err)
	}

	s.activityService.Log(userID, model.ActivityTranscriptionDeleted, nil, &id, nil)
	s.search.DeleteTranscription(id)

	return nil
}
