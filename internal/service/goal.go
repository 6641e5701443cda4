package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/metrics"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/repository"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/search"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/validation"
	"github.com/google/uuid"
)

const maxGoalTitle = 200

var (
	ErrGoalCycle         = errors.New("a goal cannot be moved under itself or one of its sub-goals")
	ErrInvalidGoalStatus = errors.New("status must be active, completed or archived")
	ErrInvalidGoalSort   = errors.New("sort must be recent, title or target")
)

type GoalInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ParentID    *string         `json:"parentId"`
	Status      string          `json:"status"`
	Content     json.RawMessage `json:"content"`
	TargetDate  *Date           `json:"targetDate"`
}

// GoalPatch is a partial update. Nullable fields can be cleared with null.
type GoalPatch struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Status      *string          `json:"status"`
	ParentID    Nullable[string] `json:"parentId"`
	TargetDate  Nullable[Date]   `json:"targetDate"`
	Content     json.RawMessage  `json:"content"`
}

type GoalService struct {
	repo            repository.GoalRepository
	transcriptions  repository.TranscriptionRepository
	activityService *ActivityService
	search          *search.Service
}

func NewGoalService(
	repo repository.GoalRepository,
	transcriptions repository.TranscriptionRepository,
	activityService *ActivityService,
	searchService *search.Service,
) *GoalService {
	return &GoalService{
		repo:            repo,
		transcriptions:  transcriptions,
		activityService: activityService,
		search:          searchService,
	}
}

func (s *GoalService) Create(userID string, in GoalInput) (*model.Goal, error) {
	title := strings.TrimSpace(in.Title)
	err := validation.ValidateTitle(title, maxGoalTitle)
	if err != nil {
		return nil, invalid(err)
	}

	status := in.Status
	if status == "" {
		status = model.GoalStatusActive
	}
	if !model.ValidGoalStatus(status) {
		return nil, invalid(ErrInvalidGoalStatus)
	}

	content, err := normalizeJSON(in.Content, `{}`, false)
	if err != nil {
		return nil, err
	}

	var parentID *string
	if in.ParentID != nil && *in.ParentID != "" {
		// ByID is scoped to the user, so foreign parents read as missing
		if _, err := s.repo.ByID(userID, *in.ParentID); err != nil {
			return nil, err
		}
		parentID = in.ParentID
	}

	now := time.Now().UTC()
	goal := &model.Goal{
		ID:          uuid.New().String(),
		UserID:      userID,
		ParentID:    parentID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      status,
		Content:     content,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.TargetDate != nil {
		t := in.TargetDate.Time
		goal.TargetDate = &t
	}
	if status == model.GoalStatusCompleted {
		goal.CompletedAt = &now
	}

	err = s.repo.Create(goal)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	metrics.GoalCreated()
	s.activityService.Log(userID, model.ActivityGoalCreated, &goal.ID, &goal.ID, map[string]any{"title": goal.Title})
	s.search.IndexGoal(goal)

	return goal, nil
}

// List accepts parentID "root" for top-level goals only.
func (s *GoalService) List(userID, parentID, status, sort string) ([]*model.Goal, error) {
	filter := repository.GoalFilter{Status: status, Sort: sort}
	if parentID == "root" {
		filter.RootOnly = true
	} else {
		filter.ParentID = parentID
	}

	if status != "" && !model.ValidGoalStatus(status) {
		return nil, invalid(ErrInvalidGoalStatus)
	}
	switch sort {
	case "", repository.GoalSortRecent, repository.GoalSortTitle, repository.GoalSortTarget:
	default:
		return nil, invalid(ErrInvalidGoalSort)
	}

	goals, err := s.repo.Goals(userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	return goals, nil
}

// Tree returns top-level goals with their sub-goals nested, sorted by title.
func (s *GoalService) Tree(userID string) ([]*model.GoalNode, error) {
	goals, err := s.repo.Goals(userID, repository.GoalFilter{Sort: repository.GoalSortTitle})
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	return buildGoalTree(goals), nil
}

func buildGoalTree(goals []*model.Goal) []*model.GoalNode {
	nodes := make(map[string]*model.GoalNode, len(goals))
	for _, g := range goals {
		nodes[g.ID] = &model.GoalNode{Goal: g, Children: []*model.GoalNode{}}
	}

	roots := []*model.GoalNode{}
	for _, g := range goals {
		node := nodes[g.ID]
		if g.ParentID != nil {
			if parent, ok := nodes[*g.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

func (s *GoalService) Get(userID, goalID string) (*model.Goal, error) {
	return s.repo.ByID(userID, goalID)
}

func (s *GoalService) Update(userID, goalID string, patch GoalPatch) (*model.Goal, error) {
	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	changed := []string{}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if err := validation.ValidateTitle(title, maxGoalTitle); err != nil {
			return nil, invalid(err)
		}
		goal.Title = title
		changed = append(changed, "title")
	}

	if patch.Description != nil {
		goal.Description = strings.TrimSpace(*patch.Description)
		changed = append(changed, "description")
	}

	if patch.Status != nil && *patch.Status != goal.Status {
		if !model.ValidGoalStatus(*patch.Status) {
			return nil, invalid(ErrInvalidGoalStatus)
		}
		goal.Status = *patch.Status
		if goal.Status == model.GoalStatusCompleted {
			now := time.Now().UTC()
			goal.CompletedAt = &now
		} else {
			goal.CompletedAt = nil
		}
		changed = append(changed, "status")
	}

	if patch.ParentID.Set {
		err := s.reparent(goal, patch.ParentID.Value)
		if err != nil {
			return nil, err
		}
		changed = append(changed, "parentId")
	}

	if patch.TargetDate.Set {
		if patch.TargetDate.Value == nil {
			goal.TargetDate = nil
		} else {
			t := patch.TargetDate.Value.Time
			goal.TargetDate = &t
		}
		changed = append(changed, "targetDate")
	}

	if len(patch.Content) > 0 {
		content, err := normalizeJSON(patch.Content, `{}`, false)
		if err != nil {
			return nil, err
		}
		goal.Content = content
		changed = append(changed, "content")
	}

	err = s.repo.Update(goal)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}

	s.activityService.Log(userID, model.ActivityGoalUpdated, &goal.ID, &goal.ID, map[string]any{"fields": changed})
	s.search.IndexGoal(goal)

	return goal, nil
}

// reparent validates ownership of the new parent and rejects cycles.
func (s *GoalService) reparent(goal *model.Goal, parentID *string) error {
	if parentID == nil || *parentID == "" {
		goal.ParentID = nil
		return nil
	}
	if *parentID == goal.ID {
		return invalid(ErrGoalCycle)
	}

	_, err := s.repo.ByID(goal.UserID, *parentID)
	if err != nil {
		return err
	}

	below, err := s.repo.IsDescendant(goal.ID, *parentID)
	if err != nil {
		return fmt.Errorf("failed to check goal hierarchy: %w", err)
	}
	if below {
		return invalid(ErrGoalCycle)
	}

	goal.ParentID = parentID
	return nil
}

func (s *GoalService) UpdateContent(userID, goalID string, raw json.RawMessage) (*model.Goal, error) {
	content, err := normalizeJSON(raw, `{}`, false)
	if err != nil {
		return nil, err
	}

	err = s.repo.UpdateContent(userID, goalID, content)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update goal content: %w", err)
	}

	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	s.activityService.Log(userID, model.ActivityGoalUpdated, &goal.ID, &goal.ID, map[string]any{"fields": []string{"content"}})
	return goal, nil
}

func (s *GoalService) Delete(userID, goalID string) error {
	removed := []string{goalID}
	if all, err := s.repo.Goals(userID, repository.GoalFilter{}); err == nil {
		removed = subtreeIDs(all, goalID)
	}

	err := s.repo.Delete(userID, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete goal: %w", err)
	}

	s.activityService.Log(userID, model.ActivityGoalDeleted, nil, &goalID, map[string]any{"removed": len(removed)})
	for _, id := range removed {
		s.search.DeleteGoal(id)
	}

	return nil
}

// subtreeIDs returns rootID and the ids of every goal below it.
func subtreeIDs(goals []*model.Goal, rootID string) []string {
	children := make(map[string][]string)
	for _, g := range goals {
		if g.ParentID != nil {
			children[*g.ParentID] = append(children[*g.ParentID], g.ID)
		}
	}

	ids := []string{rootID}
	for i := 0; i < len(ids); i++ {
		ids = append(ids, children[ids[i]]...)
	}
	return ids
}

func (s *GoalService) Transcriptions(userID, goalID string) ([]*model.Transcription, error) {
	_, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	list, err := s.transcriptions.Transcriptions(userID, repository.TranscriptionFilter{GoalID: goalID})
	if err != nil {
		return nil, fmt.Errorf("failed to list goal transcriptions: %w", err)
	}
	return list, nil
}
