package model

import (
	"encoding/json"
	"time"
)

const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusArchived  = "archived"
)

func ValidGoalStatus(status string) bool {
	switch status {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusArchived:
		return true
	}
	return false
}

type Goal struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"userId"`
	ParentID    *string    `db:"parent_id" json:"parentId"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Status      string     `db:"status" json:"status"`
	Content     RawJSON    `db:"content" json:"content"`
	TargetDate  *time.Time `db:"target_date" json:"targetDate"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// GoalNode is a goal with its sub-goals, used for tree responses.
type GoalNode struct {
	*Goal
	Children []*GoalNode `json:"children"`
}

// GoalContent is the journal/media blob kept on a goal. Unknown keys written
// by the client are preserved in the stored JSON and ignored here.
type GoalContent struct {
	Notes   string         `json:"notes,omitempty"`
	Entries []JournalEntry `json:"entries,omitempty"`
	Media   []MediaItem    `json:"media,omitempty"`
}

type JournalEntry struct {
	Date  string      `json:"date,omitempty"`
	Text  string      `json:"text"`
	Media []MediaItem `json:"media,omitempty"`
}

// Journal decodes the content blob; malformed content yields a zero value.
func (g *Goal) Journal() GoalContent {
	var c GoalContent
	if g.Content.IsNull() {
		return c
	}
	if err := json.Unmarshal(g.Content, &c); err != nil {
		return GoalContent{}
	}
	return c
}
