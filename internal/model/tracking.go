package model

import (
	"time"
)

// DayLayout is the format of ProjectTracking.Day.
const DayLayout = "2006-01-02"

// ProjectTracking aggregates work sessions for one user, goal and day.
type ProjectTracking struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"userId"`
	GoalID       string    `db:"goal_id" json:"goalId"`
	Day          string    `db:"day" json:"day"`
	SecondsSpent int64     `db:"seconds_spent" json:"secondsSpent"`
	SessionCount int       `db:"session_count" json:"sessionCount"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

type TrackingSummary struct {
	GoalID        string `db:"goal_id" json:"goalId"`
	GoalTitle     string `db:"goal_title" json:"goalTitle"`
	TotalSeconds  int64  `db:"total_seconds" json:"totalSeconds"`
	TotalSessions int    `db:"total_sessions" json:"totalSessions"`
	DaysActive    int    `db:"days_active" json:"daysActive"`
}
