package model

import (
	"time"
)

const (
	ActivityLogin                = "login"
	ActivityRegister             = "register"
	ActivityGoalCreated          = "goal_created"
	ActivityGoalUpdated          = "goal_updated"
	ActivityGoalDeleted          = "goal_deleted"
	ActivityTranscriptionCreated = "transcription_created"
	ActivityTranscriptionUpdated = "transcription_updated"
	ActivityTranscriptionDeleted = "transcription_deleted"
	ActivityTrackingSession      = "tracking_session"
	ActivityExport               = "export"
	ActivityUpload               = "upload"
)

var serverActivityTypes = map[string]bool{
	ActivityLogin:                true,
	ActivityRegister:             true,
	ActivityGoalCreated:          true,
	ActivityGoalUpdated:          true,
	ActivityGoalDeleted:          true,
	ActivityTranscriptionCreated: true,
	ActivityTranscriptionUpdated: true,
	ActivityTranscriptionDeleted: true,
	ActivityTrackingSession:      true,
	ActivityExport:               true,
	ActivityUpload:               true,
}

// IsServerActivity reports whether only the server may log this type.
func IsServerActivity(activityType string) bool {
	return serverActivityTypes[activityType]
}

// Activity is one row of the append-only user activity log.
type Activity struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Type      string    `db:"activity_type" json:"activityType"`
	GoalID    *string   `db:"goal_id" json:"goalId"`
	EntityID  *string   `db:"entity_id" json:"entityId"`
	Metadata  RawJSON   `db:"metadata" json:"metadata"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type ActivityCount struct {
	Type  string `db:"activity_type" json:"activityType"`
	Count int    `db:"count" json:"count"`
}
