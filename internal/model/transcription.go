package model

import (
	"encoding/json"
	"time"
)

const (
	MediaTypeImage    = "image"
	MediaTypeAudio    = "audio"
	MediaTypeVideo    = "video"
	MediaTypeDocument = "document"
	MediaTypeLink     = "link"
)

type Transcription struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"userId"`
	GoalID          *string   `db:"goal_id" json:"goalId"`
	Title           string    `db:"title" json:"title"`
	Text            string    `db:"text" json:"text"`
	Language        string    `db:"language" json:"language"`
	DurationSeconds int       `db:"duration_seconds" json:"durationSeconds"`
	Media           RawJSON   `db:"media" json:"media"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// MediaItem is one element of a transcription's media list.
type MediaItem struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Name   string `json:"name,omitempty"`
	FileID string `json:"fileId,omitempty"`
}

// MediaItems decodes the media list; malformed media yields an empty list.
func (t *Transcription) MediaItems() []MediaItem {
	if t.Media.IsNull() {
		return nil
	}
	var items []MediaItem
	if err := json.Unmarshal(t.Media, &items); err != nil {
		return nil
	}
	return items
}
