package model

import (
	"time"
)

const (
	FileTypeImage    = "image"
	FileTypeAudio    = "audio"
	FileTypeVideo    = "video"
	FileTypeDocument = "document"
)

const (
	OwnerTypeUser          = "user"
	OwnerTypeGoal          = "goal"
	OwnerTypeTranscription = "transcription"
)

type File struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"userId"`
	OwnerType    string    `db:"owner_type" json:"ownerType"` // "user", "goal", "transcription"
	OwnerID      string    `db:"owner_id" json:"ownerId"`
	Type         string    `db:"type" json:"type"`
	Filename     string    `db:"filename" json:"filename"`
	OriginalName string    `db:"original_name" json:"originalName"`
	MimeType     string    `db:"mime_type" json:"mimeType"`
	Size         int64     `db:"size" json:"size"`
	StoragePath  string    `db:"storage_path" json:"-"`
	Public       bool      `db:"public" json:"public"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`

	// Computed (not in database)
	URL string `db:"-" json:"url"`
}
