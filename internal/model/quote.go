package model

import "time"

type Quote struct {
	ID        string    `db:"id" json:"id"`
	Text      string    `db:"text" json:"text"`
	Author    string    `db:"author" json:"author"`
	Category  string    `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
