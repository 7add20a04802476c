package models

import (
	"time"

	"github.com/google/uuid"
)

// ClipUpload is one raw user-submitted audio file. Duration is nil until the
// worker has probed the stored file; it is written exactly once per
// successful probe.
type ClipUpload struct {
	ID           uuid.UUID `db:"id"           json:"id"`
	UserID       string    `db:"user_id"      json:"user_id"`
	Filename     string    `db:"filename"     json:"filename"`
	OriginalName string    `db:"originalname" json:"original_name"`
	Duration     *int      `db:"duration"     json:"duration,omitempty"`
	Language     string    `db:"language"     json:"language"`
	CreatedAt    time.Time `db:"created_at"   json:"created_at"`
}
