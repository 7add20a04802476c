package models

import "github.com/google/uuid"

// Defaults applied when a clip is catalogued. Real classification is a
// future collaborator; the worker must not invent it.
const (
	DefaultClipLevel = 1
	DefaultClipVoice = "default"
	DefaultClipType  = "generic"
)

// Clip is the catalog-ready, playable unit derived from a successfully
// processed upload. At most one clip exists per upload; reprocessing
// refreshes duration and language in place.
type Clip struct {
	ID       uuid.UUID `db:"id"        json:"id"`
	UploadID uuid.UUID `db:"upload_id" json:"upload_id"`
	Language string    `db:"language"  json:"language"`
	Level    int       `db:"level"     json:"level"`
	Voice    string    `db:"voice"     json:"voice"`
	Duration int       `db:"duration"  json:"duration"`
	Type     string    `db:"type"      json:"type"`
}
