package models

import "github.com/google/uuid"

// SequenceClip is one accepted clip in an assembled playback sequence.
// Path is a relative reference of the form /uploads/<userID>/<filename>.
type SequenceClip struct {
	ClipID   uuid.UUID `json:"clip_id"`
	Path     string    `json:"path"`
	Duration int       `json:"duration"`
}

// Sequence is an ordered, duration-bounded selection of clips. It is
// assembled per request and never persisted.
type Sequence struct {
	Clips         []SequenceClip `json:"sequence"`
	TotalDuration int            `json:"total_duration"`
}
