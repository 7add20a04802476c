// Package probe inspects stored media files and reports their metadata.
// The shipped implementation shells out to ffprobe; the worker only depends
// on the Prober interface.
package probe

import (
	"context"
	"errors"
)

var (
	ErrProbeFailed   = errors.New("media probe failed")
	ErrNoDuration    = errors.New("media probe reported no duration")
	ErrInvalidOutput = errors.New("media probe returned invalid output")
)

// Metadata is what a probe reports about a media file.
type Metadata struct {
	// DurationSeconds is the measured duration, unrounded.
	DurationSeconds float64
	FormatName      string
}

// Prober inspects a media file on disk.
type Prober interface {
	Probe(ctx context.Context, path string) (*Metadata, error)
}
