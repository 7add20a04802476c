package sequence

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/medleyhq/medley/internal/store"
	"github.com/medleyhq/medley/pkg/models"
)

// Params are the request parameters for one assembly.
type Params struct {
	// DurationMinutes is the target length; values below 1 are coerced to 1.
	DurationMinutes int
	Language        string
	// Level is the maximum access level of clips allowed in the result.
	Level int
}

// Assembler builds playback sequences from the catalog.
type Assembler struct {
	store      store.Store
	selector   Selector
	publicRoot string
}

// NewAssembler creates an Assembler. storageRoot is the uploads root on
// disk; clip paths in the result are served relative to its base name,
// e.g. /uploads/<userID>/<filename>.
func NewAssembler(st store.Store, sel Selector, storageRoot string) *Assembler {
	return &Assembler{
		store:      st,
		selector:   sel,
		publicRoot: "/" + filepath.Base(storageRoot),
	}
}

// Assemble queries catalog clips matching the language exactly and the level
// at most Params.Level, then delegates to the selector. The returned clips
// are in acceptance order; the total never exceeds the target duration.
func (a *Assembler) Assemble(ctx context.Context, params Params) (*models.Sequence, error) {
	minutes := params.DurationMinutes
	if minutes < 1 {
		minutes = 1
	}
	targetSeconds := minutes * 60

	candidates, err := a.store.ListClipCandidates(ctx, params.Language, params.Level)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	chosen := a.selector.Select(candidates, targetSeconds)

	seq := &models.Sequence{Clips: []models.SequenceClip{}}
	for _, c := range chosen {
		seq.Clips = append(seq.Clips, models.SequenceClip{
			ClipID:   c.ClipID,
			Path:     path.Join(a.publicRoot, c.UserID, c.Filename),
			Duration: c.Duration,
		})
		seq.TotalDuration += c.Duration
	}
	return seq, nil
}
