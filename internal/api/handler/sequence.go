package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/medleyhq/medley/internal/api/response"
	"github.com/medleyhq/medley/internal/sequence"
	"github.com/medleyhq/medley/pkg/models"
)

// SequenceAssembler defines the interface the handler depends on.
type SequenceAssembler interface {
	Assemble(ctx context.Context, params sequence.Params) (*models.Sequence, error)
}

// NewSequenceHandler returns an http.HandlerFunc for POST /api/v1/sequences.
// Duration below one minute is coerced rather than rejected; level defaults
// to the lowest tier.
func NewSequenceHandler(svc SequenceAssembler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			DurationMinutes int    `json:"duration_minutes"`
			Language        string `json:"language"`
			Level           int    `json:"level"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.Language == "" {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "language is required", nil)
			return
		}

		level := req.Level
		if level < 1 {
			level = models.DefaultClipLevel
		}

		seq, err := svc.Assemble(r.Context(), sequence.Params{
			DurationMinutes: req.DurationMinutes,
			Language:        req.Language,
			Level:           level,
		})
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to assemble sequence", nil)
			return
		}

		response.JSON(w, seq)
	}
}
