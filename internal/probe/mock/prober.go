package mock

import (
	"context"

	"github.com/medleyhq/medley/internal/probe"
)

// MockProber satisfies probe.Prober for testing.
type MockProber struct {
	ProbeFunc func(ctx context.Context, path string) (*probe.Metadata, error)

	// Calls records every probed path.
	Calls []string
}

func (m *MockProber) Probe(ctx context.Context, path string) (*probe.Metadata, error) {
	m.Calls = append(m.Calls, path)
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx, path)
	}
	return &probe.Metadata{DurationSeconds: 1}, nil
}

// NewFixedProber returns a MockProber that always reports the given duration.
func NewFixedProber(durationSeconds float64) *MockProber {
	return &MockProber{
		ProbeFunc: func(_ context.Context, _ string) (*probe.Metadata, error) {
			return &probe.Metadata{DurationSeconds: durationSeconds, FormatName: "mp3"}, nil
		},
	}
}

// NewFailingProber returns a MockProber that always returns the given error.
func NewFailingProber(err error) *MockProber {
	return &MockProber{
		ProbeFunc: func(_ context.Context, _ string) (*probe.Metadata, error) {
			return nil, err
		},
	}
}

// Compile-time check that MockProber implements Prober.
var _ probe.Prober = (*MockProber)(nil)
