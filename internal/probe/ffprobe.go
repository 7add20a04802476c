package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// FFprobe implements Prober by invoking the ffprobe binary.
type FFprobe struct {
	binary string
}

// NewFFprobe creates an FFprobe prober. binary may be a bare name resolved
// via PATH or an absolute path.
func NewFFprobe(binary string) *FFprobe {
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFprobe{binary: binary}
}

// Probe runs ffprobe against path and parses the format section of its JSON
// output. The context bounds the ffprobe process; a hung probe is killed
// when the context expires.
func (f *FFprobe) Probe(ctx context.Context, path string) (*Metadata, error) {
	cmd := exec.CommandContext(ctx, f.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s", ErrProbeFailed, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrProbeFailed, err, stderr.String())
	}

	return parseFFprobeOutput(stdout.Bytes())
}

type ffprobeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
}

func parseFFprobeOutput(raw []byte) (*Metadata, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOutput, err)
	}
	if out.Format.Duration == "" {
		return nil, ErrNoDuration
	}
	seconds, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parse duration %q: %s", ErrInvalidOutput, out.Format.Duration, err)
	}
	return &Metadata{
		DurationSeconds: seconds,
		FormatName:      out.Format.FormatName,
	}, nil
}
