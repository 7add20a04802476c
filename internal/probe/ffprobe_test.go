package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFFprobeOutput_Valid(t *testing.T) {
	raw := []byte(`{"format":{"filename":"clip.mp3","format_name":"mp3","duration":"42.397000","size":"679941"}}`)

	meta, err := parseFFprobeOutput(raw)
	require.NoError(t, err)
	assert.InDelta(t, 42.397, meta.DurationSeconds, 0.001)
	assert.Equal(t, "mp3", meta.FormatName)
}

func TestParseFFprobeOutput_MissingDuration(t *testing.T) {
	raw := []byte(`{"format":{"format_name":"mp3"}}`)

	_, err := parseFFprobeOutput(raw)
	require.ErrorIs(t, err, ErrNoDuration)
}

func TestParseFFprobeOutput_MalformedJSON(t *testing.T) {
	_, err := parseFFprobeOutput([]byte(`not json`))
	require.ErrorIs(t, err, ErrInvalidOutput)
}

func TestParseFFprobeOutput_UnparseableDuration(t *testing.T) {
	raw := []byte(`{"format":{"duration":"N/A"}}`)

	_, err := parseFFprobeOutput(raw)
	require.ErrorIs(t, err, ErrInvalidOutput)
}

func TestNewFFprobe_DefaultBinary(t *testing.T) {
	f := NewFFprobe("")
	assert.Equal(t, "ffprobe", f.binary)
}
