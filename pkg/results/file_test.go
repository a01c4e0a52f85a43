package results

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "NetValues.txt")
	sink := NewFileSink(path, FormatOctave, false)

	require.NoError(t, sink.Write(context.Background(), fixture()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "I=[0.5; 0.25; 0.125];\n"))
	assert.Equal(t, len(data), sink.LastSize())

	entries, _ := os.ReadDir(filepath.Dir(path))
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestFileSink_CompressedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	sink := NewFileSink(path, FormatJSON, true)
	assert.Equal(t, path+SnappyExtension, sink.Path)

	require.NoError(t, sink.Write(context.Background(), fixture()))

	raw, err := os.ReadFile(sink.Path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "\xff\x06\x00\x00sNaPpY"), "missing snappy stream identifier")

	loaded, err := ReadJSONFile(sink.Path)
	require.NoError(t, err)
	assert.Equal(t, fixture().Prevalence, loaded.Prevalence)
}

func TestRender_SnappyFraming(t *testing.T) {
	data, err := Render(fixture(), FormatCSV, true)
	require.NoError(t, err)

	plain, err := Render(fixture(), FormatCSV, false)
	require.NoError(t, err)

	decoded, err := io.ReadAll(snappy.NewReader(bytes.NewReader(data)))
	require.NoError(t, err)
	assert.Equal(t, string(plain), string(decoded))
}

func TestFileSink_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := NewFileSink(filepath.Join(t.TempDir(), "x.txt"), FormatOctave, false)
	assert.ErrorIs(t, sink.Write(ctx, fixture()), context.Canceled)
}
