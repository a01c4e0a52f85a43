package results

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
)

// SnappyExtension is appended to compressed result files.
const SnappyExtension = ".snappy"

// FileSink writes the series to a local file, replacing it atomically.
type FileSink struct {
	Path     string
	Format   Format
	Compress bool

	lastSize int
}

// NewFileSink returns a sink for path. With compress set, the snappy framing
// format is used and SnappyExtension is appended to path if missing.
func NewFileSink(path string, format Format, compress bool) *FileSink {
	if compress && !strings.HasSuffix(path, SnappyExtension) {
		path += SnappyExtension
	}
	return &FileSink{Path: path, Format: format, Compress: compress}
}

// Name implements Sink.
func (f *FileSink) Name() string { return "file" }

// LastSize returns the byte size of the last file written.
func (f *FileSink) LastSize() int { return f.lastSize }

// Write implements Sink.
func (f *FileSink) Write(ctx context.Context, s *Series) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Render(s, f.Format, f.Compress)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("rename to %s: %w", f.Path, err)
	}

	f.lastSize = len(data)
	return nil
}

// Render encodes s and optionally compresses it with the snappy framing
// format.
func Render(s *Series, format Format, compress bool) ([]byte, error) {
	var buf bytes.Buffer
	var w io.Writer = &buf

	var sw *snappy.Writer
	if compress {
		sw = snappy.NewBufferedWriter(&buf)
		w = sw
	}
	if err := Encode(w, format, s); err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	if sw != nil {
		if err := sw.Close(); err != nil {
			return nil, fmt.Errorf("compress: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// OpenReader opens a result file, transparently decompressing files that
// carry SnappyExtension.
func OpenReader(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, SnappyExtension) {
		return file, nil
	}
	return struct {
		io.Reader
		io.Closer
	}{bufio.NewReader(snappy.NewReader(file)), file}, nil
}

// ReadJSONFile loads a JSON series, compressed or not.
func ReadJSONFile(path string) (*Series, error) {
	rc, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return DecodeJSON(rc)
}
