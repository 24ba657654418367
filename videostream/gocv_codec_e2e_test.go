//go:build e2e

package videostream

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// TestGocvWriterReaderRoundTrip exercises the real FFV1-in-Matroska
// codec. It requires a working OpenCV/FFmpeg build with FFV1 support
// and is excluded from the default test run via the e2e build tag.
func TestGocvWriterReaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	finalPath := filepath.Join(dir, "out.mkv")
	stagingPath := finalPath + ".staging"

	const width, height = 64, 48
	writer, err := NewGocvWriter(stagingPath, finalPath, width, height, 30)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	frame := bytes.Repeat([]byte{0x10, 0x20, 0x30}, width*height)
	if err := writer.WriteFrame(frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	if _, err := os.Stat(finalPath); err != nil {
		t.Fatalf("expected published output at %s: %v", finalPath, err)
	}

	reader, err := NewGocvReader(finalPath)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	defer reader.Close()

	got, err := reader.ReadFrame()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if len(got) != len(frame) {
		t.Fatalf("frame size mismatch: got %d want %d", len(got), len(frame))
	}

	if _, err := reader.ReadFrame(); err != io.EOF {
		t.Fatalf("expected io.EOF after single frame, got %v", err)
	}
}
