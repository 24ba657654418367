package pipeline

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"rvs/videostream"
)

func writeTempFile(t *testing.T, dir string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, "input.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write temp input: %v", err)
	}
	return path
}

func testOptions() Options {
	o := DefaultOptions()
	o.Width, o.Height = 64, 48 // small synthetic frame for fast tests
	o.ChunkSize = 64
	return o
}

func roundTrip(t *testing.T, data []byte, password []byte) []byte {
	t.Helper()
	dir := t.TempDir()
	inputPath := writeTempFile(t, dir, data)

	fake := videostream.NewFakeCodec()
	if err := encodeCore(inputPath, fake, password, testOptions()); err != nil {
		t.Fatalf("encodeCore: %v", err)
	}

	plaintext, err := decodeCore(videostream.NewFakeCodecFromFrames(fake.Frames()), password)
	if err != nil {
		t.Fatalf("decodeCore: %v", err)
	}
	return plaintext
}

func TestPipelineRoundTripUnencrypted(t *testing.T) {
	data := make([]byte, 4096*3+17)
	rand.Read(data)

	got := roundTrip(t, data, nil)
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch")
	}
}

func TestPipelineRoundTripEncrypted(t *testing.T) {
	data := make([]byte, 4096*5)
	rand.Read(data)
	password := []byte("hunter2")

	got := roundTrip(t, data, password)
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch")
	}
}

func TestPipelineWrongPasswordAuthFailure(t *testing.T) {
	data := []byte("a secret message, padded out a little")
	dir := t.TempDir()
	inputPath := writeTempFile(t, dir, data)

	fake := videostream.NewFakeCodec()
	if err := encodeCore(inputPath, fake, []byte("correct"), testOptions()); err != nil {
		t.Fatalf("encodeCore: %v", err)
	}

	_, err := decodeCore(videostream.NewFakeCodecFromFrames(fake.Frames()), []byte("wrong"))
	if err == nil {
		t.Fatalf("expected AuthFailure for wrong password")
	}
}

func TestPipelineMissingMetadataFrameInvalidVideo(t *testing.T) {
	data := make([]byte, 4096*2)
	rand.Read(data)
	dir := t.TempDir()
	inputPath := writeTempFile(t, dir, data)

	fake := videostream.NewFakeCodec()
	if err := encodeCore(inputPath, fake, nil, testOptions()); err != nil {
		t.Fatalf("encodeCore: %v", err)
	}

	frames := fake.Frames()
	if len(frames) < 2 {
		t.Fatalf("expected at least a metadata and one data frame")
	}
	withoutMetadata := frames[1:] // drop the metadata frame

	_, err := decodeCore(videostream.NewFakeCodecFromFrames(withoutMetadata), nil)
	if err == nil {
		t.Fatalf("expected InvalidVideo when metadata frame is missing")
	}
}

func TestPipelineSevereFrameLossIncompleteRecovery(t *testing.T) {
	data := make([]byte, 4096*20)
	rand.Read(data)
	dir := t.TempDir()
	inputPath := writeTempFile(t, dir, data)

	fake := videostream.NewFakeCodec()
	if err := encodeCore(inputPath, fake, nil, testOptions()); err != nil {
		t.Fatalf("encodeCore: %v", err)
	}

	frames := fake.Frames()
	// keep only the metadata frame plus a handful of data frames: far
	// below what 1280 chunks (4096*20 bytes at chunk size 64) need to
	// reconstruct.
	kept := append([][]byte{frames[0]}, frames[1:4]...)

	_, err := decodeCore(videostream.NewFakeCodecFromFrames(kept), nil)
	if err == nil {
		t.Fatalf("expected IncompleteRecovery under severe frame loss")
	}
}
