package videostream

import (
	"bytes"
	"testing"

	"rvs/metadata"
)

func TestWriterReaderMetadataRoundTrip(t *testing.T) {
	const capacity = 4096
	fake := NewFakeCodec()
	w := NewWriter(fake, capacity)

	record := metadata.Record{
		N:         4,
		ChunkSize: 4096,
		FileSize:  12345,
		Name:      "document.pdf",
	}
	if err := w.WriteMetadata(record); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	dataFrame := bytes.Repeat([]byte{0x42}, capacity)
	if err := w.WriteDataFrame(dataFrame); err != nil {
		t.Fatalf("write data frame: %v", err)
	}

	reader := NewReader(NewFakeCodecFromFrames(fake.Frames()))
	got, err := reader.ReadMetadata()
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if got != record {
		t.Fatalf("metadata mismatch: got %+v want %+v", got, record)
	}

	df, err := reader.ReadDataFrame()
	if err != nil {
		t.Fatalf("read data frame: %v", err)
	}
	if !bytes.Equal(df, dataFrame) {
		t.Fatalf("data frame mismatch")
	}
}

func TestReaderRejectsMissingMetadata(t *testing.T) {
	const capacity = 256
	// nine frames of plain data, no metadata header anywhere in the
	// first eight of them.
	frames := make([][]byte, 9)
	for i := range frames {
		frames[i] = bytes.Repeat([]byte{0xFF}, capacity)
	}

	reader := NewReader(NewFakeCodecFromFrames(frames))
	if _, err := reader.ReadMetadata(); err == nil {
		t.Fatalf("expected InvalidVideo error for missing metadata")
	}
}

func TestWriteMetadataSpansMultipleFramesWhenNeeded(t *testing.T) {
	const capacity = 32 // deliberately tiny to force a multi-frame record
	fake := NewFakeCodec()
	w := NewWriter(fake, capacity)

	record := metadata.Record{
		N:         1,
		ChunkSize: 4096,
		FileSize:  11,
		Name:      "a-rather-long-file-name-to-force-overflow.bin",
	}
	if err := w.WriteMetadata(record); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	if len(fake.Frames()) < 2 {
		t.Fatalf("expected metadata to span multiple frames, got %d", len(fake.Frames()))
	}

	reader := NewReader(NewFakeCodecFromFrames(fake.Frames()))
	got, err := reader.ReadMetadata()
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if got != record {
		t.Fatalf("metadata mismatch: got %+v want %+v", got, record)
	}
}
