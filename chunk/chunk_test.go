package chunk

import (
	"bytes"
	"testing"
)

func TestCount(t *testing.T) {
	cases := []struct {
		fileSize uint64
		size     uint32
		want     uint32
	}{
		{0, 4096, 1},
		{1, 4096, 1},
		{4096, 4096, 1},
		{4097, 4096, 2},
		{10 * 1024 * 1024, 4096, 2560},
	}
	for _, c := range cases {
		got := Count(c.fileSize, c.size)
		if got != c.want {
			t.Errorf("Count(%d, %d) = %d, want %d", c.fileSize, c.size, got, c.want)
		}
	}
}

func TestSplitJoinRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("hello world"), 500)
	chunks := Split(data, 4096)

	n := Count(uint64(len(data)), 4096)
	if uint32(len(chunks)) != n {
		t.Fatalf("Split produced %d chunks, Count says %d", len(chunks), n)
	}
	for i, c := range chunks {
		if c.Index != uint32(i) {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if len(c.Payload) != 4096 {
			t.Errorf("chunk %d payload length = %d, want 4096", i, len(c.Payload))
		}
	}

	payloads := make([][]byte, len(chunks))
	for i, c := range chunks {
		payloads[i] = c.Payload
	}
	joined := Join(payloads, uint64(len(data)))
	if !bytes.Equal(joined, data) {
		t.Errorf("Join(Split(data)) != data")
	}
}

func TestSplitZeroPadsLastChunk(t *testing.T) {
	data := []byte("hello world") // 11 bytes
	chunks := Split(data, 4096)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if len(chunks[0].Payload) != 4096 {
		t.Fatalf("expected padded payload of 4096, got %d", len(chunks[0].Payload))
	}
	for i := 11; i < 4096; i++ {
		if chunks[0].Payload[i] != 0 {
			t.Fatalf("padding byte %d is not zero", i)
		}
	}
}

func TestSplitChunkBoundary(t *testing.T) {
	data := make([]byte, 4096)
	chunks := Split(data, 4096)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for exact boundary, got %d", len(chunks))
	}
}
