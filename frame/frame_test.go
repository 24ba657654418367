package frame

import (
	"bytes"
	"crypto/rand"
	"testing"

	"rvs/fountain"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	const n = 12
	const chunkSize = 64
	capacity := Capacity(64, 48) // small synthetic frame, still well above wire size

	mask := fountain.NewBitset(n)
	mask.Set(2)
	mask.Set(5)
	payload := make([]byte, chunkSize)
	rand.Read(payload)
	p := fountain.NewPacket(5, mask, payload)

	out, err := Pack(p, capacity)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if len(out) != capacity {
		t.Fatalf("expected frame of capacity %d, got %d", capacity, len(out))
	}

	got, err := Unpack(out, n, chunkSize)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if got.Seed != p.Seed || !bytes.Equal(got.Payload, p.Payload) {
		t.Fatalf("round trip mismatch")
	}
}

func TestPackRejectsOversizedPacket(t *testing.T) {
	const n = 8
	mask := fountain.NewBitset(n)
	mask.Set(0)
	p := fountain.NewPacket(0, mask, make([]byte, 4096))

	if _, err := Pack(p, 10); err == nil {
		t.Fatalf("expected error when packet does not fit frame capacity")
	}
}
