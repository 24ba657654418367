// Package frame packs exactly one fountain packet into one video
// frame: byte-per-channel, row-major R, G, B, zero-padded out to the
// frame's full pixel capacity. No bit-plane tricks, no dithering — the
// fountain code above this layer is the only error tolerance.
package frame

import (
	"fmt"

	"rvs/fountain"
)

// Capacity returns the number of payload bytes a width x height frame
// can carry: one byte per channel, three channels per pixel.
func Capacity(width, height uint32) int {
	return int(width) * int(height) * 3
}

// Pack serializes p and zero-pads it out to capacity. It errors if the
// packet's wire form does not fit.
func Pack(p fountain.Packet, capacity int) ([]byte, error) {
	wire := p.Serialize()
	if len(wire) > capacity {
		return nil, fmt.Errorf("frame: packet wire size %d exceeds frame capacity %d", len(wire), capacity)
	}
	out := make([]byte, capacity)
	copy(out, wire)
	return out, nil
}

// Unpack extracts a packet from a full-capacity frame buffer. n is the
// source chunk count and chunkSize the per-chunk payload size, used to
// know exactly how many leading bytes of frame are real packet bytes
// versus zero padding.
func Unpack(data []byte, n int, chunkSize uint32) (fountain.Packet, error) {
	wireSize := fountain.WireSize(n, chunkSize)
	if len(data) < wireSize {
		return fountain.Packet{}, fmt.Errorf("frame: buffer smaller than expected packet wire size")
	}
	return fountain.DeserializePacket(data[:wireSize], n)
}
