// Package fountain implements the LT-style fountain erasure code: the
// encoder (component B) that produces N systematic plus M-N redundant
// XOR packets, and the online decoder (component C) that reconstructs
// the N source chunks from any sufficiently large, possibly reordered,
// possibly lossy subset of those packets.
package fountain

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Packet is the self-contained wire unit of the fountain code: seed,
// the set of source chunks XORed together, the XOR result, and its
// CRC32. A decoder needs nothing but the packet bytes plus N and B.
type Packet struct {
	Seed    uint32
	Mask    Bitset
	Payload []byte // length B
	CRC     uint32 // CRC32 of Payload
}

// NewPacket builds a packet from a mask and payload, computing CRC32
// over the payload (the wire CRC is always over the XOR result, never
// over the source chunks).
func NewPacket(seed uint32, mask Bitset, payload []byte) Packet {
	return Packet{
		Seed:    seed,
		Mask:    mask,
		Payload: payload,
		CRC:     crc32.ChecksumIEEE(payload),
	}
}

// Verify reports whether the packet's CRC matches its payload and at
// least one source chunk is referenced.
func (p Packet) Verify() bool {
	if p.Mask.PopCount() < 1 {
		return false
	}
	return crc32.ChecksumIEEE(p.Payload) == p.CRC
}

// WireSize returns the serialized size of a packet covering n chunks
// with chunkSize-byte payloads: seed(4) + mask_len(4) + mask bytes +
// xor_crc(4) + payload.
func WireSize(n int, chunkSize uint32) int {
	maskLen := (n + 7) / 8
	return 4 + 4 + maskLen + 4 + int(chunkSize)
}

// Serialize writes the packet in its wire layout:
// seed(4 LE) | mask_len(4 LE) | mask_bits | xor_crc(4 LE) | xor_payload.
func (p Packet) Serialize() []byte {
	maskBytes := p.Mask.Bytes()
	out := make([]byte, 0, 4+4+len(maskBytes)+4+len(p.Payload))
	var tmp [4]byte

	binary.LittleEndian.PutUint32(tmp[:], p.Seed)
	out = append(out, tmp[:]...)

	binary.LittleEndian.PutUint32(tmp[:], uint32(len(maskBytes)))
	out = append(out, tmp[:]...)

	out = append(out, maskBytes...)

	binary.LittleEndian.PutUint32(tmp[:], p.CRC)
	out = append(out, tmp[:]...)

	out = append(out, p.Payload...)
	return out
}

// DeserializePacket parses a packet out of a byte buffer that ends
// where the packet's payload ends: every byte after xor_crc is taken
// as the payload, so a buffer that still carries frame padding yields
// a payload (and a CRC check) that includes the padding. n is the
// source chunk count N, used to size the mask's logical bit length.
func DeserializePacket(data []byte, n int) (Packet, error) {
	if len(data) < 8 {
		return Packet{}, fmt.Errorf("fountain: packet too short for header")
	}
	seed := binary.LittleEndian.Uint32(data[0:4])
	maskLen := binary.LittleEndian.Uint32(data[4:8])

	expectedMaskLen := uint32((n + 7) / 8)
	if maskLen != expectedMaskLen {
		return Packet{}, fmt.Errorf("fountain: mask_len %d does not match expected %d for n=%d", maskLen, expectedMaskLen, n)
	}

	offset := 8
	if len(data) < offset+int(maskLen)+4 {
		return Packet{}, fmt.Errorf("fountain: packet too short for mask+crc")
	}
	maskBytes := make([]byte, maskLen)
	copy(maskBytes, data[offset:offset+int(maskLen)])
	offset += int(maskLen)

	crc := binary.LittleEndian.Uint32(data[offset : offset+4])
	offset += 4

	payload := data[offset:]

	return Packet{
		Seed:    seed,
		Mask:    BitsetFromBytes(maskBytes, n),
		Payload: payload,
		CRC:     crc,
	}, nil
}
