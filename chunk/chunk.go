// Package chunk splits a byte buffer into fixed-size, CRC-checked chunks
// and reassembles them. It is the Chunker (component A): the only piece
// of the pipeline that knows about the whole-file length used to trim
// the final output.
package chunk

import "hash/crc32"

// Chunk is one fixed-size source symbol for the fountain layer.
// Payload is always exactly the chunk size passed to Split; the final
// chunk of a file is zero-padded to reach that length.
type Chunk struct {
	Index   uint32
	Payload []byte
}

// Split divides data into Count(len(data), size) chunks, zero-padding
// the last chunk to size. size must be > 0.
func Split(data []byte, size uint32) []Chunk {
	n := Count(uint64(len(data)), size)
	chunks := make([]Chunk, n)
	for i := uint32(0); i < n; i++ {
		start := uint64(i) * uint64(size)
		end := start + uint64(size)
		payload := make([]byte, size)
		if end > uint64(len(data)) {
			end = uint64(len(data))
		}
		copy(payload, data[start:end])
		chunks[i] = Chunk{Index: i, Payload: payload}
	}
	return chunks
}

// Count returns N = ceil(fileSize / size), except that an empty file
// still counts as one chunk and a zero size returns 0.
func Count(fileSize uint64, size uint32) uint32 {
	if size == 0 {
		return 0
	}
	if fileSize == 0 {
		return 1
	}
	return uint32((fileSize + uint64(size) - 1) / uint64(size))
}

// Join concatenates recovered chunks in index order and trims the result
// to fileSize bytes. The caller must have already verified every chunk
// index 0..len(chunks)-1 is present.
func Join(chunks [][]byte, fileSize uint64) []byte {
	out := make([]byte, 0, len(chunks)*len(chunks[0]))
	for _, c := range chunks {
		out = append(out, c...)
	}
	if uint64(len(out)) > fileSize {
		out = out[:fileSize]
	}
	return out
}

// DebugCRC32 is the IEEE CRC32 of a chunk's payload, computed only for
// debug tracing. It is never the on-wire CRC; the fountain layer's
// xor_crc (crc over the XORed packet payload) is the wire-protected
// value.
func DebugCRC32(payload []byte) uint32 {
	return crc32.ChecksumIEEE(payload)
}
