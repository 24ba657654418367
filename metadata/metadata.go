// Package metadata defines the self-describing header record written
// into the first frames of a video container: the magic, chunk and
// packet layout, original file size and name, and a header checksum
// a reader can verify before trusting the rest of the record.
package metadata

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Magic identifies a valid metadata record.
var Magic = [4]byte{'R', 'V', 'S', '1'}

// Version is the only metadata record version this package writes or
// accepts.
const Version = 1

// FlagEncrypted, when set, means FileSize and Name describe the
// plaintext that existed before the AEAD envelope was applied; the
// stored payload itself is the encrypted envelope bytes.
const FlagEncrypted = 1 << 0

// Record is the on-wire metadata header:
// magic(4) | version(1) | flags(1) | N(4) | B(4) | file_size(8) |
// name_len(2) | name(name_len) | header_crc32(4).
type Record struct {
	Flags     uint8
	N         uint32 // number of source chunks
	ChunkSize uint32 // B, bytes per chunk
	FileSize  uint64 // size of the file the chunks decode to
	Name      string
}

// Encrypted reports whether FlagEncrypted is set.
func (r Record) Encrypted() bool { return r.Flags&FlagEncrypted != 0 }

// Serialize encodes the record, computing header_crc32 over every
// preceding field.
func (r Record) Serialize() ([]byte, error) {
	nameBytes := []byte(r.Name)
	if len(nameBytes) > 0xFFFF {
		return nil, fmt.Errorf("metadata: name too long (%d bytes)", len(nameBytes))
	}

	buf := make([]byte, 0, 4+1+1+4+4+8+2+len(nameBytes)+4)
	buf = append(buf, Magic[:]...)
	buf = append(buf, Version)
	buf = append(buf, r.Flags)

	var tmp4 [4]byte
	binary.LittleEndian.PutUint32(tmp4[:], r.N)
	buf = append(buf, tmp4[:]...)
	binary.LittleEndian.PutUint32(tmp4[:], r.ChunkSize)
	buf = append(buf, tmp4[:]...)

	var tmp8 [8]byte
	binary.LittleEndian.PutUint64(tmp8[:], r.FileSize)
	buf = append(buf, tmp8[:]...)

	var tmp2 [2]byte
	binary.LittleEndian.PutUint16(tmp2[:], uint16(len(nameBytes)))
	buf = append(buf, tmp2[:]...)
	buf = append(buf, nameBytes...)

	crc := crc32.ChecksumIEEE(buf)
	binary.LittleEndian.PutUint32(tmp4[:], crc)
	buf = append(buf, tmp4[:]...)

	return buf, nil
}

// Deserialize parses and validates a record, rejecting a bad magic,
// unsupported version, or a header_crc32 mismatch.
func Deserialize(data []byte) (Record, error) {
	const minLen = 4 + 1 + 1 + 4 + 4 + 8 + 2 + 4
	if len(data) < minLen {
		return Record{}, fmt.Errorf("metadata: record too short")
	}
	if data[0] != Magic[0] || data[1] != Magic[1] || data[2] != Magic[2] || data[3] != Magic[3] {
		return Record{}, fmt.Errorf("metadata: bad magic")
	}
	version := data[4]
	if version != Version {
		return Record{}, fmt.Errorf("metadata: unsupported version %d", version)
	}
	flags := data[5]
	n := binary.LittleEndian.Uint32(data[6:10])
	chunkSize := binary.LittleEndian.Uint32(data[10:14])
	fileSize := binary.LittleEndian.Uint64(data[14:22])
	nameLen := binary.LittleEndian.Uint16(data[22:24])

	if len(data) < 24+int(nameLen)+4 {
		return Record{}, fmt.Errorf("metadata: record too short for name+crc")
	}
	name := string(data[24 : 24+int(nameLen)])
	headerLen := 24 + int(nameLen)
	crc := binary.LittleEndian.Uint32(data[headerLen : headerLen+4])

	if crc32.ChecksumIEEE(data[:headerLen]) != crc {
		return Record{}, fmt.Errorf("metadata: header_crc32 mismatch")
	}

	return Record{
		Flags:     flags,
		N:         n,
		ChunkSize: chunkSize,
		FileSize:  fileSize,
		Name:      name,
	}, nil
}
