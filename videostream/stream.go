package videostream

import (
	"encoding/binary"
	"io"

	"rvs/metadata"
	"rvs/rvserr"
)

// maxMetadataScanFrames bounds how many leading frames the reader
// will examine while looking for a valid metadata record before
// giving up and reporting InvalidVideo.
const maxMetadataScanFrames = 8

// Writer emits metadata frames followed by data frames onto a Codec,
// all zero-padded to the frame capacity.
type Writer struct {
	codec    FrameWriter
	capacity int
}

// NewWriter wraps codec; capacity is the frame byte capacity
// (width*height*3) every frame, metadata or data, is padded out to.
func NewWriter(codec FrameWriter, capacity int) *Writer {
	return &Writer{codec: codec, capacity: capacity}
}

// WriteMetadata serializes record and writes it as one or more
// length-prefixed frames: the first frame carries a 4-byte
// little-endian total length ahead of the record bytes, so a reader
// knows before it finishes reading whether more metadata frames
// follow.
func (w *Writer) WriteMetadata(record metadata.Record) error {
	wire, err := record.Serialize()
	if err != nil {
		return err
	}

	prefixed := make([]byte, 4+len(wire))
	binary.LittleEndian.PutUint32(prefixed, uint32(len(wire)))
	copy(prefixed[4:], wire)

	for offset := 0; offset < len(prefixed); offset += w.capacity {
		end := offset + w.capacity
		if end > len(prefixed) {
			end = len(prefixed)
		}
		frame := make([]byte, w.capacity)
		copy(frame, prefixed[offset:end])
		if err := w.codec.WriteFrame(frame); err != nil {
			return err
		}
	}
	return nil
}

// WriteDataFrame writes one already-packed, already-padded data frame.
func (w *Writer) WriteDataFrame(frame []byte) error {
	return w.codec.WriteFrame(frame)
}

// Close closes the underlying codec.
func (w *Writer) Close() error { return w.codec.Close() }

// Reader reads the metadata record off the front of a stream, then
// hands back data frames one at a time.
type Reader struct {
	codec   FrameReader
	pending [][]byte // data frames already read while scanning for metadata
}

// NewReader wraps codec.
func NewReader(codec FrameReader) *Reader {
	return &Reader{codec: codec}
}

// ReadMetadata scans up to maxMetadataScanFrames leading frames for a
// valid, self-describing metadata record, returning InvalidVideo if
// none is found.
func (r *Reader) ReadMetadata() (metadata.Record, error) {
	var buffered [][]byte

	for startIdx := 0; startIdx < maxMetadataScanFrames; startIdx++ {
		for len(buffered) <= startIdx && len(buffered) < maxMetadataScanFrames {
			frame, err := r.codec.ReadFrame()
			if err != nil {
				return metadata.Record{}, rvserr.NewInvalidVideo("no valid metadata record found before end of stream")
			}
			buffered = append(buffered, frame)
		}
		if len(buffered) <= startIdx {
			break
		}

		record, consumed, ok := r.tryParseFrom(&buffered, startIdx)
		if ok {
			r.pending = append(r.pending, buffered[startIdx+consumed:]...)
			return record, nil
		}
	}

	return metadata.Record{}, rvserr.NewInvalidVideo("no valid metadata record found in first frames")
}

// tryParseFrom attempts to interpret buffered[startIdx:] as a
// length-prefixed metadata record, reading additional frames from the
// codec if the record spans more frames than are currently buffered.
// Frames it reads are appended to *buffered. It returns the number of
// frames (starting at startIdx) the record consumed.
func (r *Reader) tryParseFrom(buffered *[][]byte, startIdx int) (metadata.Record, int, bool) {
	first := (*buffered)[startIdx]
	if len(first) < 4 {
		return metadata.Record{}, 0, false
	}
	totalLen := binary.LittleEndian.Uint32(first[:4])
	if totalLen == 0 || totalLen > uint32(1<<28) {
		return metadata.Record{}, 0, false
	}

	assembled := make([]byte, 0, totalLen)
	assembled = append(assembled, first[4:]...)
	framesUsed := 1

	for uint32(len(assembled)) < totalLen {
		idx := startIdx + framesUsed
		if idx >= len(*buffered) {
			if len(*buffered) >= maxMetadataScanFrames {
				return metadata.Record{}, 0, false
			}
			frame, err := r.codec.ReadFrame()
			if err == io.EOF || err != nil {
				return metadata.Record{}, 0, false
			}
			*buffered = append(*buffered, frame)
		}
		assembled = append(assembled, (*buffered)[idx]...)
		framesUsed++
	}

	if uint32(len(assembled)) > totalLen {
		assembled = assembled[:totalLen]
	}

	record, err := metadata.Deserialize(assembled)
	if err != nil {
		return metadata.Record{}, 0, false
	}
	return record, framesUsed, true
}

// ReadDataFrame returns the next raw data frame (still padded to
// capacity), draining any buffered frames collected while scanning
// for metadata before reading fresh ones from the codec.
func (r *Reader) ReadDataFrame() ([]byte, error) {
	if len(r.pending) > 0 {
		frame := r.pending[0]
		r.pending = r.pending[1:]
		return frame, nil
	}
	return r.codec.ReadFrame()
}

// Close closes the underlying codec.
func (r *Reader) Close() error { return r.codec.Close() }
