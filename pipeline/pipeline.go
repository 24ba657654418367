// Package pipeline wires the individual components into the two
// public operations: Encode drives envelope (when a password is given)
// -> chunker -> fountain encoder -> frame packer -> stream writer;
// Decode reverses that
// order, deriving every parameter it needs from the metadata record
// embedded in the video instead of from caller-supplied options.
package pipeline

import (
	"os"
	"path/filepath"

	"rvs/chunk"
	"rvs/cryptography"
	"rvs/fountain"
	"rvs/frame"
	"rvs/metadata"
	"rvs/rvserr"
	"rvs/util"
	"rvs/videostream"
)

// Encode reads inputPath, optionally seals it under password, splits
// it into chunks, fountain-encodes those chunks, and writes the
// resulting metadata-then-packet frame sequence to outputPath as a
// lossless intra-frame video. password may be nil for an unencrypted
// stream.
func Encode(inputPath, outputPath string, password []byte, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	stagingPath, err := util.StagingPath(outputPath)
	if err != nil {
		return rvserr.NewIoError("creating staging file", err)
	}

	codec, err := videostream.NewGocvWriter(stagingPath, outputPath, int(opts.Width), int(opts.Height), float64(opts.FPS))
	if err != nil {
		os.Remove(stagingPath)
		return rvserr.NewIoError("opening video writer", err)
	}

	if err := encodeCore(inputPath, codec, password, opts); err != nil {
		codec.Abort()
		os.Remove(stagingPath)
		return err
	}

	if err := codec.Close(); err != nil {
		os.Remove(stagingPath)
		os.Remove(outputPath)
		return rvserr.NewIoError("closing video writer", err)
	}
	return nil
}

// encodeCore does the actual chunk/envelope/fountain/frame work against
// an already-open FrameWriter, independent of where that writer's
// bytes end up. This is what tests drive with videostream.FakeCodec.
func encodeCore(inputPath string, codec videostream.FrameWriter, password []byte, opts Options) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return rvserr.NewIoError("reading input file", err)
	}
	if len(data) == 0 {
		return rvserr.NewInvalidInput("input file is empty")
	}

	plainSize := uint64(len(data))
	name := util.FixUnicode(util.BaseName(inputPath))

	var flags uint8
	payload := data
	if password != nil {
		sealed, err := cryptography.Seal(data, password)
		if err != nil {
			return rvserr.NewIoError("sealing input under password", err)
		}
		payload = sealed
		flags |= metadata.FlagEncrypted
	}

	chunks := chunk.Split(payload, opts.ChunkSize)
	n := len(chunks)
	chunkBytes := make([][]byte, n)
	for i, c := range chunks {
		chunkBytes[i] = c.Payload
	}

	if err := opts.assertCapacity(n); err != nil {
		return err
	}

	enc := fountain.NewEncoder(chunkBytes, opts.ChunkSize, opts.Redundancy)
	packets := enc.Generate()

	record := metadata.Record{
		Flags:     flags,
		N:         uint32(n),
		ChunkSize: opts.ChunkSize,
		FileSize:  plainSize,
		Name:      name,
	}

	capacity := frame.Capacity(opts.Width, opts.Height)

	writer := videostream.NewWriter(codec, capacity)
	if err := writer.WriteMetadata(record); err != nil {
		return rvserr.NewIoError("writing metadata frame", err)
	}

	for _, p := range packets {
		packed, err := frame.Pack(p, capacity)
		if err != nil {
			return rvserr.NewIoError("packing fountain packet into frame", err)
		}
		if err := writer.WriteDataFrame(packed); err != nil {
			return rvserr.NewIoError("writing data frame", err)
		}
	}
	return nil
}

// Decode reads the metadata record and data frames out of inputPath,
// fountain-decodes the chunks, reassembles the file, opens the AEAD
// envelope if the record says it is encrypted, and writes the result
// to outputPath.
func Decode(inputPath, outputPath string, password []byte) error {
	codec, err := videostream.NewGocvReader(inputPath)
	if err != nil {
		return rvserr.NewIoError("opening video reader", err)
	}
	defer codec.Close()

	plaintext, err := decodeCore(codec, password)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil && filepath.Dir(outputPath) != "." {
		return rvserr.NewIoError("creating output directory", err)
	}
	if err := os.WriteFile(outputPath, plaintext, 0o644); err != nil {
		return rvserr.NewIoError("writing output file", err)
	}
	return nil
}

// decodeCore does the actual stream-reading/fountain-decode/envelope
// work against an already-open FrameReader, returning the recovered
// plaintext bytes.
func decodeCore(codec videostream.FrameReader, password []byte) ([]byte, error) {
	reader := videostream.NewReader(codec)
	record, err := reader.ReadMetadata()
	if err != nil {
		return nil, err // already an *rvserr.InvalidVideo
	}
	if record.N == 0 {
		return nil, rvserr.NewInvalidVideo("metadata declares zero chunks")
	}

	dec := fountain.NewDecoder(int(record.N), record.ChunkSize)
	for {
		df, err := reader.ReadDataFrame()
		if err != nil {
			break // EOF: whatever was collected is all there is
		}
		p, err := frame.Unpack(df, int(record.N), record.ChunkSize)
		if err != nil {
			continue // malformed frame, treat like a dropped packet
		}
		dec.AddPacket(p)
	}

	chunks, missing := dec.Finish()
	if missing != nil {
		return nil, rvserr.NewIncompleteRecovery(missing)
	}

	envelopeSize := record.FileSize
	if record.Encrypted() {
		// the stored payload is the sealed envelope, whose size is
		// FileSize (plaintext) plus the fixed envelope overhead.
		envelopeSize = record.FileSize + uint64(cryptography.EnvelopeOverhead)
	}
	payload := chunk.Join(chunks, envelopeSize)

	var plaintext []byte
	if record.Encrypted() {
		if password == nil {
			return nil, rvserr.NewAuthFailure("stream is encrypted but no password was supplied")
		}
		pt, ok, err := cryptography.Open(payload, password)
		if err != nil {
			return nil, rvserr.NewIoError("opening AEAD envelope", err)
		}
		if !ok {
			return nil, rvserr.NewAuthFailure("AEAD tag mismatch")
		}
		plaintext = pt
	} else {
		plaintext = payload
	}

	if uint64(len(plaintext)) != record.FileSize {
		return nil, rvserr.NewIntegrityFailure(0)
	}
	return plaintext, nil
}
