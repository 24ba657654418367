// Package videostream drives a lossless intra-frame video codec as the
// carrier for a sequence of opaque, fixed-size frames: first the
// self-describing metadata frames, then the fountain packet frames, in
// systematic-first order. The codec itself is reached only through the
// narrow Codec interface, so the core pipeline never depends on gocv
// or any particular container directly.
package videostream

import "io"

// Codec is the narrow adapter the rest of this package is written
// against. rgb is always exactly width*height*3 bytes: one byte per
// channel, row-major, R, G, B. A real codec binding only ever needs to
// implement one direction; FrameWriter and FrameReader split the
// interface so gocv's separate VideoWriter/VideoCapture types each
// satisfy exactly what they need to.
type Codec interface {
	WriteFrame(rgb []byte) error
	// ReadFrame returns io.EOF once every frame has been read.
	ReadFrame() ([]byte, error)
	Close() error
}

// FrameWriter is the write half of Codec.
type FrameWriter interface {
	WriteFrame(rgb []byte) error
	Close() error
}

// FrameReader is the read half of Codec.
type FrameReader interface {
	ReadFrame() ([]byte, error)
	Close() error
}

// ErrEOF is returned by implementations in place of io.EOF when they
// want to be explicit about it; ReadFrame callers should still check
// errors.Is(err, io.EOF).
var ErrEOF = io.EOF
