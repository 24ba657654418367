package videostream

import "io"

// FakeCodec is an in-memory Codec used by tests that exercise Writer
// and Reader without a real video backend.
type FakeCodec struct {
	frames [][]byte
	cursor int
	closed bool
}

// NewFakeCodec returns an empty in-memory codec ready for writing.
func NewFakeCodec() *FakeCodec {
	return &FakeCodec{}
}

// NewFakeCodecFromFrames returns an in-memory codec pre-loaded with
// frames, ready for reading.
func NewFakeCodecFromFrames(frames [][]byte) *FakeCodec {
	return &FakeCodec{frames: frames}
}

func (f *FakeCodec) WriteFrame(rgb []byte) error {
	cp := make([]byte, len(rgb))
	copy(cp, rgb)
	f.frames = append(f.frames, cp)
	return nil
}

func (f *FakeCodec) ReadFrame() ([]byte, error) {
	if f.cursor >= len(f.frames) {
		return nil, io.EOF
	}
	frame := f.frames[f.cursor]
	f.cursor++
	return frame, nil
}

func (f *FakeCodec) Close() error {
	f.closed = true
	return nil
}

// Frames returns every frame written so far, for assertions.
func (f *FakeCodec) Frames() [][]byte { return f.frames }
