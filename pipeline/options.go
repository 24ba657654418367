package pipeline

import (
	"rvs/fountain"
	"rvs/frame"
	"rvs/rvserr"
)

// Options configures Encode. Decode derives everything it needs from
// the metadata record embedded in the video instead of taking options
// of its own.
type Options struct {
	ChunkSize  uint32
	Redundancy float32
	Width      uint32
	Height     uint32
	FPS        uint32
}

// DefaultOptions returns the reference defaults.
func DefaultOptions() Options {
	return Options{
		ChunkSize:  4096,
		Redundancy: 0.30,
		Width:      3840,
		Height:     2160,
		FPS:        30,
	}
}

// Validate rejects option combinations that cannot produce a usable
// stream.
func (o Options) Validate() error {
	if o.ChunkSize == 0 {
		return rvserr.NewInvalidInput("chunk_size must be greater than zero")
	}
	if o.Redundancy < 0 {
		return rvserr.NewInvalidInput("redundancy must not be negative")
	}
	if o.Width == 0 || o.Height == 0 {
		return rvserr.NewInvalidInput("width and height must be greater than zero")
	}
	if o.FPS == 0 {
		return rvserr.NewInvalidInput("fps must be greater than zero")
	}
	// A single-chunk stream is the smallest possible packet wire size
	// (one mask byte); if even that does not fit, no chunk count ever
	// will, so this is rejected up front rather than discovered after
	// chunking and fountain-encoding the whole file.
	if frame.Capacity(o.Width, o.Height) < fountain.WireSize(1, o.ChunkSize) {
		return rvserr.NewInvalidInput("chunk_size does not fit a single frame at the configured resolution")
	}
	return nil
}

// assertCapacity checks the frame capacity against the worst-case
// packet wire size for an actual chunk count n, once n is known (mask
// length grows with n). Called right after chunking, before the
// fountain encoder runs, so an oversized configuration is rejected
// before any encoding work is done.
func (o Options) assertCapacity(n int) error {
	capacity := frame.Capacity(o.Width, o.Height)
	wireSize := fountain.WireSize(n, o.ChunkSize)
	if capacity < wireSize {
		return rvserr.NewInvalidInput("packet wire size exceeds frame capacity at the configured resolution")
	}
	return nil
}
