package videostream

import (
	"fmt"
	"io"

	"gocv.io/x/gocv"
)

// ReferenceFourCC selects the FFV1 lossless intra-frame codec; output
// files use a .mkv extension so OpenCV's backend muxes into Matroska.
const ReferenceFourCC = "FFV1"

// GocvWriter drives an FFV1-in-Matroska video as the frame carrier. It
// writes to a staging path and is only renamed into place on Close, so
// a crash mid-encode never leaves a partially written file at the
// final path.
type GocvWriter struct {
	writer      *gocv.VideoWriter
	width       int
	height      int
	stagingPath string
	finalPath   string
}

// NewGocvWriter opens a writer for width x height RGB frames at fps,
// staging output at stagingPath until Close renames it to finalPath.
func NewGocvWriter(stagingPath, finalPath string, width, height int, fps float64) (*GocvWriter, error) {
	w, err := gocv.VideoWriterFile(stagingPath, ReferenceFourCC, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("videostream: open writer: %w", err)
	}
	return &GocvWriter{
		writer:      w,
		width:       width,
		height:      height,
		stagingPath: stagingPath,
		finalPath:   finalPath,
	}, nil
}

// WriteFrame converts row-major RGB bytes to the BGR Mat layout
// OpenCV expects and appends it as the next frame.
func (w *GocvWriter) WriteFrame(rgb []byte) error {
	expected := w.width * w.height * 3
	if len(rgb) != expected {
		return fmt.Errorf("videostream: frame is %d bytes, want %d", len(rgb), expected)
	}

	mat, err := gocv.NewMatFromBytes(w.height, w.width, gocv.MatTypeCV8UC3, rgb)
	if err != nil {
		return fmt.Errorf("videostream: build frame mat: %w", err)
	}
	defer mat.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(mat, &bgr, gocv.ColorRGBToBGR)

	return w.writer.Write(bgr)
}

// Close flushes the writer and atomically publishes the staged file
// at finalPath.
func (w *GocvWriter) Close() error {
	if err := w.writer.Close(); err != nil {
		return err
	}
	return atomicPublish(w.stagingPath, w.finalPath)
}

// Abort closes the underlying writer without publishing the staged
// file, leaving finalPath untouched. Callers still need to remove the
// staging file themselves.
func (w *GocvWriter) Abort() error {
	return w.writer.Close()
}

// GocvReader reads frames back out of an FFV1-in-Matroska file.
type GocvReader struct {
	capture *gocv.VideoCapture
}

// NewGocvReader opens path for reading. Frame dimensions come from the
// container itself, not from the caller.
func NewGocvReader(path string) (*GocvReader, error) {
	c, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("videostream: open reader: %w", err)
	}
	return &GocvReader{capture: c}, nil
}

// ReadFrame returns the next frame as row-major RGB bytes, or io.EOF
// once the stream is exhausted.
func (r *GocvReader) ReadFrame() ([]byte, error) {
	bgr := gocv.NewMat()
	defer bgr.Close()

	if ok := r.capture.Read(&bgr); !ok || bgr.Empty() {
		return nil, io.EOF
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(bgr, &rgb, gocv.ColorBGRToRGB)

	return rgb.ToBytes(), nil
}

// Close releases the underlying capture.
func (r *GocvReader) Close() error {
	return r.capture.Close()
}
