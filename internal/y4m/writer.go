package y4m

import (
	"bufio"
	"fmt"
	"io"

	"github.com/zsiec/cadence/internal/video"
)

// Writer encodes frames as a YUV4MPEG2 stream.
type Writer struct {
	bw     *bufio.Writer
	header StreamHeader
	wrote  bool
}

// NewWriter creates a writer that will emit the given stream header
// before the first frame.
func NewWriter(w io.Writer, header StreamHeader) (*Writer, error) {
	if _, err := colorspaceTag(header.Format); err != nil {
		return nil, err
	}
	if header.Width <= 0 || header.Height <= 0 {
		return nil, fmt.Errorf("invalid stream dimensions %dx%d", header.Width, header.Height)
	}
	if !header.FrameRate.IsValid() {
		return nil, fmt.Errorf("invalid stream frame rate %s", header.FrameRate)
	}
	return &Writer{bw: bufio.NewWriterSize(w, 1<<16), header: header}, nil
}

// WriteFrame appends one frame, emitting the stream header first if
// needed. The frame must match the stream geometry.
func (w *Writer) WriteFrame(frame *video.Frame) error {
	if frame.Format != w.header.Format || frame.Width != w.header.Width || frame.Height != w.header.Height {
		return fmt.Errorf("frame %s %dx%d does not match stream %s %dx%d",
			frame.Format, frame.Width, frame.Height,
			w.header.Format, w.header.Width, w.header.Height)
	}

	if !w.wrote {
		if err := w.writeStreamHeader(); err != nil {
			return err
		}
		w.wrote = true
	}

	if _, err := fmt.Fprintf(w.bw, "%s\n", frameMagic); err != nil {
		return err
	}
	for plane := range frame.Data {
		lineSize := frame.Format.LineSize(plane, frame.Width)
		height := frame.PlaneHeight(plane)
		for row := 0; row < height; row++ {
			if _, err := w.bw.Write(frame.Row(plane, row)[:lineSize]); err != nil {
				return fmt.Errorf("writing plane %d: %w", plane, err)
			}
		}
	}
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

func (w *Writer) writeStreamHeader() error {
	tag, err := colorspaceTag(w.header.Format)
	if err != nil {
		return err
	}

	interlace := w.header.Interlace
	if interlace == 0 {
		interlace = 'p'
	}

	_, err = fmt.Fprintf(w.bw, "%s W%d H%d F%d:%d I%c A%d:%d C%s\n",
		streamMagic, w.header.Width, w.header.Height,
		w.header.FrameRate.Num, w.header.FrameRate.Den,
		interlace,
		max(w.header.Aspect.Num, 0), max(w.header.Aspect.Den, 0),
		tag)
	return err
}
