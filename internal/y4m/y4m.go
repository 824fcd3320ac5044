// Package y4m reads and writes the YUV4MPEG2 uncompressed video stream
// format, the converter's file-based frame source and sink.
package y4m

import (
	"fmt"

	"github.com/zsiec/cadence/internal/video"
)

const (
	streamMagic = "YUV4MPEG2"
	frameMagic  = "FRAME"
)

// StreamHeader carries the stream-level parameters of a Y4M file.
type StreamHeader struct {
	Width     int
	Height    int
	FrameRate video.Rational
	Format    video.PixelFormat
	Interlace byte           // 'p', 't', 'b', 'm'; 0 when absent
	Aspect    video.Rational // zero when absent
}

// TimeBase returns the stream timebase (the inverse frame rate).
func (h StreamHeader) TimeBase() video.Rational {
	return h.FrameRate.Invert()
}

var colorspaces = map[string]video.PixelFormat{
	"420":      video.PixelFormatYUV420P,
	"420jpeg":  video.PixelFormatYUV420P,
	"420mpeg2": video.PixelFormatYUV420P,
	"420paldv": video.PixelFormatYUV420P,
	"411":      video.PixelFormatYUV411P,
	"422":      video.PixelFormatYUV422P,
	"440":      video.PixelFormatYUV440P,
	"444":      video.PixelFormatYUV444P,
	"420p9":    video.PixelFormatYUV420P9,
	"420p10":   video.PixelFormatYUV420P10,
	"420p12":   video.PixelFormatYUV420P12,
	"422p9":    video.PixelFormatYUV422P9,
	"422p10":   video.PixelFormatYUV422P10,
	"422p12":   video.PixelFormatYUV422P12,
	"444p9":    video.PixelFormatYUV444P9,
	"444p10":   video.PixelFormatYUV444P10,
	"444p12":   video.PixelFormatYUV444P12,
}

// colorspaceTag returns the canonical C tag for a pixel format.
func colorspaceTag(format video.PixelFormat) (string, error) {
	switch format {
	case video.PixelFormatYUV420P:
		return "420mpeg2", nil
	case video.PixelFormatYUV411P:
		return "411", nil
	case video.PixelFormatYUV422P:
		return "422", nil
	case video.PixelFormatYUV440P:
		return "440", nil
	case video.PixelFormatYUV444P:
		return "444", nil
	case video.PixelFormatYUV420P9:
		return "420p9", nil
	case video.PixelFormatYUV420P10:
		return "420p10", nil
	case video.PixelFormatYUV420P12:
		return "420p12", nil
	case video.PixelFormatYUV422P9:
		return "422p9", nil
	case video.PixelFormatYUV422P10:
		return "422p10", nil
	case video.PixelFormatYUV422P12:
		return "422p12", nil
	case video.PixelFormatYUV444P9:
		return "444p9", nil
	case video.PixelFormatYUV444P10:
		return "444p10", nil
	case video.PixelFormatYUV444P12:
		return "444p12", nil
	default:
		return "", fmt.Errorf("pixel format %s has no Y4M colorspace tag", format)
	}
}
