package y4m

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zsiec/cadence/internal/video"
)

// Reader decodes a YUV4MPEG2 stream frame by frame. Frames are tagged
// with a PTS counting up from zero in the stream timebase.
type Reader struct {
	br     *bufio.Reader
	header StreamHeader
	index  int64
}

// NewReader parses the stream header and returns a reader positioned at
// the first frame.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, 1<<16)

	line, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("reading stream header: %w", err)
	}
	header, err := parseStreamHeader(strings.TrimSuffix(line, "\n"))
	if err != nil {
		return nil, err
	}

	return &Reader{br: br, header: header}, nil
}

// Header returns the parsed stream header.
func (r *Reader) Header() StreamHeader {
	return r.header
}

// ReadFrame reads the next frame, returning io.EOF at end of stream.
func (r *Reader) ReadFrame() (*video.Frame, error) {
	line, err := r.br.ReadString('\n')
	if err != nil {
		if err == io.EOF && line == "" {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading frame header: %w", err)
	}
	if !strings.HasPrefix(line, frameMagic) {
		return nil, fmt.Errorf("malformed frame header %q", strings.TrimSpace(line))
	}

	frame := video.NewFrame(r.header.Format, r.header.Width, r.header.Height)
	for plane := range frame.Data {
		if _, err := io.ReadFull(r.br, frame.Data[plane]); err != nil {
			frame.Release()
			return nil, fmt.Errorf("reading plane %d: %w", plane, err)
		}
	}

	frame.PTS = r.index
	frame.TimeBase = r.header.TimeBase()
	r.index++

	return frame, nil
}

func parseStreamHeader(line string) (StreamHeader, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != streamMagic {
		return StreamHeader{}, fmt.Errorf("not a YUV4MPEG2 stream")
	}

	h := StreamHeader{
		// 420jpeg is the format's implied default colorspace.
		Format: video.PixelFormatYUV420P,
	}

	for _, field := range fields[1:] {
		if len(field) < 2 {
			return StreamHeader{}, fmt.Errorf("malformed header field %q", field)
		}
		tag, val := field[0], field[1:]
		switch tag {
		case 'W':
			w, err := strconv.Atoi(val)
			if err != nil || w <= 0 {
				return StreamHeader{}, fmt.Errorf("invalid width %q", val)
			}
			h.Width = w
		case 'H':
			ht, err := strconv.Atoi(val)
			if err != nil || ht <= 0 {
				return StreamHeader{}, fmt.Errorf("invalid height %q", val)
			}
			h.Height = ht
		case 'F':
			rate, err := parseRatio(val)
			if err != nil {
				return StreamHeader{}, fmt.Errorf("invalid frame rate %q", val)
			}
			h.FrameRate = rate
		case 'I':
			h.Interlace = val[0]
		case 'A':
			if aspect, err := parseRatio(val); err == nil {
				h.Aspect = aspect
			}
		case 'C':
			format, ok := colorspaces[val]
			if !ok {
				return StreamHeader{}, fmt.Errorf("unsupported colorspace %q", val)
			}
			h.Format = format
		case 'X':
			// Vendor extension, ignored.
		default:
			return StreamHeader{}, fmt.Errorf("unknown header tag %q", field)
		}
	}

	if h.Width == 0 || h.Height == 0 {
		return StreamHeader{}, fmt.Errorf("stream header missing dimensions")
	}
	if !h.FrameRate.IsValid() {
		return StreamHeader{}, fmt.Errorf("stream header missing frame rate")
	}

	return h, nil
}

func parseRatio(s string) (video.Rational, error) {
	num, den, ok := strings.Cut(s, ":")
	if !ok {
		return video.Rational{}, fmt.Errorf("missing separator")
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return video.Rational{}, err
	}
	d, err := strconv.Atoi(den)
	if err != nil {
		return video.Rational{}, err
	}
	return video.Rational{Num: n, Den: d}, nil
}
