package video

import (
	"math"
	"sync/atomic"
)

// NoPTS marks a frame without a usable presentation timestamp.
const NoPTS = int64(math.MinInt64)

// pixelBuffer is the refcounted pixel storage shared between a frame and
// its clones. When the last reference is released the storage goes back
// to the pool it came from, if any.
type pixelBuffer struct {
	planes [][]byte
	refs   int32
	pool   *FramePool
}

func (b *pixelBuffer) retain() {
	atomic.AddInt32(&b.refs, 1)
}

func (b *pixelBuffer) release() {
	if atomic.AddInt32(&b.refs, -1) == 0 && b.pool != nil {
		b.pool.put(b)
	}
}

// Frame is a single planar video frame. The header (dimensions, format,
// timestamps) is owned by whoever holds the Frame; the pixel storage is
// shared and must not be written after the frame has been cloned.
type Frame struct {
	Format PixelFormat
	Width  int
	Height int

	// Data holds one slice per plane; Stride is the per-plane row pitch
	// in bytes. Rows may be padded, so Stride can exceed LineSize.
	Data   [][]byte
	Stride []int

	PTS      int64
	TimeBase Rational

	buf *pixelBuffer
}

// NewFrame allocates a frame with tightly packed planes.
func NewFrame(format PixelFormat, width, height int) *Frame {
	buf := newPixelBuffer(format, width, height, nil)
	return frameAround(buf, format, width, height)
}

func newPixelBuffer(format PixelFormat, width, height int, pool *FramePool) *pixelBuffer {
	desc := format.Desc()
	planes := make([][]byte, desc.Planes)
	for i := range planes {
		w, h := format.PlaneDims(i, width, height)
		planes[i] = make([]byte, w*h*format.BytesPerSample())
	}
	return &pixelBuffer{planes: planes, refs: 1, pool: pool}
}

func frameAround(buf *pixelBuffer, format PixelFormat, width, height int) *Frame {
	desc := format.Desc()
	f := &Frame{
		Format: format,
		Width:  width,
		Height: height,
		Data:   make([][]byte, desc.Planes),
		Stride: make([]int, desc.Planes),
		PTS:    NoPTS,
		buf:    buf,
	}
	for i := 0; i < desc.Planes; i++ {
		f.Data[i] = buf.planes[i]
		f.Stride[i] = format.LineSize(i, width)
	}
	return f
}

// Clone returns a new frame header sharing this frame's pixel storage.
// No pixel data is copied or allocated.
func (f *Frame) Clone() *Frame {
	f.buf.retain()
	clone := *f
	clone.Data = append([][]byte(nil), f.Data...)
	clone.Stride = append([]int(nil), f.Stride...)
	return &clone
}

// Release drops this frame's reference to the pixel storage. The frame
// must not be used afterwards.
func (f *Frame) Release() {
	if f.buf != nil {
		f.buf.release()
		f.buf = nil
	}
}

// SharesStorage reports whether two frames reference the same pixels.
func (f *Frame) SharesStorage(other *Frame) bool {
	return f.buf != nil && f.buf == other.buf
}

// CopyProps copies presentation properties (not pixels) from src.
func (f *Frame) CopyProps(src *Frame) {
	f.PTS = src.PTS
	f.TimeBase = src.TimeBase
}

// SamplesPerLine returns the number of samples per row of the plane.
func (f *Frame) SamplesPerLine(plane int) int {
	w, _ := f.Format.PlaneDims(plane, f.Width, f.Height)
	return w
}

// PlaneHeight returns the number of rows in the plane.
func (f *Frame) PlaneHeight(plane int) int {
	_, h := f.Format.PlaneDims(plane, f.Width, f.Height)
	return h
}

// Row returns the byte slice covering one row of a plane.
func (f *Frame) Row(plane, row int) []byte {
	off := row * f.Stride[plane]
	return f.Data[plane][off : off+f.Format.LineSize(plane, f.Width)]
}

// Sample reads a single sample, widening 8-bit storage as needed.
// Intended for tests and diagnostics, not the pixel loops.
func (f *Frame) Sample(plane, x, y int) int {
	row := f.Row(plane, y)
	if f.Format.BytesPerSample() == 1 {
		return int(row[x])
	}
	return int(uint16(row[2*x]) | uint16(row[2*x+1])<<8)
}

// SetSample writes a single sample. Same caveat as Sample.
func (f *Frame) SetSample(plane, x, y, value int) {
	row := f.Row(plane, y)
	if f.Format.BytesPerSample() == 1 {
		row[x] = byte(value)
		return
	}
	row[2*x] = byte(value)
	row[2*x+1] = byte(value >> 8)
}
