package video

import (
	"github.com/zsiec/cadence/internal/errors"
	"github.com/zsiec/cadence/internal/logger"
	"github.com/zsiec/cadence/internal/metrics"
)

// maxFrameDimension bounds a single side of a pooled frame. Anything
// larger is treated as an allocation failure rather than an attempt.
const maxFrameDimension = 1 << 16

// FramePool hands out output frames of a fixed geometry, recycling pixel
// storage released by downstream consumers.
type FramePool struct {
	format PixelFormat
	width  int
	height int
	logger logger.Logger

	freeList chan *pixelBuffer
}

// NewFramePool creates a pool for frames of the given geometry with up to
// size recycled buffers.
func NewFramePool(format PixelFormat, width, height, size int, log logger.Logger) (*FramePool, error) {
	if !format.IsValid() {
		return nil, errors.NewValidationError("unsupported pixel format")
	}
	if width <= 0 || height <= 0 || width > maxFrameDimension || height > maxFrameDimension {
		return nil, errors.NewAllocationError("frame geometry out of range")
	}
	if size <= 0 {
		size = 4
	}
	return &FramePool{
		format:   format,
		width:    width,
		height:   height,
		logger:   log,
		freeList: make(chan *pixelBuffer, size),
	}, nil
}

// Get returns a writable frame backed by pooled or new storage.
func (p *FramePool) Get() (*Frame, error) {
	var buf *pixelBuffer
	select {
	case buf = <-p.freeList:
		buf.refs = 1
		metrics.IncPoolReused()
	default:
		buf = newPixelBuffer(p.format, p.width, p.height, p)
		metrics.IncPoolAllocated()
	}
	metrics.SetPoolFree(len(p.freeList))
	return frameAround(buf, p.format, p.width, p.height), nil
}

// put recycles released storage. Called from pixelBuffer.release when the
// last frame reference goes away.
func (p *FramePool) put(buf *pixelBuffer) {
	select {
	case p.freeList <- buf:
	default:
		// Pool is full, let GC take it.
		if p.logger != nil {
			p.logger.Debug("Frame pool full, discarding buffer")
		}
	}
	metrics.SetPoolFree(len(p.freeList))
}

// Free returns the number of recycled buffers currently held.
func (p *FramePool) Free() int {
	return len(p.freeList)
}
