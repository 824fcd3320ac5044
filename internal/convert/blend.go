package convert

import (
	"time"

	"github.com/zsiec/cadence/internal/errors"
	"github.com/zsiec/cadence/internal/logger"
	"github.com/zsiec/cadence/internal/metrics"
	"github.com/zsiec/cadence/internal/video"
)

// Blender produces fixed-point weighted combinations of two same-sized
// frames. Output rows are partitioned across workers; sources are only
// read and destination row ranges are disjoint, so the workers share no
// mutable state.
type Blender struct {
	bitDepth int
	max      int
	workers  int
	pool     *video.FramePool
}

// NewBlender creates a blender for frames of the given geometry. The
// output frames it produces come from a dedicated pool.
func NewBlender(format video.PixelFormat, width, height, workers, poolSize int, log logger.Logger) (*Blender, error) {
	pool, err := video.NewFramePool(format, width, height, poolSize, log)
	if err != nil {
		return nil, err
	}
	return &Blender{
		bitDepth: format.BitDepth(),
		max:      1 << format.BitDepth(),
		workers:  workers,
		pool:     pool,
	}, nil
}

// Max returns the fixed-point weight scale (2^bitdepth).
func (b *Blender) Max() int {
	return b.max
}

// Blend combines src1 and src2 into a newly allocated frame, weighting
// each sample by w1 and w2 respectively. Requires w1+w2 == Max() and
// identical source geometry.
func (b *Blender) Blend(src1, src2 *video.Frame, w1, w2 int) (*video.Frame, error) {
	if src1.Format != src2.Format || src1.Width != src2.Width || src1.Height != src2.Height {
		return nil, errors.NewGeometryError("blend sources differ in format or dimensions")
	}
	if w1+w2 != b.max {
		return nil, errors.NewValidationError("blend weights must sum to the weight scale")
	}

	dst, err := b.pool.Get()
	if err != nil {
		return nil, err
	}
	dst.CopyProps(src1)

	nbJobs := b.workers
	if nbJobs > src1.Height {
		nbJobs = src1.Height
	}

	start := time.Now()
	if b.bitDepth == 8 {
		parallelFor(nbJobs, func(job, nbJobs int) {
			blendSlice8(src1, src2, dst, w1, w2, job, nbJobs)
		})
	} else {
		parallelFor(nbJobs, func(job, nbJobs int) {
			blendSlice16(src1, src2, dst, w1, w2, b.bitDepth, job, nbJobs)
		})
	}
	metrics.ObserveBlendDuration(time.Since(start).Seconds())

	return dst, nil
}

// blendSlice8 blends one job's share of rows for every plane of 8-bit
// frames. Chroma samples are centered on 128 before weighting: 32896 is
// 128.5 in 8.8 fixed point, re-biasing the result and rounding.
func blendSlice8(src1, src2, dst *video.Frame, w1, w2, job, nbJobs int) {
	for plane := 0; plane < len(dst.Data); plane++ {
		width := dst.SamplesPerLine(plane)
		// Chroma plane heights are the luma height shifted by the
		// vertical subsampling factor, so job boundaries stay aligned
		// across planes.
		planeH := dst.PlaneHeight(plane)
		start := planeH * job / nbJobs
		end := planeH * (job + 1) / nbJobs
		chroma := plane == 1 || plane == 2

		for line := start; line < end; line++ {
			r1 := src1.Row(plane, line)
			r2 := src2.Row(plane, line)
			d := dst.Row(plane, line)
			if chroma {
				for px := 0; px < width; px++ {
					d[px] = byte(((int(r1[px])-128)*w1 + (int(r2[px])-128)*w2 + 32896) >> 8)
				}
			} else {
				// integer form of s1*w1 + s2*w2 + 0.5, 128 being 0.5 << 8
				for px := 0; px < width; px++ {
					d[px] = byte((int(r1[px])*w1 + int(r2[px])*w2 + 128) >> 8)
				}
			}
		}
	}
}

// blendSlice16 is the generic >8-bit path; half-point and bias constants
// are derived from the bit depth once and reused for every sample.
func blendSlice16(src1, src2, dst *video.Frame, w1, w2, bitDepth, job, nbJobs int) {
	max := 1 << bitDepth
	half := max / 2
	uv := (max + 1) * half
	shift := bitDepth

	for plane := 0; plane < len(dst.Data); plane++ {
		width := dst.SamplesPerLine(plane)
		planeH := dst.PlaneHeight(plane)
		start := planeH * job / nbJobs
		end := planeH * (job + 1) / nbJobs
		chroma := plane == 1 || plane == 2

		for line := start; line < end; line++ {
			r1 := src1.Row(plane, line)
			r2 := src2.Row(plane, line)
			d := dst.Row(plane, line)
			if chroma {
				for px := 0; px < width; px++ {
					s1 := int(r1[2*px]) | int(r1[2*px+1])<<8
					s2 := int(r2[2*px]) | int(r2[2*px+1])<<8
					v := ((s1-half)*w1 + (s2-half)*w2 + uv) >> shift
					d[2*px] = byte(v)
					d[2*px+1] = byte(v >> 8)
				}
			} else {
				for px := 0; px < width; px++ {
					s1 := int(r1[2*px]) | int(r1[2*px+1])<<8
					s2 := int(r2[2*px]) | int(r2[2*px+1])<<8
					v := (s1*w1 + s2*w2 + half) >> shift
					d[2*px] = byte(v)
					d[2*px+1] = byte(v >> 8)
				}
			}
		}
	}
}
