package convert

import (
	"math"

	"github.com/zsiec/cadence/internal/video"
)

// SceneDetector scores how different two consecutive frames are, in
// [0,100]. The score is the change in mean absolute frame difference
// rather than the raw difference, so sustained motion does not read as
// an endless run of cuts. The detector keeps the previous MAFD as state
// and must therefore be called once per consecutive frame pair, in
// temporal order.
type SceneDetector struct {
	bitDepth int
	prevMAFD float64
}

// NewSceneDetector creates a detector for frames of the given bit depth.
func NewSceneDetector(bitDepth int) *SceneDetector {
	return &SceneDetector{bitDepth: bitDepth}
}

// Score computes the scene change score between a and b. Frames with
// mismatched dimensions cannot be compared and score 0.
func (d *SceneDetector) Score(a, b *video.Frame) float64 {
	if a.Width != b.Width || a.Height != b.Height {
		return 0
	}

	var sad int64
	if d.bitDepth == 8 {
		sad = sceneSAD8(a, b)
	} else {
		sad = sceneSAD16(a, b)
	}

	// Trailing rows/columns narrower than a block are ignored.
	usable := (a.Height &^ 7) * (a.Width &^ 7)
	if usable < 1 {
		usable = 1
	}

	mafd := float64(sad) * 100.0 / float64(usable) / float64(int64(1)<<d.bitDepth)
	diff := math.Abs(mafd - d.prevMAFD)
	score := math.Min(mafd, diff)
	d.prevMAFD = mafd

	return math.Min(math.Max(score, 0), 100)
}

// sceneSAD8 accumulates 8x8-block SAD over the luma plane of two 8-bit
// frames.
func sceneSAD8(a, b *video.Frame) int64 {
	var sad int64
	pa, pb := a.Data[0], b.Data[0]
	sa, sb := a.Stride[0], b.Stride[0]
	for y := 0; y < a.Height-7; y += 8 {
		for x := 0; x < a.Width-7; x += 8 {
			sad += sad8x8(pa[y*sa+x:], sa, pb[y*sb+x:], sb)
		}
	}
	return sad
}

func sad8x8(p1 []byte, stride1 int, p2 []byte, stride2 int) int64 {
	var sum int64
	for y := 0; y < 8; y++ {
		r1 := p1[y*stride1:]
		r2 := p2[y*stride2:]
		for x := 0; x < 8; x++ {
			d := int(r1[x]) - int(r2[x])
			if d < 0 {
				d = -d
			}
			sum += int64(d)
		}
	}
	return sum
}

// sceneSAD16 is the >8-bit variant; samples are stored little-endian,
// two bytes each.
func sceneSAD16(a, b *video.Frame) int64 {
	var sad int64
	pa, pb := a.Data[0], b.Data[0]
	sa, sb := a.Stride[0], b.Stride[0]
	for y := 0; y < a.Height-7; y += 8 {
		for x := 0; x < a.Width-7; x += 8 {
			sad += sad8x8x16(pa[y*sa+2*x:], sa, pb[y*sb+2*x:], sb)
		}
	}
	return sad
}

func sad8x8x16(p1 []byte, stride1 int, p2 []byte, stride2 int) int64 {
	var sum int64
	for y := 0; y < 8; y++ {
		r1 := p1[y*stride1:]
		r2 := p2[y*stride2:]
		for x := 0; x < 8; x++ {
			s1 := int(r1[2*x]) | int(r1[2*x+1])<<8
			s2 := int(r2[2*x]) | int(r2[2*x+1])<<8
			d := s1 - s2
			if d < 0 {
				d = -d
			}
			sum += int64(d)
		}
	}
	return sum
}
