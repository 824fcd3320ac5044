package video

// PixelFormat identifies a planar YUV pixel layout
type PixelFormat uint8

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatYUV410P
	PixelFormatYUV411P
	PixelFormatYUV420P
	PixelFormatYUV422P
	PixelFormatYUV440P
	PixelFormatYUV444P
	PixelFormatYUV420P9
	PixelFormatYUV420P10
	PixelFormatYUV420P12
	PixelFormatYUV422P9
	PixelFormatYUV422P10
	PixelFormatYUV422P12
	PixelFormatYUV444P9
	PixelFormatYUV444P10
	PixelFormatYUV444P12
)

// FormatDesc describes the geometry and sample layout of a pixel format.
type FormatDesc struct {
	Name     string
	BitDepth int
	Planes   int
	// Chroma plane dimensions are the luma dimensions right-shifted by
	// these amounts.
	ChromaShiftW int
	ChromaShiftH int
}

var formatDescs = map[PixelFormat]FormatDesc{
	PixelFormatYUV410P:   {Name: "yuv410p", BitDepth: 8, Planes: 3, ChromaShiftW: 2, ChromaShiftH: 2},
	PixelFormatYUV411P:   {Name: "yuv411p", BitDepth: 8, Planes: 3, ChromaShiftW: 2, ChromaShiftH: 0},
	PixelFormatYUV420P:   {Name: "yuv420p", BitDepth: 8, Planes: 3, ChromaShiftW: 1, ChromaShiftH: 1},
	PixelFormatYUV422P:   {Name: "yuv422p", BitDepth: 8, Planes: 3, ChromaShiftW: 1, ChromaShiftH: 0},
	PixelFormatYUV440P:   {Name: "yuv440p", BitDepth: 8, Planes: 3, ChromaShiftW: 0, ChromaShiftH: 1},
	PixelFormatYUV444P:   {Name: "yuv444p", BitDepth: 8, Planes: 3, ChromaShiftW: 0, ChromaShiftH: 0},
	PixelFormatYUV420P9:  {Name: "yuv420p9", BitDepth: 9, Planes: 3, ChromaShiftW: 1, ChromaShiftH: 1},
	PixelFormatYUV420P10: {Name: "yuv420p10", BitDepth: 10, Planes: 3, ChromaShiftW: 1, ChromaShiftH: 1},
	PixelFormatYUV420P12: {Name: "yuv420p12", BitDepth: 12, Planes: 3, ChromaShiftW: 1, ChromaShiftH: 1},
	PixelFormatYUV422P9:  {Name: "yuv422p9", BitDepth: 9, Planes: 3, ChromaShiftW: 1, ChromaShiftH: 0},
	PixelFormatYUV422P10: {Name: "yuv422p10", BitDepth: 10, Planes: 3, ChromaShiftW: 1, ChromaShiftH: 0},
	PixelFormatYUV422P12: {Name: "yuv422p12", BitDepth: 12, Planes: 3, ChromaShiftW: 1, ChromaShiftH: 0},
	PixelFormatYUV444P9:  {Name: "yuv444p9", BitDepth: 9, Planes: 3, ChromaShiftW: 0, ChromaShiftH: 0},
	PixelFormatYUV444P10: {Name: "yuv444p10", BitDepth: 10, Planes: 3, ChromaShiftW: 0, ChromaShiftH: 0},
	PixelFormatYUV444P12: {Name: "yuv444p12", BitDepth: 12, Planes: 3, ChromaShiftW: 0, ChromaShiftH: 0},
}

// SupportedFormats lists every pixel format the converter can process.
func SupportedFormats() []PixelFormat {
	return []PixelFormat{
		PixelFormatYUV410P, PixelFormatYUV411P,
		PixelFormatYUV420P, PixelFormatYUV422P,
		PixelFormatYUV440P, PixelFormatYUV444P,
		PixelFormatYUV420P9, PixelFormatYUV420P10, PixelFormatYUV420P12,
		PixelFormatYUV422P9, PixelFormatYUV422P10, PixelFormatYUV422P12,
		PixelFormatYUV444P9, PixelFormatYUV444P10, PixelFormatYUV444P12,
	}
}

// Desc returns the descriptor for the format. Unknown formats return a
// zero descriptor.
func (p PixelFormat) Desc() FormatDesc {
	return formatDescs[p]
}

// String returns the format name
func (p PixelFormat) String() string {
	if d, ok := formatDescs[p]; ok {
		return d.Name
	}
	return "unknown"
}

// IsValid reports whether the format is one the converter supports.
func (p PixelFormat) IsValid() bool {
	_, ok := formatDescs[p]
	return ok
}

// BitDepth returns the sample bit depth (8-12).
func (p PixelFormat) BitDepth() int {
	return formatDescs[p].BitDepth
}

// BytesPerSample returns 1 for 8-bit formats and 2 for deeper ones.
func (p PixelFormat) BytesPerSample() int {
	if formatDescs[p].BitDepth > 8 {
		return 2
	}
	return 1
}

// PlaneDims returns the sample dimensions of the given plane for a frame
// of the given luma dimensions. Plane 0 is luma, planes 1 and 2 chroma.
func (p PixelFormat) PlaneDims(plane, width, height int) (int, int) {
	d := formatDescs[p]
	if plane == 1 || plane == 2 {
		return width >> d.ChromaShiftW, height >> d.ChromaShiftH
	}
	return width, height
}

// LineSize returns the number of bytes per row of the given plane.
func (p PixelFormat) LineSize(plane, width int) int {
	w, _ := p.PlaneDims(plane, width, 0)
	return w * p.BytesPerSample()
}

// ParsePixelFormat resolves a format by name ("yuv420p", "yuv422p10", ...).
func ParsePixelFormat(name string) (PixelFormat, bool) {
	for f, d := range formatDescs {
		if d.Name == name {
			return f, true
		}
	}
	return PixelFormatUnknown, false
}
