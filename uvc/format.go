package uvc

// FourCC is a four-character pixel format code.
type FourCC uint32

// NewFourCC builds a FourCC from its four character bytes.
func NewFourCC(a, b, c, d byte) FourCC {
	return FourCC(a) | FourCC(b)<<8 | FourCC(c)<<16 | FourCC(d)<<24
}

// String returns the four-character representation, substituting '.'
// for non-printable bytes.
func (f FourCC) String() string {
	var s [4]byte
	for i := range s {
		ch := byte(f >> (8 * i))
		if ch < 0x20 || ch > 0x7e {
			ch = '.'
		}
		s[i] = ch
	}
	return string(s[:])
}

// Common pixel formats.
var (
	FormatYUYV  = NewFourCC('Y', 'U', 'Y', 'V') // Packed 4:2:2 YUV
	FormatNV12  = NewFourCC('N', 'V', '1', '2') // Planar 4:2:0 YUV
	FormatMJPEG = NewFourCC('M', 'J', 'P', 'G') // Motion-JPEG compressed
	FormatH264  = NewFourCC('H', '2', '6', '4') // H.264 byte stream
)

// StreamType distinguishes the direction of a streaming endpoint.
type StreamType uint8

// Stream types.
const (
	StreamCapture StreamType = iota // Device-to-host video capture
	StreamOutput                    // Host-to-device video output
)

// String returns a human-readable stream type name.
func (t StreamType) String() string {
	switch t {
	case StreamCapture:
		return "capture"
	case StreamOutput:
		return "output"
	default:
		return "unknown"
	}
}

// IntervalType indicates how a frame describes its supported intervals.
type IntervalType uint8

// Interval specification types.
const (
	IntervalDiscrete IntervalType = iota // Explicit ascending interval list
	IntervalStepwise                     // Min/max range with step
)

// IntervalSpec describes the frame intervals supported by a frame size.
// Intervals are in 100 ns units. For the discrete type, Discrete holds
// the supported intervals in ascending order. For the stepwise type,
// Min, Max, and Step delimit the supported range.
type IntervalSpec struct {
	Type     IntervalType
	Discrete []uint32
	Min      uint32
	Max      uint32
	Step     uint32
}

// Frame describes one frame size supported by a format.
type Frame struct {
	Index           uint8  // 1-based wire index
	Width           uint16 // Frame width in pixels
	Height          uint16 // Frame height in pixels
	DefaultInterval uint32 // Default frame interval in 100 ns units
	Intervals       IntervalSpec
}

// StillFrame describes one still-image size supported by a format.
// Index is passed verbatim to the device as the wire-level selector.
type StillFrame struct {
	Index  uint8  // 1-based wire index
	Width  uint16 // Image width in pixels
	Height uint16 // Image height in pixels
}

// ColorSpace identifies the color matrix of a format.
type ColorSpace uint8

// Color spaces reported by capture devices.
const (
	ColorSpaceUnknown ColorSpace = iota
	ColorSpaceSRGB
	ColorSpaceBT709
	ColorSpaceBT470
	ColorSpaceSMPTE170M
)

// Format describes one pixel format supported by a streaming endpoint.
type Format struct {
	Index        uint8  // 1-based wire index
	FourCC       FourCC // Pixel format code
	Name         string // Human-readable description
	BitsPerPixel uint8  // Bits per pixel for uncompressed formats
	ColorSpace   ColorSpace
	Compressed   bool

	// Frames lists the supported frame sizes in descriptor order.
	Frames []Frame

	// StillFrames lists the still-image capability, if any.
	StillFrames []StillFrame
}

// FrameBySize returns the frame with the exact given size, or nil.
func (f *Format) FrameBySize(width, height uint16) *Frame {
	for i := range f.Frames {
		if f.Frames[i].Width == width && f.Frames[i].Height == height {
			return &f.Frames[i]
		}
	}
	return nil
}

// Capabilities is the immutable per-endpoint catalog of supported
// formats. It is built once at enumeration time and freely shared
// without locking afterwards.
type Capabilities struct {
	Type    StreamType
	Formats []Format
}

// FormatByFourCC returns the format with the given pixel format code,
// or nil if the device does not support it.
func (c *Capabilities) FormatByFourCC(fcc FourCC) *Format {
	for i := range c.Formats {
		if c.Formats[i].FourCC == fcc {
			return &c.Formats[i]
		}
	}
	return nil
}

// FormatByIndex returns the format with the given 1-based wire index,
// or nil.
func (c *Capabilities) FormatByIndex(index uint8) *Format {
	for i := range c.Formats {
		if c.Formats[i].Index == index {
			return &c.Formats[i]
		}
	}
	return nil
}
