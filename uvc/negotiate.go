package uvc

import (
	"math"

	"github.com/ardnew/softuvc/pkg"
)

// StreamControl is the wire-level parameter block exchanged with the
// device during probe and commit negotiation. Field layout follows the
// video probe/commit control of the USB video class.
type StreamControl struct {
	Hint                   uint16 // Bitmask of fields the device must keep fixed
	FormatIndex            uint8  // 1-based format index
	FrameIndex             uint8  // 1-based frame index
	FrameInterval          uint32 // Frame interval in 100 ns units
	KeyFrameRate           uint16
	PFrameRate             uint16
	CompQuality            uint16
	CompWindowSize         uint16
	Delay                  uint16 // Internal device latency in ms
	MaxVideoFrameSize      uint32 // Maximum frame payload in bytes
	MaxPayloadTransferSize uint32 // Maximum per-transfer payload in bytes
}

// HintFrameInterval marks FrameInterval as the authoritative field for
// the probe exchange.
const HintFrameInterval uint16 = 1 << 0

// Quirks is a bitmask of device-specific behavioral workarounds,
// discovered at enumeration time.
type Quirks uint32

// Known device quirks.
const (
	// QuirkProbeExtraFields pre-seeds MaxVideoFrameSize with the value
	// last reported by the device. Some devices stall the probe set
	// request when the field is zero, even though it is read-only from
	// the host.
	QuirkProbeExtraFields Quirks = 1 << iota

	// QuirkReduceMemUsage caps MaxVideoFrameSize at a reduced estimate
	// of width*height*2/5 bytes.
	QuirkReduceMemUsage

	// QuirkIgnoreSelectorUnit hides the device's input selector unit and
	// exposes a single fixed input.
	QuirkIgnoreSelectorUnit
)

// Has reports whether all quirks in mask are set.
func (q Quirks) Has(mask Quirks) bool {
	return q&mask == mask
}

// SelectFrameSize returns the frame of format whose size is closest to
// the requested width and height. The distance between two sizes is the
// area in pixels of their non-overlapping regions; an exact match wins
// immediately and ties keep the first frame encountered.
//
// Returns [pkg.ErrNoMatchingSize] if the format lists no frames.
func SelectFrameSize(format *Format, width, height uint16) (*Frame, error) {
	var frame *Frame
	rw, rh := uint32(width), uint32(height)
	best := uint32(math.MaxUint32)

	for i := range format.Frames {
		w := uint32(format.Frames[i].Width)
		h := uint32(format.Frames[i].Height)

		d := min(w, rw) * min(h, rh)
		d = w*h + rw*rh - 2*d
		if d < best {
			best = d
			frame = &format.Frames[i]
		}

		if best == 0 {
			break
		}
	}

	if frame == nil {
		return nil, pkg.ErrNoMatchingSize
	}
	return frame, nil
}

// SelectFrameInterval returns the supported frame interval closest to
// the requested interval. It never fails: the result degrades to the
// closest legal value.
//
// For a discrete specification the list is assumed ascending; the scan
// stops at the first interval whose distance to the request exceeds the
// previous one and returns the interval before it. For a stepwise
// specification the request is rounded to the nearest step above the
// minimum and clamped to the maximum.
func SelectFrameInterval(frame *Frame, interval uint32) uint32 {
	spec := &frame.Intervals

	if spec.Type == IntervalDiscrete {
		if len(spec.Discrete) == 0 {
			return interval
		}

		best := uint32(math.MaxUint32)
		var i int
		for i = 0; i < len(spec.Discrete); i++ {
			dist := interval - spec.Discrete[i]
			if interval < spec.Discrete[i] {
				dist = spec.Discrete[i] - interval
			}
			if dist > best {
				break
			}
			best = dist
		}
		return spec.Discrete[i-1]
	}

	if interval < spec.Min {
		interval = spec.Min
	}
	if spec.Step != 0 {
		interval = spec.Min + (interval-spec.Min+spec.Step/2)/spec.Step*spec.Step
	}
	if interval > spec.Max {
		interval = spec.Max
	}
	return interval
}

// SelectStillSize returns the still frame of format with exactly the
// requested width and height. There is no nearest-neighbor fallback for
// still capture.
//
// Returns [pkg.ErrUnsupportedStillSize] if the size is not listed or
// the format has no still capability.
func SelectStillSize(format *Format, width, height uint16) (*StillFrame, error) {
	for i := range format.StillFrames {
		if format.StillFrames[i].Width == width && format.StillFrames[i].Height == height {
			return &format.StillFrames[i], nil
		}
	}
	return nil, pkg.ErrUnsupportedStillSize
}

// BuildStreamControl assembles the candidate parameter block for a
// video probe of the given format, frame, and interval. Quirk-dependent
// seeding of MaxVideoFrameSize is applied by the caller, which owns the
// previously negotiated state.
func BuildStreamControl(format *Format, frame *Frame, interval uint32) StreamControl {
	return StreamControl{
		Hint:          HintFrameInterval,
		FormatIndex:   format.Index,
		FrameIndex:    frame.Index,
		FrameInterval: SelectFrameInterval(frame, interval),
	}
}

// BuildStillControl assembles the candidate parameter block for a still
// probe of the given format and still frame. The still frame's wire
// index is used verbatim.
func BuildStillControl(format *Format, frame *StillFrame) StreamControl {
	return StreamControl{
		FormatIndex: format.Index,
		FrameIndex:  frame.Index,
	}
}
