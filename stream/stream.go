package stream

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ardnew/softuvc/pkg"
	"github.com/ardnew/softuvc/stream/hal"
	"github.com/ardnew/softuvc/uvc"
)

// StatusHook receives device status lifecycle notifications. Start is
// invoked when the first handle opens the stream, Stop when the last
// one closes.
type StatusHook interface {
	Start() error
	Stop()
}

// Input describes one selectable video input.
type Input struct {
	Terminal uint8  // Input terminal ID
	Name     string // Human-readable input name
}

// Stream is the mutable per-endpoint state shared by all handles
// opened against it. It is created at device attach time and outlives
// any individual handle. All methods are safe for concurrent use.
type Stream struct {
	typ    uvc.StreamType
	caps   *uvc.Capabilities
	quirks uvc.Quirks
	name   string

	dev        hal.DeviceHAL
	queue      hal.BufferQueue // video pipeline
	stillQueue hal.BufferQueue // still pipeline

	log     zerolog.Logger
	metrics *pkg.Metrics
	status  StatusHook

	selectorUnit  uint8
	selectorIface uint8
	inputs        []Input

	// mutex guards every field below. It is never held across a device
	// probe.
	mutex     sync.Mutex
	ctrl      uvc.StreamControl
	curFormat *uvc.Format
	curFrame  *uvc.Frame

	stillCtrl       uvc.StreamControl
	stillFormat     *uvc.Format
	stillFrame      *uvc.StillFrame
	stillConfigured bool
	stillDecoding   bool
	stillWaiting    bool

	// active counts privileged handles; always 0 or 1.
	active atomic.Int32

	// users counts open handles for status start/stop.
	users atomic.Int32

	disconnected atomic.Bool
}

// Option configures a Stream at construction time.
type Option func(*Stream)

// WithLogger sets the stream's logger. The default is the package
// logger tagged with the stream component.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Stream) { s.log = log }
}

// WithQuirks sets the device quirks discovered at enumeration time.
func WithQuirks(quirks uvc.Quirks) Option {
	return func(s *Stream) { s.quirks = quirks }
}

// WithMetrics attaches instrumentation counters to the stream.
func WithMetrics(m *pkg.Metrics) Option {
	return func(s *Stream) { s.metrics = m }
}

// WithStatusHook registers a device status lifecycle hook.
func WithStatusHook(hook StatusHook) Option {
	return func(s *Stream) { s.status = hook }
}

// WithName sets the human-readable device name reported by Caps.
func WithName(name string) Option {
	return func(s *Stream) { s.name = name }
}

// WithSelector describes the device's input selector unit and its
// inputs. Streams without a selector expose a single fixed input.
func WithSelector(unit, iface uint8, inputs []Input) Option {
	return func(s *Stream) {
		s.selectorUnit = unit
		s.selectorIface = iface
		s.inputs = inputs
	}
}

// New creates the control plane for one streaming endpoint. caps is
// the endpoint's immutable capability table; dev, videoQueue, and
// stillQueue are the transport collaborators.
func New(typ uvc.StreamType, caps *uvc.Capabilities, dev hal.DeviceHAL, videoQueue, stillQueue hal.BufferQueue, opts ...Option) *Stream {
	s := &Stream{
		typ:        typ,
		caps:       caps,
		name:       "softuvc",
		dev:        dev,
		queue:      videoQueue,
		stillQueue: stillQueue,
		log:        pkg.ComponentLogger(pkg.ComponentStream),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Type returns the stream's pipeline kind.
func (s *Stream) Type() uvc.StreamType {
	return s.typ
}

// Capabilities returns the stream's capability table. The table is
// immutable and freely shared.
func (s *Stream) Capabilities() *uvc.Capabilities {
	return s.caps
}

// Caps summarizes the device capability flags of the endpoint.
type Caps struct {
	Driver    string
	Card      string
	Capture   bool
	Output    bool
	Streaming bool
}

// Caps returns the endpoint's device capability summary.
func (s *Stream) Caps() Caps {
	return Caps{
		Driver:    "softuvc",
		Card:      s.name,
		Capture:   s.typ == uvc.StreamCapture,
		Output:    s.typ == uvc.StreamOutput,
		Streaming: true,
	}
}

// Disconnect marks the device as no longer present. Every subsequent
// operation on the stream or its handles fails with
// [pkg.ErrDisconnected] until the handles are closed.
func (s *Stream) Disconnect() {
	if s.disconnected.CompareAndSwap(false, true) {
		s.log.Info().Msg("device disconnected")
	}
}

// Disconnected reports whether the device has been disconnected.
func (s *Stream) Disconnected() bool {
	return s.disconnected.Load()
}

func (s *Stream) checkAttached() error {
	if s.disconnected.Load() {
		return pkg.ErrDisconnected
	}
	return nil
}

// FormatDesc describes one enumerable pixel format.
type FormatDesc struct {
	Index       uint8
	FourCC      uvc.FourCC
	Description string
	Compressed  bool
}

// EnumFormats returns descriptors for every supported pixel format.
// This is a pure projection of the capability table; no negotiation is
// performed.
func (s *Stream) EnumFormats() []FormatDesc {
	descs := make([]FormatDesc, len(s.caps.Formats))
	for i := range s.caps.Formats {
		f := &s.caps.Formats[i]
		descs[i] = FormatDesc{
			Index:       f.Index,
			FourCC:      f.FourCC,
			Description: f.Name,
			Compressed:  f.Compressed,
		}
	}
	return descs
}

// FrameSize is one enumerable discrete frame size.
type FrameSize struct {
	Width  uint16
	Height uint16
}

// EnumFrameSizes returns the discrete frame sizes supported by the
// given pixel format.
func (s *Stream) EnumFrameSizes(fcc uvc.FourCC) ([]FrameSize, error) {
	format := s.caps.FormatByFourCC(fcc)
	if format == nil {
		return nil, pkg.ErrUnsupportedFormat
	}

	sizes := make([]FrameSize, len(format.Frames))
	for i := range format.Frames {
		sizes[i] = FrameSize{
			Width:  format.Frames[i].Width,
			Height: format.Frames[i].Height,
		}
	}
	return sizes, nil
}

// FrameIntervals is the enumerable interval capability of one frame
// size, with intervals expressed as simplified frame period fractions.
type FrameIntervals struct {
	Type     uvc.IntervalType
	Discrete []uvc.Fraction
	Min      uvc.Fraction
	Max      uvc.Fraction
	Step     uvc.Fraction
}

// EnumFrameIntervals returns the frame intervals supported by the
// given pixel format and frame size.
func (s *Stream) EnumFrameIntervals(fcc uvc.FourCC, width, height uint16) (FrameIntervals, error) {
	format := s.caps.FormatByFourCC(fcc)
	if format == nil {
		return FrameIntervals{}, pkg.ErrUnsupportedFormat
	}

	frame := format.FrameBySize(width, height)
	if frame == nil {
		return FrameIntervals{}, pkg.ErrNoMatchingSize
	}

	spec := &frame.Intervals
	if spec.Type == uvc.IntervalDiscrete {
		intervals := FrameIntervals{Type: uvc.IntervalDiscrete}
		for _, iv := range spec.Discrete {
			intervals.Discrete = append(intervals.Discrete, uvc.IntervalToFraction(iv))
		}
		return intervals, nil
	}

	return FrameIntervals{
		Type: uvc.IntervalStepwise,
		Min:  uvc.IntervalToFraction(spec.Min),
		Max:  uvc.IntervalToFraction(spec.Max),
		Step: uvc.IntervalToFraction(spec.Step),
	}, nil
}

// SetStillDecoding marks the still pipeline as decoding a frame (or
// done). It is called by the transfer layer while a captured still
// image is being reassembled; still reconfiguration is rejected with
// [pkg.ErrBusy] for the duration.
func (s *Stream) SetStillDecoding(active bool) {
	s.mutex.Lock()
	s.stillDecoding = active
	s.mutex.Unlock()
}

// StillAwaitingFrame reports whether a still capture has been
// triggered and its frame not yet dequeued.
func (s *Stream) StillAwaitingFrame() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.stillWaiting
}
