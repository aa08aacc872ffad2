package hal

import (
	"context"

	"github.com/ardnew/softuvc/uvc"
)

// DequeueMode selects blocking behavior for buffer dequeue.
type DequeueMode int

// Dequeue modes.
const (
	DequeueBlocking    DequeueMode = iota // Wait until a buffer is ready
	DequeueNonBlocking                    // Fail immediately if none is ready
)

// String returns a human-readable dequeue mode name.
func (m DequeueMode) String() string {
	if m == DequeueNonBlocking {
		return "non-blocking"
	}
	return "blocking"
}

// Buffer describes one capture buffer. The control plane routes buffer
// descriptors between callers and queues; buffer memory itself is owned
// by the queue implementation.
type Buffer struct {
	Index     int    // Position in the queue's allocation
	Length    uint32 // Allocated size in bytes
	BytesUsed uint32 // Valid payload length after capture
	Still     bool   // Buffer belongs to the still pipeline
}

// ControlOp selects the direction of a raw control value exchange.
type ControlOp uint8

// Control operations (USB video class request codes).
const (
	ControlSetCur ControlOp = 0x01 // Write the current value
	ControlGetCur ControlOp = 0x81 // Read the current value
	ControlGetLen ControlOp = 0x85 // Read the value length
)

// ControlRequest addresses a control value on a device entity.
type ControlRequest struct {
	Unit      uint8 // Entity (unit or terminal) ID
	Interface uint8 // Interface number the entity belongs to
	Selector  uint8 // Control selector within the entity
}

// DeviceHAL is the transport-facing interface of a video streaming
// endpoint. Implementations perform device I/O and may block; all
// methods accept a context for cancellation.
//
// Probe methods adjust the candidate control in place and must be
// synchronous and retry-free: the control plane calls each at most once
// per negotiation attempt.
type DeviceHAL interface {
	// Negotiation

	// ProbeVideo validates the candidate parameter set for the video
	// pipeline, adjusting it to the closest configuration the device
	// supports.
	ProbeVideo(ctx context.Context, ctrl *uvc.StreamControl) error

	// ProbeStill validates the candidate parameter set for the still
	// pipeline.
	ProbeStill(ctx context.Context, ctrl *uvc.StreamControl) error

	// Streaming

	// EnableVideo commits the negotiated parameters and starts the
	// device-side video stream.
	EnableVideo(ctx context.Context, ctrl *uvc.StreamControl) error

	// DisableVideo stops the device-side video stream.
	DisableVideo(ctx context.Context) error

	// TriggerStill requests capture of exactly one frame into the still
	// pipeline using the negotiated still parameters.
	TriggerStill(ctx context.Context, ctrl *uvc.StreamControl) error

	// Controls

	// QueryControl performs a raw control value exchange. For
	// ControlGetCur and ControlGetLen, data is filled with the value
	// read; for ControlSetCur, data holds the value to write.
	QueryControl(ctx context.Context, op ControlOp, req ControlRequest, data []byte) error
}

// BufferQueue manages the buffers of one capture pipeline. The control
// plane owns two independent instances per stream: one for continuous
// video, one for on-demand still capture.
type BufferQueue interface {
	// Allocate creates count buffers of bufferSize bytes and returns
	// the number actually allocated. Allocating zero buffers releases
	// any existing allocation.
	Allocate(count int, bufferSize uint32) (int, error)

	// Free releases all buffers. Fails if the queue is streaming or
	// buffers are still in use.
	Free() error

	// Enqueue hands a buffer to the device for filling.
	Enqueue(buf Buffer) error

	// Dequeue returns the next filled buffer. In blocking mode it waits
	// until a buffer is ready or the context is cancelled; in
	// non-blocking mode it fails immediately with pkg.ErrWouldBlock.
	Dequeue(ctx context.Context, mode DequeueMode) (Buffer, error)

	// Query returns the descriptor of the buffer at the given index.
	Query(index int) (Buffer, error)

	// Enable starts or stops queue streaming.
	Enable(streaming bool) error

	// MarkStill tags all allocated buffers as still-pipeline buffers.
	MarkStill()

	// Allocated reports whether the queue currently has buffers.
	Allocated() bool

	// Streaming reports whether the queue is streaming.
	Streaming() bool
}
