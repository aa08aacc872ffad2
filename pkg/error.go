package pkg

import "errors"

// Control-plane errors.
var (
	// ErrInvalidArgument indicates a request that does not match the
	// stream's pipeline kind or carries out-of-range values.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedFormat indicates the requested pixel format is not
	// present in the stream's capability table.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrNoMatchingSize indicates no frame size could be negotiated for
	// the requested format.
	ErrNoMatchingSize = errors.New("no matching frame size")

	// ErrUnsupportedStillSize indicates the requested still-image size has
	// no exact match in the format's still capability list.
	ErrUnsupportedStillSize = errors.New("unsupported still size")

	// ErrProbeRejected indicates the device declined a candidate
	// parameter set during probe negotiation.
	ErrProbeRejected = errors.New("probe rejected by device")

	// ErrBusy indicates a precondition blocks the request: buffers are
	// already allocated, the queue is streaming, or a still image is
	// being decoded.
	ErrBusy = errors.New("resource busy")

	// ErrDeviceBusy indicates streaming privileges are held by another
	// handle.
	ErrDeviceBusy = errors.New("device busy")

	// ErrNotConfigured indicates a query or operation before any
	// successful configuration.
	ErrNotConfigured = errors.New("not configured")

	// ErrDisconnected indicates the device is no longer present.
	ErrDisconnected = errors.New("device disconnected")

	// ErrWouldBlock indicates a non-blocking dequeue found no buffer
	// ready.
	ErrWouldBlock = errors.New("no buffer ready")

	// ErrInvalidBuffer indicates a buffer index outside the allocated
	// range.
	ErrInvalidBuffer = errors.New("invalid buffer")

	// ErrQueueEmpty indicates a dequeue against a queue with no buffers
	// enqueued.
	ErrQueueEmpty = errors.New("queue empty")

	// ErrNotStreaming indicates a stop request against a queue that is
	// not streaming.
	ErrNotStreaming = errors.New("not streaming")
)
