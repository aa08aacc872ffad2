package stream

import (
	"context"

	"github.com/ardnew/softuvc/pkg"
)

// handleState tracks a handle's privilege state.
type handleState uint8

const (
	handlePassive handleState = iota // No streaming privileges
	handleActive                     // Holds the stream's privileges
)

// Handle is one open session against a stream. Handles are created by
// [Stream.Open] and must be closed when no longer needed; closing
// always releases any privileges the handle holds.
//
// A Handle must not be used concurrently from multiple goroutines.
// The Stream it references may be shared freely.
type Handle struct {
	stream *Stream
	state  handleState
	closed bool
}

// Open creates a new handle against the stream. Opening the first
// handle starts the device status hook, if one is registered.
func (s *Stream) Open() (*Handle, error) {
	if err := s.checkAttached(); err != nil {
		return nil, err
	}

	if s.users.Add(1) == 1 && s.status != nil {
		if err := s.status.Start(); err != nil {
			s.users.Add(-1)
			return nil, err
		}
	}

	s.log.Debug().Int32("users", s.users.Load()).Msg("handle opened")
	return &Handle{stream: s}, nil
}

// Close releases the handle. If the handle holds privileges, streaming
// is stopped and both pipelines' buffers are freed before the
// privileges are dismissed, so the exclusivity counter never leaks
// across sessions. Close is idempotent.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true

	s := h.stream
	if h.state == handleActive {
		ctx := context.Background()

		s.mutex.Lock()
		s.disableVideoLocked(ctx)
		s.mutex.Unlock()

		if err := s.queue.Free(); err != nil {
			s.log.Error().Err(err).Msg("unable to free video buffers")
		}
		if err := s.stillQueue.Free(); err != nil {
			s.log.Error().Err(err).Msg("unable to free still buffers")
		}
	}

	h.dismissPrivileges()

	if s.users.Add(-1) == 0 && s.status != nil {
		s.status.Stop()
	}

	s.log.Debug().Msg("handle closed")
	return nil
}

// Privileged reports whether the handle currently holds the stream's
// streaming privileges.
func (h *Handle) Privileged() bool {
	return h.state == handleActive
}

// acquirePrivileges attempts to make the handle the stream's single
// privileged handle. It always succeeds for a handle that is already
// privileged. Acquisition is fail-fast: if another handle holds the
// privileges the increment is rolled back and pkg.ErrDeviceBusy is
// returned immediately, never queued.
func (h *Handle) acquirePrivileges() error {
	if h.state == handleActive {
		return nil
	}

	if h.stream.active.Add(1) != 1 {
		h.stream.active.Add(-1)
		h.stream.metrics.ObservePrivilegeDenial()
		return pkg.ErrDeviceBusy
	}

	h.state = handleActive
	return nil
}

// dismissPrivileges returns the handle to the passive state, releasing
// the stream's exclusivity counter if held. No-op for passive handles.
func (h *Handle) dismissPrivileges() {
	if h.state == handleActive {
		h.stream.active.Add(-1)
	}
	h.state = handlePassive
}

// requirePrivileges fails unless the handle already holds privileges.
// Unlike acquirePrivileges it never acquires implicitly.
func (h *Handle) requirePrivileges() error {
	if h.state != handleActive {
		return pkg.ErrDeviceBusy
	}
	return nil
}
