package stream

import (
	"context"

	"github.com/ardnew/softuvc/pkg"
	"github.com/ardnew/softuvc/stream/hal"
)

// BufferTag routes a buffer-lifecycle request to one of the two
// pipelines.
type BufferTag int

// Buffer tags.
const (
	TagVideo BufferTag = iota // Continuous video pipeline
	TagStill                  // On-demand still pipeline
)

// String returns a human-readable tag name.
func (t BufferTag) String() string {
	if t == TagStill {
		return "still"
	}
	return "video"
}

// AllocateBuffers creates count buffers on the tagged pipeline, sized
// from that pipeline's negotiated maximum frame size, and returns the
// number actually allocated.
//
// Video allocation acquires streaming privileges; allocating zero
// video buffers releases the existing allocation and dismisses the
// handle's privileges, since releasing all buffers voids exclusivity's
// reason to exist. Still allocation is open to any handle.
func (h *Handle) AllocateBuffers(tag BufferTag, count int) (int, error) {
	s := h.stream
	if err := s.checkAttached(); err != nil {
		return 0, err
	}
	if count < 0 {
		return 0, pkg.ErrInvalidArgument
	}

	if tag == TagStill {
		s.mutex.Lock()
		if !s.stillConfigured && count > 0 {
			s.mutex.Unlock()
			return 0, pkg.ErrNotConfigured
		}
		n, err := s.stillQueue.Allocate(count, s.stillCtrl.MaxVideoFrameSize)
		s.mutex.Unlock()
		if err != nil {
			return 0, err
		}
		s.stillQueue.MarkStill()
		s.log.Debug().Int("count", n).Msg("still buffers allocated")
		return n, nil
	}

	if err := h.acquirePrivileges(); err != nil {
		return 0, err
	}

	s.mutex.Lock()
	n, err := s.queue.Allocate(count, s.ctrl.MaxVideoFrameSize)
	s.mutex.Unlock()
	if err != nil {
		return 0, err
	}

	if n == 0 {
		h.dismissPrivileges()
	}

	s.log.Debug().Int("count", n).Msg("video buffers allocated")
	return n, nil
}

// FreeBuffers releases all buffers on the tagged pipeline. Freeing the
// video pipeline behaves like a zero-count allocation: privileges are
// acquired for the operation and dismissed once the buffers are gone.
func (h *Handle) FreeBuffers(tag BufferTag) error {
	s := h.stream
	if err := s.checkAttached(); err != nil {
		return err
	}

	if tag == TagStill {
		s.mutex.Lock()
		err := s.stillQueue.Free()
		s.mutex.Unlock()
		return err
	}

	if err := h.acquirePrivileges(); err != nil {
		return err
	}

	s.mutex.Lock()
	err := s.queue.Free()
	s.mutex.Unlock()
	if err != nil {
		return err
	}

	h.dismissPrivileges()
	return nil
}

// Enqueue hands a buffer back to the tagged pipeline for filling.
// Video enqueue requires the handle to already hold privileges; still
// enqueue is open to any handle.
func (h *Handle) Enqueue(tag BufferTag, buf hal.Buffer) error {
	s := h.stream
	if err := s.checkAttached(); err != nil {
		return err
	}

	if tag == TagStill {
		// The still marker is reapplied by the queue; clearing it here
		// distinguishes a caller enqueue from a device-filled buffer.
		buf.Still = false
		return s.stillQueue.Enqueue(buf)
	}

	if err := h.requirePrivileges(); err != nil {
		return err
	}
	return s.queue.Enqueue(buf)
}

// Dequeue returns the next filled buffer from the tagged pipeline.
//
// The still pipeline is pull-driven: a still dequeue first triggers
// the capture of one frame and then waits for it, rather than draining
// a continuously filled queue. Video dequeue requires the handle to
// already hold privileges.
func (h *Handle) Dequeue(ctx context.Context, tag BufferTag, mode hal.DequeueMode) (hal.Buffer, error) {
	s := h.stream
	if err := s.checkAttached(); err != nil {
		return hal.Buffer{}, err
	}

	if tag == TagStill {
		if err := s.TriggerStill(ctx); err != nil {
			return hal.Buffer{}, err
		}

		buf, err := s.stillQueue.Dequeue(ctx, mode)

		// The capture is no longer awaited once the dequeue returns,
		// even when it failed: the caller must trigger again.
		s.mutex.Lock()
		s.stillWaiting = false
		s.mutex.Unlock()

		if err != nil {
			return hal.Buffer{}, err
		}
		return buf, nil
	}

	if err := h.requirePrivileges(); err != nil {
		return hal.Buffer{}, err
	}
	return s.queue.Dequeue(ctx, mode)
}

// QueryBuffer returns the descriptor of a buffer on the tagged
// pipeline. Video query requires privileges; still query does not.
func (h *Handle) QueryBuffer(tag BufferTag, index int) (hal.Buffer, error) {
	s := h.stream
	if err := s.checkAttached(); err != nil {
		return hal.Buffer{}, err
	}

	if tag == TagStill {
		return s.stillQueue.Query(index)
	}

	if err := h.requirePrivileges(); err != nil {
		return hal.Buffer{}, err
	}
	return s.queue.Query(index)
}

// StartStreaming commits the negotiated parameters to the device and
// starts the video pipeline. Requires privileges to be held already
// and a committed video configuration.
func (h *Handle) StartStreaming(ctx context.Context) error {
	s := h.stream
	if err := s.checkAttached(); err != nil {
		return err
	}
	if err := h.requirePrivileges(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.enableVideoLocked(ctx)
}

// StopStreaming stops the video pipeline. Requires privileges to be
// held already.
func (h *Handle) StopStreaming(ctx context.Context) error {
	s := h.stream
	if err := s.checkAttached(); err != nil {
		return err
	}
	if err := h.requirePrivileges(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.disableVideoLocked(ctx)
}

func (s *Stream) enableVideoLocked(ctx context.Context) error {
	if s.curFormat == nil {
		return pkg.ErrNotConfigured
	}
	if s.queue.Streaming() {
		return pkg.ErrBusy
	}

	if err := s.dev.EnableVideo(ctx, &s.ctrl); err != nil {
		return err
	}
	if err := s.queue.Enable(true); err != nil {
		_ = s.dev.DisableVideo(ctx)
		return err
	}

	s.metrics.ObserveStreamStart()
	s.log.Info().
		Stringer("fourcc", s.curFormat.FourCC).
		Uint16("width", s.curFrame.Width).
		Uint16("height", s.curFrame.Height).
		Msg("streaming started")
	return nil
}

func (s *Stream) disableVideoLocked(ctx context.Context) error {
	if !s.queue.Streaming() {
		return nil
	}

	err := s.dev.DisableVideo(ctx)
	if qerr := s.queue.Enable(false); err == nil {
		err = qerr
	}

	s.metrics.ObserveStreamStop()
	s.log.Info().Msg("streaming stopped")
	return err
}
