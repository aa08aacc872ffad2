package stream

import (
	"context"
	"fmt"

	"github.com/ardnew/softuvc/pkg"
	"github.com/ardnew/softuvc/uvc"
)

// tryFormatStill negotiates a candidate still configuration and
// validates it through the still-specific probe entry.
func (s *Stream) tryFormatStill(ctx context.Context, req FormatRequest) (uvc.StreamControl, *uvc.Format, *uvc.StillFrame, error) {
	format := s.caps.FormatByFourCC(req.FourCC)
	if format == nil || len(format.StillFrames) == 0 {
		s.log.Debug().Stringer("fourcc", req.FourCC).Msg("unsupported still format")
		return uvc.StreamControl{}, nil, nil, pkg.ErrUnsupportedFormat
	}

	still, err := uvc.SelectStillSize(format, req.Width, req.Height)
	if err != nil {
		s.log.Debug().
			Uint16("width", req.Width).
			Uint16("height", req.Height).
			Msg("unsupported still size")
		return uvc.StreamControl{}, nil, nil, err
	}

	ctrl := uvc.BuildStillControl(format, still)

	err = s.dev.ProbeStill(ctx, &ctrl)
	s.metrics.ObserveProbe("still", err)
	if err != nil {
		return uvc.StreamControl{}, nil, nil, fmt.Errorf("%w: %w", pkg.ErrProbeRejected, err)
	}

	// The device may vanish while the probe runs unlocked.
	if err := s.checkAttached(); err != nil {
		return uvc.StreamControl{}, nil, nil, err
	}

	return ctrl, format, still, nil
}

// TryFormatStill negotiates req for the still pipeline without
// committing anything. Still sizes match exactly; there is no
// nearest-neighbor fallback.
func (s *Stream) TryFormatStill(ctx context.Context, req FormatRequest) (FormatInfo, error) {
	if err := s.checkAttached(); err != nil {
		return FormatInfo{}, err
	}

	ctrl, format, still, err := s.tryFormatStill(ctx, req)
	if err != nil {
		return FormatInfo{}, err
	}
	return formatInfo(format, still.Width, still.Height, ctrl.MaxVideoFrameSize), nil
}

// SetFormatStill negotiates req and commits it as the still pipeline's
// configuration. Any handle may call it; the still pipeline carries no
// privilege requirement. A previously configured still queue has its
// buffers released first. Fails with [pkg.ErrBusy] while a still image
// is being decoded.
func (s *Stream) SetFormatStill(ctx context.Context, req FormatRequest) error {
	if err := s.checkAttached(); err != nil {
		return err
	}

	s.mutex.Lock()
	if s.stillDecoding {
		s.mutex.Unlock()
		return pkg.ErrBusy
	}
	if s.stillConfigured {
		if err := s.stillQueue.Free(); err != nil {
			s.mutex.Unlock()
			return err
		}
		s.stillConfigured = false
	}
	s.mutex.Unlock()

	// Probe outside the lock; the exchange may block on device I/O.
	ctrl, format, still, err := s.tryFormatStill(ctx, req)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	if err := s.checkAttached(); err != nil {
		s.mutex.Unlock()
		return err
	}
	s.stillCtrl = ctrl
	s.stillFormat = format
	s.stillFrame = still
	s.stillConfigured = true
	s.mutex.Unlock()

	s.log.Debug().
		Stringer("fourcc", format.FourCC).
		Uint16("width", still.Width).
		Uint16("height", still.Height).
		Msg("still format configured")
	return nil
}

// GetFormatStill returns the still pipeline's committed configuration,
// or [pkg.ErrNotConfigured] if none has been committed.
func (s *Stream) GetFormatStill() (FormatInfo, error) {
	if err := s.checkAttached(); err != nil {
		return FormatInfo{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.stillConfigured {
		return FormatInfo{}, pkg.ErrNotConfigured
	}
	return formatInfo(s.stillFormat, s.stillFrame.Width, s.stillFrame.Height, s.stillCtrl.MaxVideoFrameSize), nil
}

// TriggerStill asks the device to capture exactly one frame into the
// still pipeline. The call itself does not block on the frame;
// blocking, if any, happens in the subsequent still dequeue. Requires
// a committed still configuration.
func (s *Stream) TriggerStill(ctx context.Context) error {
	if err := s.checkAttached(); err != nil {
		return err
	}

	s.mutex.Lock()
	if !s.stillConfigured {
		s.mutex.Unlock()
		return pkg.ErrNotConfigured
	}
	ctrl := s.stillCtrl
	s.mutex.Unlock()

	if err := s.dev.TriggerStill(ctx, &ctrl); err != nil {
		return err
	}

	s.mutex.Lock()
	s.stillWaiting = true
	s.mutex.Unlock()

	s.metrics.ObserveStillCapture()
	s.log.Debug().Msg("still capture triggered")
	return nil
}
