package stream

import (
	"context"
	"fmt"

	"github.com/ardnew/softuvc/pkg"
	"github.com/ardnew/softuvc/uvc"
)

// FormatRequest asks for a pixel format at a given frame size. Width
// and height are negotiated to the closest supported frame for the
// video pipeline, and matched exactly for the still pipeline.
type FormatRequest struct {
	FourCC uvc.FourCC
	Width  uint16
	Height uint16
}

// FormatInfo reports a negotiated or committed configuration.
type FormatInfo struct {
	FourCC       uvc.FourCC
	Width        uint16
	Height       uint16
	BytesPerLine uint32
	SizeImage    uint32
	ColorSpace   uvc.ColorSpace
	Compressed   bool
}

func formatInfo(format *uvc.Format, width, height uint16, sizeImage uint32) FormatInfo {
	return FormatInfo{
		FourCC:       format.FourCC,
		Width:        width,
		Height:       height,
		BytesPerLine: uint32(format.BitsPerPixel) * uint32(width) / 8,
		SizeImage:    sizeImage,
		ColorSpace:   format.ColorSpace,
		Compressed:   format.Compressed,
	}
}

// tryFormat negotiates a candidate video configuration and validates
// it against the device. It never mutates the committed configuration.
// The quirk-dependent seeding reads prior state under the stream lock,
// but the probe itself runs unlocked.
func (s *Stream) tryFormat(ctx context.Context, req FormatRequest) (uvc.StreamControl, *uvc.Format, *uvc.Frame, error) {
	format := s.caps.FormatByFourCC(req.FourCC)
	if format == nil {
		s.log.Debug().Stringer("fourcc", req.FourCC).Msg("unsupported format")
		return uvc.StreamControl{}, nil, nil, pkg.ErrUnsupportedFormat
	}

	frame, err := uvc.SelectFrameSize(format, req.Width, req.Height)
	if err != nil {
		return uvc.StreamControl{}, nil, nil, err
	}

	ctrl := uvc.BuildStreamControl(format, frame, frame.DefaultInterval)

	s.mutex.Lock()
	if s.quirks.Has(uvc.QuirkProbeExtraFields) {
		// Some devices stall the probe set request when the max frame
		// size is zero; seed it with the last value they reported.
		ctrl.MaxVideoFrameSize = s.ctrl.MaxVideoFrameSize
	}
	if s.quirks.Has(uvc.QuirkReduceMemUsage) {
		ctrl.MaxVideoFrameSize = uint32(frame.Width) * uint32(frame.Height) * 2 / 5
	}
	s.mutex.Unlock()

	err = s.dev.ProbeVideo(ctx, &ctrl)
	s.metrics.ObserveProbe("video", err)
	if err != nil {
		return uvc.StreamControl{}, nil, nil, fmt.Errorf("%w: %w", pkg.ErrProbeRejected, err)
	}

	// The device may vanish while the probe runs unlocked.
	if err := s.checkAttached(); err != nil {
		return uvc.StreamControl{}, nil, nil, err
	}

	s.log.Debug().
		Stringer("fourcc", format.FourCC).
		Uint16("width", frame.Width).
		Uint16("height", frame.Height).
		Uint32("interval", ctrl.FrameInterval).
		Msg("format negotiated")

	return ctrl, format, frame, nil
}

// TryFormat negotiates req against the capability table and the device
// without committing anything. It is safe to call at any time, from
// any handle, concurrently with other requests; the result may grow
// stale if another request commits first.
func (s *Stream) TryFormat(ctx context.Context, req FormatRequest) (FormatInfo, error) {
	if err := s.checkAttached(); err != nil {
		return FormatInfo{}, err
	}

	ctrl, format, frame, err := s.tryFormat(ctx, req)
	if err != nil {
		return FormatInfo{}, err
	}
	return formatInfo(format, frame.Width, frame.Height, ctrl.MaxVideoFrameSize), nil
}

// SetFormat negotiates req and commits the result as the video
// pipeline's configuration. It acquires streaming privileges and fails
// with [pkg.ErrBusy] if video buffers are already allocated. On any
// failure the committed configuration is left untouched.
func (h *Handle) SetFormat(ctx context.Context, req FormatRequest) (FormatInfo, error) {
	s := h.stream
	if err := s.checkAttached(); err != nil {
		return FormatInfo{}, err
	}
	if err := h.acquirePrivileges(); err != nil {
		return FormatInfo{}, err
	}

	ctrl, format, frame, err := s.tryFormat(ctx, req)
	if err != nil {
		return FormatInfo{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.checkAttached(); err != nil {
		return FormatInfo{}, err
	}
	if s.queue.Allocated() {
		return FormatInfo{}, pkg.ErrBusy
	}

	s.ctrl = ctrl
	s.curFormat = format
	s.curFrame = frame

	return formatInfo(format, frame.Width, frame.Height, ctrl.MaxVideoFrameSize), nil
}

// GetFormat returns the video pipeline's committed configuration, or
// [pkg.ErrNotConfigured] if SetFormat has never succeeded.
func (s *Stream) GetFormat() (FormatInfo, error) {
	if err := s.checkAttached(); err != nil {
		return FormatInfo{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.curFormat == nil || s.curFrame == nil {
		return FormatInfo{}, pkg.ErrNotConfigured
	}
	return formatInfo(s.curFormat, s.curFrame.Width, s.curFrame.Height, s.ctrl.MaxVideoFrameSize), nil
}

// StreamParams reports the video pipeline's frame timing.
type StreamParams struct {
	TimePerFrame uvc.Fraction
}

// GetStreamParams returns the current frame period as a simplified
// fraction of seconds.
func (s *Stream) GetStreamParams() (StreamParams, error) {
	if err := s.checkAttached(); err != nil {
		return StreamParams{}, err
	}

	s.mutex.Lock()
	interval := s.ctrl.FrameInterval
	s.mutex.Unlock()

	return StreamParams{TimePerFrame: uvc.IntervalToFraction(interval)}, nil
}

// SetStreamParams negotiates a new frame period for the committed
// video configuration and returns the actual period granted by the
// device. It acquires streaming privileges, fails with [pkg.ErrBusy]
// while the video queue is streaming, and leaves the committed
// configuration untouched if the device rejects the probe.
func (h *Handle) SetStreamParams(ctx context.Context, timePerFrame uvc.Fraction) (uvc.Fraction, error) {
	s := h.stream
	if err := s.checkAttached(); err != nil {
		return uvc.Fraction{}, err
	}
	if err := h.acquirePrivileges(); err != nil {
		return uvc.Fraction{}, err
	}

	interval := uvc.FractionToInterval(timePerFrame)

	s.mutex.Lock()
	if s.queue.Streaming() {
		s.mutex.Unlock()
		return uvc.Fraction{}, pkg.ErrBusy
	}
	if s.curFrame == nil {
		s.mutex.Unlock()
		return uvc.Fraction{}, pkg.ErrNotConfigured
	}
	probe := s.ctrl
	probe.FrameInterval = uvc.SelectFrameInterval(s.curFrame, interval)
	s.mutex.Unlock()

	err := s.dev.ProbeVideo(ctx, &probe)
	s.metrics.ObserveProbe("video", err)
	if err != nil {
		return uvc.Fraction{}, fmt.Errorf("%w: %w", pkg.ErrProbeRejected, err)
	}

	s.mutex.Lock()
	if err := s.checkAttached(); err != nil {
		s.mutex.Unlock()
		return uvc.Fraction{}, err
	}
	if s.queue.Streaming() {
		s.mutex.Unlock()
		return uvc.Fraction{}, pkg.ErrBusy
	}
	s.ctrl = probe
	s.mutex.Unlock()

	s.log.Debug().Uint32("interval", probe.FrameInterval).Msg("stream params committed")
	return uvc.IntervalToFraction(probe.FrameInterval), nil
}
