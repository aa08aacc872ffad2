package sim

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardnew/softuvc/stream/hal"
	"github.com/ardnew/softuvc/uvc"
)

// Simulator errors.
var (
	ErrUnknownIndex   = errors.New("unknown format or frame index")
	ErrUnknownControl = errors.New("unknown control selector")
	ErrNoStillBuffer  = errors.New("no still buffer enqueued")
)

// defaultPayloadSize is the per-transfer payload limit the simulator
// reports, matching a typical high-bandwidth isochronous endpoint.
const defaultPayloadSize = 3072

type controlKey struct {
	unit     uint8
	selector uint8
}

// Device is an in-memory video device implementing [hal.DeviceHAL].
type Device struct {
	caps  *uvc.Capabilities
	video *Queue
	still *Queue

	mu        sync.Mutex
	committed uvc.StreamControl
	streaming bool
	stop      chan struct{}
	wg        sync.WaitGroup

	controls map[controlKey][]byte

	// ProbeErr, when set, is returned by every probe. Tests use it to
	// simulate devices that reject negotiation.
	ProbeErr error
}

// NewDevice creates a simulated device serving the given capability
// table, delivering frames into the given queues.
func NewDevice(caps *uvc.Capabilities, video, still *Queue) *Device {
	return &Device{
		caps:     caps,
		video:    video,
		still:    still,
		controls: make(map[controlKey][]byte),
	}
}

// SetControlValue seeds the raw control store, defining the control's
// length and initial value.
func (d *Device) SetControlValue(unit, selector uint8, value []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.controls[controlKey{unit, selector}] = append([]byte(nil), value...)
}

func (d *Device) lookupVideo(ctrl *uvc.StreamControl) (*uvc.Format, *uvc.Frame, error) {
	format := d.caps.FormatByIndex(ctrl.FormatIndex)
	if format == nil {
		return nil, nil, ErrUnknownIndex
	}
	for i := range format.Frames {
		if format.Frames[i].Index == ctrl.FrameIndex {
			return format, &format.Frames[i], nil
		}
	}
	return nil, nil, ErrUnknownIndex
}

func frameSize(format *uvc.Format, width, height uint16) uint32 {
	bpp := uint32(format.BitsPerPixel)
	if bpp == 0 {
		// Compressed formats advertise no fixed depth; reserve half a
		// byte per pixel plus headroom.
		bpp = 4
	}
	return uint32(width) * uint32(height) * bpp / 8
}

// ProbeVideo validates the candidate against the capability table and
// adjusts it the way a conformant device would.
func (d *Device) ProbeVideo(ctx context.Context, ctrl *uvc.StreamControl) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.ProbeErr != nil {
		return d.ProbeErr
	}

	format, frame, err := d.lookupVideo(ctrl)
	if err != nil {
		return err
	}

	ctrl.FrameInterval = uvc.SelectFrameInterval(frame, ctrl.FrameInterval)
	ctrl.MaxVideoFrameSize = frameSize(format, frame.Width, frame.Height)
	ctrl.MaxPayloadTransferSize = defaultPayloadSize
	return nil
}

// ProbeStill validates the candidate against the format's still
// capability.
func (d *Device) ProbeStill(ctx context.Context, ctrl *uvc.StreamControl) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.ProbeErr != nil {
		return d.ProbeErr
	}

	format := d.caps.FormatByIndex(ctrl.FormatIndex)
	if format == nil {
		return ErrUnknownIndex
	}
	for i := range format.StillFrames {
		still := &format.StillFrames[i]
		if still.Index == ctrl.FrameIndex {
			ctrl.MaxVideoFrameSize = frameSize(format, still.Width, still.Height)
			ctrl.MaxPayloadTransferSize = defaultPayloadSize
			return nil
		}
	}
	return ErrUnknownIndex
}

// EnableVideo commits the negotiated parameters and starts delivering
// frames into the video queue at the negotiated rate.
func (d *Device) EnableVideo(ctx context.Context, ctrl *uvc.StreamControl) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.streaming {
		return fmt.Errorf("stream already enabled")
	}
	if _, _, err := d.lookupVideo(ctrl); err != nil {
		return err
	}

	d.committed = *ctrl
	d.streaming = true
	d.stop = make(chan struct{})

	interval := time.Duration(ctrl.FrameInterval) * 100 * time.Nanosecond
	if interval <= 0 {
		interval = time.Millisecond
	}
	size := ctrl.MaxVideoFrameSize

	d.wg.Add(1)
	go d.deliver(interval, size, d.stop)
	return nil
}

func (d *Device) deliver(interval time.Duration, size uint32, stop <-chan struct{}) {
	defer d.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			d.video.Complete(size)
		}
	}
}

// DisableVideo stops frame delivery.
func (d *Device) DisableVideo(ctx context.Context) error {
	d.mu.Lock()
	if !d.streaming {
		d.mu.Unlock()
		return nil
	}
	d.streaming = false
	close(d.stop)
	d.mu.Unlock()

	d.wg.Wait()
	return nil
}

// TriggerStill completes exactly one pending still buffer.
func (d *Device) TriggerStill(ctx context.Context, ctrl *uvc.StreamControl) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !d.still.Complete(ctrl.MaxVideoFrameSize) {
		return ErrNoStillBuffer
	}
	return nil
}

// QueryControl serves raw control exchanges from the in-memory control
// store.
func (d *Device) QueryControl(ctx context.Context, op hal.ControlOp, req hal.ControlRequest, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	value, ok := d.controls[controlKey{req.Unit, req.Selector}]
	if !ok {
		return ErrUnknownControl
	}

	switch op {
	case hal.ControlGetLen:
		if len(data) < 2 {
			return fmt.Errorf("length buffer too small")
		}
		binary.LittleEndian.PutUint16(data, uint16(len(value)))
	case hal.ControlGetCur:
		copy(data, value)
	case hal.ControlSetCur:
		copy(value, data)
	default:
		return fmt.Errorf("unsupported control op 0x%02x", uint8(op))
	}
	return nil
}

// Committed returns the last parameter set committed by EnableVideo.
func (d *Device) Committed() uvc.StreamControl {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.committed
}
