package stream

import (
	"context"
	"encoding/binary"

	"github.com/rs/zerolog"

	"github.com/ardnew/softuvc/pkg"
	"github.com/ardnew/softuvc/stream/hal"
	"github.com/ardnew/softuvc/uvc"
)

// selInputSelect is the input-select control selector of a selector
// unit.
const selInputSelect = 0x01

func (s *Stream) hasSelector() bool {
	return s.selectorUnit != 0 && !s.quirks.Has(uvc.QuirkIgnoreSelectorUnit)
}

// EnumInputs returns the selectable video inputs. Streams without a
// selector unit report a single fixed input.
func (s *Stream) EnumInputs() []Input {
	if !s.hasSelector() {
		return []Input{{Name: "Camera"}}
	}
	inputs := make([]Input, len(s.inputs))
	copy(inputs, s.inputs)
	return inputs
}

// GetInput returns the zero-based index of the currently selected
// video input.
func (s *Stream) GetInput(ctx context.Context) (int, error) {
	if err := s.checkAttached(); err != nil {
		return 0, err
	}

	if !s.hasSelector() {
		return 0, nil
	}

	var value [1]byte
	req := hal.ControlRequest{Unit: s.selectorUnit, Interface: s.selectorIface, Selector: selInputSelect}
	if err := s.dev.QueryControl(ctx, hal.ControlGetCur, req, value[:]); err != nil {
		return 0, err
	}

	// The selector reports pins 1-based.
	return int(value[0]) - 1, nil
}

// SetInput selects the video input with the given zero-based index.
// Requires streaming privileges.
func (h *Handle) SetInput(ctx context.Context, index int) error {
	s := h.stream
	if err := s.checkAttached(); err != nil {
		return err
	}
	if err := h.acquirePrivileges(); err != nil {
		return err
	}

	if !s.hasSelector() {
		if index != 0 {
			return pkg.ErrInvalidArgument
		}
		return nil
	}

	if index < 0 || index >= len(s.inputs) {
		return pkg.ErrInvalidArgument
	}

	value := [1]byte{byte(index + 1)}
	req := hal.ControlRequest{Unit: s.selectorUnit, Interface: s.selectorIface, Selector: selInputSelect}
	return s.dev.QueryControl(ctx, hal.ControlSetCur, req, value[:])
}

// GetControl reads a raw extension-unit control value into data after
// pushing data's current content to the device. See SetControl for the
// exchange sequence.
func (s *Stream) GetControl(ctx context.Context, req hal.ControlRequest, data []byte) error {
	return s.passthroughControl(ctx, req, data)
}

// SetControl writes a raw extension-unit control value and reads back
// the device's resulting value into data.
//
// The exchange always performs the full sequence the hardware expects:
// query the value length, write the caller's payload, re-query the
// length, then read the current value back. Tracing of each step is
// emitted at debug level on the stream's logger.
func (s *Stream) SetControl(ctx context.Context, req hal.ControlRequest, data []byte) error {
	return s.passthroughControl(ctx, req, data)
}

func (s *Stream) passthroughControl(ctx context.Context, req hal.ControlRequest, data []byte) error {
	if err := s.checkAttached(); err != nil {
		return err
	}

	log := s.log.With().
		Uint8("unit", req.Unit).
		Uint8("selector", req.Selector).
		Logger()

	size, err := s.controlLength(ctx, req, log)
	if err != nil {
		return err
	}
	if size > len(data) {
		return pkg.ErrInvalidArgument
	}

	if err := s.dev.QueryControl(ctx, hal.ControlSetCur, req, data[:size]); err != nil {
		return err
	}
	log.Debug().Hex("value", data[:size]).Msg("control written")

	// Re-query the length; the write may have changed the value shape.
	size, err = s.controlLength(ctx, req, log)
	if err != nil {
		return err
	}
	if size > len(data) {
		return pkg.ErrInvalidArgument
	}

	clear(data[:size])
	if err := s.dev.QueryControl(ctx, hal.ControlGetCur, req, data[:size]); err != nil {
		return err
	}
	log.Debug().Hex("value", data[:size]).Msg("control read")

	return nil
}

func (s *Stream) controlLength(ctx context.Context, req hal.ControlRequest, log zerolog.Logger) (int, error) {
	var raw [2]byte
	if err := s.dev.QueryControl(ctx, hal.ControlGetLen, req, raw[:]); err != nil {
		return 0, err
	}
	size := int(binary.LittleEndian.Uint16(raw[:]))
	log.Debug().Int("length", size).Msg("control length")
	return size, nil
}
