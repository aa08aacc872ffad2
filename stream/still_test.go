package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softuvc/pkg"
	"github.com/ardnew/softuvc/stream/hal"
	"github.com/ardnew/softuvc/stream/hal/sim"
	"github.com/ardnew/softuvc/uvc"
)

func stillSVGA() FormatRequest {
	return FormatRequest{FourCC: uvc.FormatYUYV, Width: 800, Height: 600}
}

func TestSetFormatStill(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	require.NoError(t, rig.stream.SetFormatStill(ctx, stillSVGA()))

	info, err := rig.stream.GetFormatStill()
	require.NoError(t, err)
	assert.Equal(t, uint16(800), info.Width)
	assert.Equal(t, uint16(600), info.Height)
	assert.Equal(t, uint32(800*600*2), info.SizeImage)
}

func TestSetFormatStillExactMatchOnly(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	// 640x480 is a video frame size but not a still size; no
	// nearest-size fallback applies.
	err := rig.stream.SetFormatStill(ctx, vga())
	assert.ErrorIs(t, err, pkg.ErrUnsupportedStillSize)

	_, err = rig.stream.GetFormatStill()
	assert.ErrorIs(t, err, pkg.ErrNotConfigured)
}

func TestSetFormatStillNoStillCapability(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	err := rig.stream.SetFormatStill(ctx, FormatRequest{FourCC: uvc.FormatMJPEG, Width: 1920, Height: 1080})
	assert.ErrorIs(t, err, pkg.ErrUnsupportedFormat)
}

func TestSetFormatStillBusyWhileDecoding(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	require.NoError(t, rig.stream.SetFormatStill(ctx, stillSVGA()))

	rig.stream.SetStillDecoding(true)
	err := rig.stream.SetFormatStill(ctx, FormatRequest{FourCC: uvc.FormatYUYV, Width: 1280, Height: 720})
	assert.ErrorIs(t, err, pkg.ErrBusy)

	rig.stream.SetStillDecoding(false)
	assert.NoError(t, rig.stream.SetFormatStill(ctx, FormatRequest{FourCC: uvc.FormatYUYV, Width: 1280, Height: 720}))
}

func TestSetFormatStillReleasesPreviousBuffers(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	h, err := rig.stream.Open()
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, rig.stream.SetFormatStill(ctx, stillSVGA()))
	_, err = h.AllocateBuffers(TagStill, 2)
	require.NoError(t, err)
	require.True(t, rig.still.Allocated())

	require.NoError(t, rig.stream.SetFormatStill(ctx, FormatRequest{FourCC: uvc.FormatYUYV, Width: 1280, Height: 720}))
	assert.False(t, rig.still.Allocated())
}

func TestSetFormatStillDisconnectDuringProbe(t *testing.T) {
	s, hook := newHookedRig(t)
	ctx := context.Background()

	hook.onProbe = func() { s.Disconnect() }

	err := s.SetFormatStill(ctx, stillSVGA())
	assert.ErrorIs(t, err, pkg.ErrDisconnected)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	assert.False(t, s.stillConfigured)
}

// failingDequeue delegates everything to the embedded queue except
// Dequeue, which always fails.
type failingDequeue struct {
	*sim.Queue
	err error
}

func (q *failingDequeue) Dequeue(ctx context.Context, mode hal.DequeueMode) (hal.Buffer, error) {
	return hal.Buffer{}, q.err
}

func TestStillDequeueFailureClearsAwaitingFlag(t *testing.T) {
	caps := testCaps()
	video := sim.NewQueue()
	still := sim.NewQueue()
	dev := sim.NewDevice(caps, video, still)
	s := New(uvc.StreamCapture, caps, dev, video, &failingDequeue{Queue: still, err: context.Canceled})
	ctx := context.Background()

	h, err := s.Open()
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, s.SetFormatStill(ctx, stillSVGA()))
	_, err = h.AllocateBuffers(TagStill, 1)
	require.NoError(t, err)
	require.NoError(t, h.Enqueue(TagStill, hal.Buffer{Index: 0}))

	// The trigger succeeds, the dequeue does not; the stream must not
	// keep reporting a capture in flight.
	_, err = h.Dequeue(ctx, TagStill, hal.DequeueBlocking)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, s.StillAwaitingFrame())
}

func TestTriggerStillRequiresConfiguration(t *testing.T) {
	rig := newTestRig(t)

	err := rig.stream.TriggerStill(context.Background())
	assert.ErrorIs(t, err, pkg.ErrNotConfigured)
}

func TestStillDequeueTriggersCapture(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	h, err := rig.stream.Open()
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, rig.stream.SetFormatStill(ctx, stillSVGA()))
	n, err := h.AllocateBuffers(TagStill, 1)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoError(t, h.Enqueue(TagStill, hal.Buffer{Index: 0}))

	// The still pipeline is pull-driven: nothing is captured until the
	// dequeue arrives.
	assert.False(t, rig.stream.StillAwaitingFrame())

	buf, err := h.Dequeue(ctx, TagStill, hal.DequeueBlocking)
	require.NoError(t, err)
	assert.True(t, buf.Still)
	assert.Equal(t, uint32(800*600*2), buf.BytesUsed)
	assert.False(t, rig.stream.StillAwaitingFrame())
	assert.False(t, h.Privileged(), "still pipeline never acquires privileges")
}

func TestStillDequeueWithoutBufferFails(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	h, err := rig.stream.Open()
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, rig.stream.SetFormatStill(ctx, stillSVGA()))
	_, err = h.AllocateBuffers(TagStill, 1)
	require.NoError(t, err)

	// No buffer enqueued; the trigger has nothing to fill.
	_, err = h.Dequeue(ctx, TagStill, hal.DequeueBlocking)
	assert.Error(t, err)
}

func TestStillAndVideoPipelinesIndependent(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	owner, err := rig.stream.Open()
	require.NoError(t, err)
	defer owner.Close()
	viewer, err := rig.stream.Open()
	require.NoError(t, err)
	defer viewer.Close()

	// The owner runs the continuous video pipeline.
	_, err = owner.SetFormat(ctx, vga())
	require.NoError(t, err)
	n, err := owner.AllocateBuffers(TagVideo, 2)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, owner.Enqueue(TagVideo, hal.Buffer{Index: i}))
	}
	require.NoError(t, owner.StartStreaming(ctx))
	defer owner.StopStreaming(ctx)

	// The passive viewer captures a still without touching the video
	// pipeline's privileges.
	require.NoError(t, rig.stream.SetFormatStill(ctx, stillSVGA()))
	_, err = viewer.AllocateBuffers(TagStill, 1)
	require.NoError(t, err)
	require.NoError(t, viewer.Enqueue(TagStill, hal.Buffer{Index: 0}))

	deadline, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	still, err := viewer.Dequeue(deadline, TagStill, hal.DequeueBlocking)
	require.NoError(t, err)
	assert.True(t, still.Still)

	video, err := owner.Dequeue(deadline, TagVideo, hal.DequeueBlocking)
	require.NoError(t, err)
	assert.False(t, video.Still)
	assert.Equal(t, uint32(640*480*2), video.BytesUsed)
}
