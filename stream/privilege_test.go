package stream

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softuvc/pkg"
	"github.com/ardnew/softuvc/stream/hal"
	"github.com/ardnew/softuvc/uvc"
)

func vga() FormatRequest {
	return FormatRequest{FourCC: uvc.FormatYUYV, Width: 640, Height: 480}
}

func TestPrivilegesExclusive(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	first, err := rig.stream.Open()
	require.NoError(t, err)
	second, err := rig.stream.Open()
	require.NoError(t, err)

	_, err = first.SetFormat(ctx, vga())
	require.NoError(t, err)
	assert.True(t, first.Privileged())

	// Every privileged operation on the second handle fails immediately
	// while the first holds the stream.
	_, err = second.SetFormat(ctx, vga())
	assert.ErrorIs(t, err, pkg.ErrDeviceBusy)
	_, err = second.AllocateBuffers(TagVideo, 4)
	assert.ErrorIs(t, err, pkg.ErrDeviceBusy)
	_, err = second.SetStreamParams(ctx, uvc.Fraction{Numerator: 1, Denominator: 30})
	assert.ErrorIs(t, err, pkg.ErrDeviceBusy)
	err = second.SetInput(ctx, 0)
	assert.ErrorIs(t, err, pkg.ErrDeviceBusy)
	assert.False(t, second.Privileged())

	// Unprivileged operations remain open to the second handle.
	_, err = rig.stream.TryFormat(ctx, vga())
	assert.NoError(t, err)
	_, err = second.AllocateBuffers(TagStill, 1)
	assert.ErrorIs(t, err, pkg.ErrNotConfigured, "still pipeline unconfigured, not privilege-denied")

	require.NoError(t, first.Close())
	require.NoError(t, second.Close())
}

func TestPrivilegesReleasedOnClose(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	first, err := rig.stream.Open()
	require.NoError(t, err)
	second, err := rig.stream.Open()
	require.NoError(t, err)

	_, err = first.SetFormat(ctx, vga())
	require.NoError(t, err)
	_, err = first.AllocateBuffers(TagVideo, 4)
	require.NoError(t, err)
	require.NoError(t, first.StartStreaming(ctx))

	require.NoError(t, first.Close())

	// Close stopped streaming, freed the buffers, and released the
	// privileges, so the second handle succeeds immediately.
	assert.False(t, rig.video.Streaming())
	assert.False(t, rig.video.Allocated())

	_, err = second.SetFormat(ctx, vga())
	require.NoError(t, err)
	assert.True(t, second.Privileged())
	require.NoError(t, second.Close())
}

func TestPrivilegesZeroAllocationDismisses(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	h, err := rig.stream.Open()
	require.NoError(t, err)
	defer h.Close()

	_, err = h.SetFormat(ctx, vga())
	require.NoError(t, err)
	_, err = h.AllocateBuffers(TagVideo, 4)
	require.NoError(t, err)
	require.True(t, h.Privileged())

	// Zero-count allocation releases the buffers and the privileges.
	n, err := h.AllocateBuffers(TagVideo, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, h.Privileged())
	assert.False(t, rig.video.Allocated())

	// The stream is immediately available to another handle.
	other, err := rig.stream.Open()
	require.NoError(t, err)
	defer other.Close()
	_, err = other.SetFormat(ctx, vga())
	assert.NoError(t, err)
}

func TestPrivilegesFreeBuffersDismisses(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	h, err := rig.stream.Open()
	require.NoError(t, err)
	defer h.Close()

	_, err = h.SetFormat(ctx, vga())
	require.NoError(t, err)
	_, err = h.AllocateBuffers(TagVideo, 2)
	require.NoError(t, err)

	require.NoError(t, h.FreeBuffers(TagVideo))
	assert.False(t, h.Privileged())
	assert.False(t, rig.video.Allocated())
}

func TestPrivilegesRequireNotAcquire(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	h, err := rig.stream.Open()
	require.NoError(t, err)
	defer h.Close()

	// Enqueue, dequeue, query, and stream start never acquire privileges
	// implicitly; a passive handle is rejected even when the stream is
	// free.
	err = h.Enqueue(TagVideo, hal.Buffer{Index: 0})
	assert.ErrorIs(t, err, pkg.ErrDeviceBusy)
	_, err = h.Dequeue(ctx, TagVideo, hal.DequeueNonBlocking)
	assert.ErrorIs(t, err, pkg.ErrDeviceBusy)
	_, err = h.QueryBuffer(TagVideo, 0)
	assert.ErrorIs(t, err, pkg.ErrDeviceBusy)
	err = h.StartStreaming(ctx)
	assert.ErrorIs(t, err, pkg.ErrDeviceBusy)
	err = h.StopStreaming(ctx)
	assert.ErrorIs(t, err, pkg.ErrDeviceBusy)
	assert.False(t, h.Privileged())
	assert.Zero(t, rig.stream.active.Load())
}

func TestPrivilegesConcurrentAcquisition(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	const contenders = 16

	handles := make([]*Handle, contenders)
	for i := range handles {
		h, err := rig.stream.Open()
		require.NoError(t, err)
		handles[i] = h
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted []*Handle
	)
	start := make(chan struct{})
	for _, h := range handles {
		wg.Add(1)
		go func(h *Handle) {
			defer wg.Done()
			<-start
			if _, err := h.SetFormat(ctx, vga()); err == nil {
				mu.Lock()
				granted = append(granted, h)
				mu.Unlock()
			}
		}(h)
	}
	close(start)
	wg.Wait()

	// Exactly one contender wins, and the counter reflects it.
	require.Len(t, granted, 1)
	assert.EqualValues(t, 1, rig.stream.active.Load())

	for _, h := range handles {
		require.NoError(t, h.Close())
	}
	assert.Zero(t, rig.stream.active.Load())
}
