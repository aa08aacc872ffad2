// Package stream implements the control plane of a video-capture
// streaming endpoint: format negotiation, privilege arbitration among
// concurrent handles, and buffer-queue routing for the two capture
// pipelines.
//
// # Architecture
//
// The package is organized around three cooperating pieces:
//
//   - Stream holds the per-endpoint state: the committed video and
//     still configurations, the two buffer queues, and the exclusivity
//     counter. All of it is guarded by a single stream lock.
//   - Handle represents one open session. Any number of handles may be
//     open against a stream, but at most one may hold streaming
//     privileges at a time.
//   - The HAL interfaces in [github.com/ardnew/softuvc/stream/hal]
//     isolate device I/O and buffer memory from the control plane.
//
// # Pipelines
//
// Each stream drives two independent pipelines. The video pipeline
// captures continuously once configured, allocated, and started. The
// still pipeline is pull-driven: configuring it is open to any handle,
// and dequeuing from it triggers the capture of exactly one frame.
// The pipelines share the stream lock but never each other's buffers.
//
// # Privileges
//
// Operations that reconfigure or stream the video pipeline
// (SetFormat, SetStreamParams, SetInput, buffer allocation, start and
// stop) acquire privileges automatically, failing with
// [pkg.ErrDeviceBusy] if another handle already holds them. Video
// queue operations require privileges to be held already. Privileges
// are released when the handle closes or when it frees all video
// buffers.
//
// # Locking
//
// The stream lock is never held across a device probe: negotiation
// computes a candidate, releases the lock, probes, and revalidates the
// commit precondition after reacquiring it. Callers must therefore
// tolerate a TryFormat result growing stale if another request races
// in before SetFormat commits.
package stream
