// Package hal defines the hardware collaborator interfaces consumed by
// the streaming control plane.
//
// The control plane never touches USB transfers or buffer memory
// directly. Instead it drives three narrow interfaces:
//
//   - [DeviceHAL]: probe/commit negotiation, stream enable/disable,
//     still-capture triggering, and raw control value access
//   - [BufferQueue]: allocation, queuing, and dequeue of capture
//     buffers (one instance per pipeline)
//
// Transport implementations (USB, or the in-memory simulator in
// [github.com/ardnew/softuvc/stream/hal/sim]) provide concrete types
// without changing the control plane.
package hal
