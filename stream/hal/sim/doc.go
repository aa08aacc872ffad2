// Package sim provides an in-memory simulated video device and buffer
// queues implementing the HAL interfaces of
// [github.com/ardnew/softuvc/stream/hal].
//
// The simulator honors the capability table it is constructed with:
// probes validate format and frame indexes and clamp intervals the way
// a conformant device would, streaming delivers frames into the video
// queue at the negotiated rate, and a still trigger completes exactly
// one still buffer. It exists for examples and tests; no hardware or
// kernel interface is involved.
package sim
