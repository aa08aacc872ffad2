// Package uvc models the capability tables of a USB video-capture device
// and implements the parameter negotiation algorithms that match caller
// requests against them.
//
// # Capability Model
//
// A device exposes one [Capabilities] table per streaming endpoint,
// built by the enumeration layer from class-specific descriptors and
// immutable afterwards:
//
//   - Format: a pixel format (FourCC, bits per pixel, compression flag)
//     with an ordered list of frame sizes
//   - Frame: a frame size with a default interval and either a discrete
//     interval list or a stepwise interval range
//   - StillFrame: a fixed still-image size addressed by its 1-based
//     wire index
//
// # Negotiation
//
// Negotiation is pure computation over the tables:
//
//   - [SelectFrameSize] picks the frame whose size is closest to the
//     request, measured as the area of the non-overlapping regions
//   - [SelectFrameInterval] picks the closest legal frame interval,
//     never failing
//   - [SelectStillSize] performs an exact-match lookup only
//
// The result is assembled into a [StreamControl], the wire-level
// parameter block exchanged with the device during probe negotiation.
// Frame intervals are expressed in 100 ns units throughout; the
// fraction helpers convert between intervals and the second-based
// fractions exposed to callers.
package uvc
