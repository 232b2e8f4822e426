// Package frame defines the raw camera frame handed to the vision pipeline and
// the adapters that move frames in and out of it.
//
// A Frame is an immutable byte buffer with an explicit geometry and pixel
// format tag. The pipeline never writes to a Frame: it makes its own working
// copy during color normalization and hands the Frame back to its Source with
// Release as soon as that copy exists.
//
// # Pixel Formats
//
//   - FormatGray: one byte per pixel (luma)
//   - FormatRGB24: three bytes per pixel in R, G, B order
//   - FormatYUYV: packed 4:2:2, two bytes per pixel, Y0 U Y1 V per pixel pair.
//     Width must be even.
//
// # Ingest and Egress
//
// Source is the ingest contract (Acquire / Release) and Sink the egress contract
// (Allocate / Send). FileSource replays still images from disk at a fixed sensor
// geometry; DirSink, RawSink and MemorySink receive composited output buffers.
//
// # Ownership
//
// A buffer passed to Sink.Send belongs to the sink afterwards. Callers must not
// read or write it again.
package frame
