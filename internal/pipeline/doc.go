// Package pipeline wires the vision stages into a per-frame function and runs
// it against a frame source and sink.
//
// # Per-Frame Flow
//
//	Frame --ToRGB--> RGB --Convert--> color --InRange--> mask --Cleanup--> cleaned
//	                  |                                                     |
//	                  +--Luma--> raw ------------- (edgeInput = gray) ------+--Canny--> edges --Hough--> segments
//
// Every stage runs on every frame whatever the display level; the compositor
// then picks one artifact to show. Process is a pure function of the frame and
// the snapshot, so identical inputs give bit-identical outputs.
//
// # Runner
//
// Runner drives one frame at a time: acquire, copy into the working plane,
// release the frame, take a parameter snapshot, process, allocate the output,
// render and send. A frame that fails (unsupported format, invalid aperture)
// is logged and produces no output; the next frame starts fresh.
package pipeline
