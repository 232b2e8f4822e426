// Package detection extracts straight line segments from binary edge maps.
//
// # Algorithm Overview
//
// HoughSegments implements the progressive probabilistic Hough transform:
//
//  1. Voting: edge pixels are visited in a pseudo-random order. Each pixel
//     votes for every line through it in a (theta, rho) accumulator with 1°
//     and 1 px resolution.
//  2. Walking: as soon as a line collects the configured number of votes it
//     is followed in both directions from the current pixel, allowing up to
//     MaxSegmentGap consecutive missing pixels.
//  3. Filtering: walks spanning at least MinSegmentLength pixels in x or y
//     become segments; their pixels withdraw their votes. Every pixel a walk
//     crosses is consumed and never votes again.
//  4. Merging: MergeSegments folds near-collinear, overlapping segments into
//     one. A thin bright stroke yields two parallel Canny contours one or two
//     pixels apart; merging reports it as a single segment on its centre line.
//
// The random order comes from a fixed seed, so results are reproducible
// frame to frame.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Result Ordering
//
// The order of the returned segments carries no meaning. Compare results as
// sets.
package detection
