// Package overlay composes the device output frame.
//
// The output is the input frame with a black header band on top:
//
//	+----------------------------+  y = 0
//	| title                      |
//	| lvl N | segments: K        |
//	+----------------------------+  y = HeaderHeight
//	|                            |
//	|  one pipeline artifact     |
//	|  (plus segments at level 3)|
//	|                            |
//	+----------------------------+  y = HeaderHeight + input height
//
// The DisplayLevel picks which artifact is shown. Every artifact is rendered as
// grayscale; detected segments are drawn on top of the edge map in the
// compositor's line color. The header text is always drawn, whatever the
// level, so the segment count is visible even when segments are not.
package overlay
