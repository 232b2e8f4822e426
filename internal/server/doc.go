// Package server implements the MCP (Model Context Protocol) control surface
// for the power cube vision pipeline.
//
// The server speaks line-delimited JSON-RPC 2.0 over stdio, the same way a
// host talks to the camera module over its serial link: one request per line
// in, one response per line out. Logs go to the injected logrus logger, never
// to stdout.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Pipeline:
//   - vision_process_image: Run the full pipeline on an image file
//   - vision_edge_detect: Edge map with optional threshold overrides
//
// Calibration:
//   - vision_sample_color: Pixel color in RGB and HSV, and whether it passes the filter
//
// Parameters:
//   - vision_list_params: Every parameter with its range and current value
//   - vision_set_param: Change one or several parameters
//   - vision_load_params: Load a YAML parameter file
//   - vision_save_params: Save the current parameters to YAML
//
// The parameter registry is shared with whatever else the process runs, so a
// client can tune a live Runner while it is processing frames.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(server.Options{Params: reg, Logger: logger})
//	if err := srv.Run(); err != nil {
//	    logger.Fatal(err)
//	}
package server
