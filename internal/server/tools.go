package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func reloadProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": "Decode the file again instead of using the cached image. Default false",
		"default":     false,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Pipeline
		{
			Name:        "vision_process_image",
			Description: "Run the power cube pipeline on an image file as if it were a camera frame. Returns the detected line segments and the rendered output (header band plus the artifact selected by displayLevel) as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"reload": reloadProperty(),
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Emulated sensor width. 0 keeps the image width, or derives it from height",
						"default":     0,
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Emulated sensor height. 0 keeps the image height, or derives it from width",
						"default":     0,
					},
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"gray", "rgb24", "yuyv"},
						"description": "Pixel format the frame is packed into before processing. Default rgb24",
						"default":     "rgb24",
					},
					"display_level": map[string]interface{}{
						"type":        "integer",
						"minimum":     0,
						"maximum":     3,
						"description": "Override the displayLevel parameter for this call only",
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the rendered output image. Default true",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "vision_edge_detect",
			Description: "Run Canny edge detection on an image with the current parameters, optionally overriding the thresholds. Returns the edge map as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"reload": reloadProperty(),
					"threshold_low": map[string]interface{}{
						"type":        "number",
						"description": "First hysteresis threshold. Defaults to thresh1",
					},
					"threshold_high": map[string]interface{}{
						"type":        "number",
						"description": "Second hysteresis threshold. Defaults to thresh2",
					},
					"aperture": map[string]interface{}{
						"type":        "integer",
						"description": "Sobel aperture, odd in [3,53]. Defaults to aperture",
					},
					"input": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"mask", "gray"},
						"description": "Plane fed to edge detection. Defaults to edgeInput",
					},
				},
				"required": []string{"path"},
			},
		},

		// Calibration
		{
			Name:        "vision_sample_color",
			Description: "Get the exact color at a pixel in RGB and HSV, and whether it passes the current chromatic filter. Use this to pick threshold bounds from a reference picture.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"reload": reloadProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},

		// Parameters
		{
			Name:        "vision_list_params",
			Description: "List every tunable parameter with its kind, range, default and current value.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "vision_set_param",
			Description: "Set one parameter by name, or several at once with 'values'. Integers are clamped into range. A batch is applied all-or-nothing.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Parameter name, e.g. thresh1",
					},
					"value": map[string]interface{}{
						"description": "New value; numbers, booleans and strings are converted to the parameter's kind",
					},
					"values": map[string]interface{}{
						"type":        "object",
						"description": "Map of parameter name to value, applied atomically",
					},
				},
			},
		},
		{
			Name:        "vision_load_params",
			Description: "Load parameter values from a YAML file. Parameters missing from the file keep their current values.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the YAML parameter file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "vision_save_params",
			Description: "Save every current parameter value to a YAML file, with descriptions as comments.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to write",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return result(req.ID, map[string]interface{}{
		"tools": GetToolDefinitions(),
	})
}
