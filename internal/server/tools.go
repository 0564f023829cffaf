package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// logSourceProperties are shared by every tool that reads a detection log.
func logSourceProperties() map[string]interface{} {
	return map[string]interface{}{
		"log": map[string]interface{}{
			"type":        "string",
			"description": "Detection log text. Takes precedence over log_path.",
		},
		"log_path": map[string]interface{}{
			"type":        "string",
			"description": "Path to a detection log file",
		},
	}
}

func withLogSource(props map[string]interface{}) map[string]interface{} {
	for k, v := range logSourceProperties() {
		props[k] = v
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "detections_parse",
			Description: "Parse a detection log into images and their detections, in the order the images first appear. Lines that match neither a header nor a detection are ignored.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": logSourceProperties(),
			},
		},
		{
			Name:        "box_rescale",
			Description: "Rescale a bounding box from model input coordinates to image coordinates. Each axis is scaled independently; nothing is clamped or rounded.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"box": map[string]interface{}{
						"type":        "array",
						"description": "Box as [x1, y1, x2, y2] in model coordinates",
						"items": map[string]interface{}{
							"type": "number",
						},
						"minItems": 4,
						"maxItems": 4,
					},
					"model_width": map[string]interface{}{
						"type":        "number",
						"description": "Model input width. Defaults to the configured model width.",
					},
					"model_height": map[string]interface{}{
						"type":        "number",
						"description": "Model input height. Defaults to the configured model height.",
					},
					"target_width": map[string]interface{}{
						"type":        "number",
						"description": "Image width",
					},
					"target_height": map[string]interface{}{
						"type":        "number",
						"description": "Image height",
					},
				},
				"required": []string{"box", "target_width", "target_height"},
			},
		},
		{
			Name:        "annotation_layout",
			Description: "Return the drawing commands (rectangles, labels, show) that rendering one image would issue, without drawing anything.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withLogSource(map[string]interface{}{
					"image": map[string]interface{}{
						"type":        "string",
						"description": "Image name exactly as it appears in the log header",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Image width. When width or height is missing the image is read from the image directory.",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Image height",
					},
				}),
				"required": []string{"image"},
			},
		},
		{
			Name:        "detections_render",
			Description: "Draw every image in a detection log with its boxes and labels. Returns each picture as base64-encoded image data and lists the images that were skipped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withLogSource(map[string]interface{}{
					"image_directory": map[string]interface{}{
						"type":        "string",
						"description": "Directory holding the images. Defaults to the configured image directory.",
					},
				}),
			},
		},
		{
			Name:        "detection_crops",
			Description: "Cut the area under each detection out of one image, after rescaling the boxes to the image. Boxes that fall outside the image are reported with an error instead of a crop.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withLogSource(map[string]interface{}{
					"image": map[string]interface{}{
						"type":        "string",
						"description": "Image name exactly as it appears in the log header",
					},
					"image_directory": map[string]interface{}{
						"type":        "string",
						"description": "Directory holding the image. Defaults to the configured image directory.",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor for each crop (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				}),
				"required": []string{"image"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
