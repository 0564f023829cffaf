package server

import (
	"encoding/json"
	"image"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ironsheep/detection-log-viz/internal/annotate"
	"github.com/ironsheep/detection-log-viz/internal/geom"
	"github.com/ironsheep/detection-log-viz/internal/imaging"
	"github.com/ironsheep/detection-log-viz/internal/logparse"
	"github.com/ironsheep/detection-log-viz/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "detections_parse").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "detections_parse":
		return s.handleDetectionsParse(args)
	case "box_rescale":
		return s.handleBoxRescale(args)
	case "annotation_layout":
		return s.handleAnnotationLayout(args)
	case "detections_render":
		return s.handleDetectionsRender(args)
	case "detection_crops":
		return s.handleDetectionCrops(args)
	default:
		return nil, errors.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// logSource is embedded by every argument struct that names a log.
type logSource struct {
	Log     string `json:"log"`
	LogPath string `json:"log_path"`
}

func (a logSource) parse() (*logparse.Result, error) {
	if a.Log != "" {
		return logparse.Parse(a.Log), nil
	}
	if a.LogPath == "" {
		return nil, errors.New("log or log_path is required")
	}

	f, err := os.Open(a.LogPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open log")
	}
	defer f.Close()

	return logparse.ParseReader(f)
}

// === Parsing ===

// ParseOutput is the result of detections_parse.
type ParseOutput struct {
	ImageCount     int              `json:"image_count"`
	DetectionCount int              `json:"detection_count"`
	Images         *logparse.Result `json:"images"`
}

func (s *Server) handleDetectionsParse(args json.RawMessage) (interface{}, error) {
	var a logSource
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	result, err := a.parse()
	if err != nil {
		return nil, err
	}

	s.logger.Debug("parsed log",
		zap.Int("images", result.Len()),
		zap.Int("detections", result.TotalDetections()))

	return &ParseOutput{
		ImageCount:     result.Len(),
		DetectionCount: result.TotalDetections(),
		Images:         result,
	}, nil
}

// === Geometry ===

type boxRescaleArgs struct {
	Box          []float64 `json:"box"`
	ModelWidth   float64   `json:"model_width"`
	ModelHeight  float64   `json:"model_height"`
	TargetWidth  float64   `json:"target_width"`
	TargetHeight float64   `json:"target_height"`
}

// RescaleOutput is the result of box_rescale.
type RescaleOutput struct {
	Box    geom.Box   `json:"box"`
	Array  [4]float64 `json:"array"`
	ScaleX float64    `json:"scale_x"`
	ScaleY float64    `json:"scale_y"`
}

func (s *Server) handleBoxRescale(args json.RawMessage) (interface{}, error) {
	var a boxRescaleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Box) != 4 {
		return nil, errors.Errorf("box must have 4 values, got %d", len(a.Box))
	}

	model := s.cfg.ModelFrame()
	if a.ModelWidth != 0 {
		model.Width = a.ModelWidth
	}
	if a.ModelHeight != 0 {
		model.Height = a.ModelHeight
	}
	target := geom.Size{Width: a.TargetWidth, Height: a.TargetHeight}
	if !model.Valid() {
		return nil, errors.Errorf("model size %gx%g must be positive", model.Width, model.Height)
	}
	if !target.Valid() {
		return nil, errors.Errorf("target size %gx%g must be positive", target.Width, target.Height)
	}

	box := geom.Rescale(geom.BoxFromArray([4]float64{a.Box[0], a.Box[1], a.Box[2], a.Box[3]}), model, target)
	sx, sy := geom.ScaleFactors(model, target)
	return &RescaleOutput{Box: box, Array: box.Array(), ScaleX: sx, ScaleY: sy}, nil
}

// === Rendering ===

type annotationLayoutArgs struct {
	logSource
	Image  string `json:"image"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// LayoutOutput is the result of annotation_layout.
type LayoutOutput struct {
	Image    string             `json:"image"`
	Width    int                `json:"width"`
	Height   int                `json:"height"`
	Commands []annotate.Command `json:"commands"`
}

func (s *Server) handleAnnotationLayout(args json.RawMessage) (interface{}, error) {
	var a annotationLayoutArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Image == "" {
		return nil, errors.New("image is required")
	}
	result, err := a.parse()
	if err != nil {
		return nil, err
	}
	dets, ok := result.Detections(a.Image)
	if !ok {
		return nil, errors.Errorf("image %s does not appear in the log", a.Image)
	}

	if a.Width <= 0 || a.Height <= 0 {
		path := filepath.Join(s.cfg.ImageDirectory, a.Image)
		dims, err := imaging.GetDimensions(s.cache, path)
		s.cache.Evict(path)
		if err != nil {
			return nil, err
		}
		a.Width, a.Height = dims.Width, dims.Height
	}

	renderer, err := s.cfg.Renderer()
	if err != nil {
		return nil, err
	}
	target := geom.Size{Width: float64(a.Width), Height: float64(a.Height)}
	var rec annotate.CommandLog
	if err := renderer.Render(&rec, annotate.Layout(dets, s.cfg.ModelFrame(), target)); err != nil {
		return nil, err
	}

	return &LayoutOutput{
		Image:    a.Image,
		Width:    a.Width,
		Height:   a.Height,
		Commands: rec.Commands,
	}, nil
}

type detectionsRenderArgs struct {
	logSource
	ImageDirectory string `json:"image_directory"`
}

// RenderedImage is one picture returned by detections_render.
type RenderedImage struct {
	pipeline.Rendered
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// RenderOutput is the result of detections_render.
type RenderOutput struct {
	Images  []RenderedImage `json:"images"`
	Skipped []pipeline.Skip `json:"skipped"`
}

func (s *Server) handleDetectionsRender(args json.RawMessage) (interface{}, error) {
	var a detectionsRenderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	result, err := a.parse()
	if err != nil {
		return nil, err
	}
	format, err := s.cfg.Format()
	if err != nil {
		return nil, err
	}

	encoded := make(map[string]string)
	output := func(name string, img image.Image) error {
		data, err := imaging.EncodeBase64(imaging.FitMaxEdge(img, s.cfg.OutputMaxEdge), format)
		if err != nil {
			return err
		}
		encoded[name] = data
		return nil
	}

	driver, err := pipeline.FromConfig(s.cfg, output, s.logger)
	if err != nil {
		return nil, err
	}
	if a.ImageDirectory != "" {
		driver.ImageDirectory = a.ImageDirectory
	}

	summary := driver.Run(result)

	out := &RenderOutput{
		Images:  make([]RenderedImage, 0, len(summary.Rendered)),
		Skipped: summary.Skipped,
	}
	if out.Skipped == nil {
		out.Skipped = []pipeline.Skip{}
	}
	for _, r := range summary.Rendered {
		out.Images = append(out.Images, RenderedImage{
			Rendered: r,
			MimeType: format.MimeType(),
			Data:     encoded[r.Image],
		})
	}
	return out, nil
}

type detectionCropsArgs struct {
	logSource
	Image          string  `json:"image"`
	ImageDirectory string  `json:"image_directory"`
	Scale          float64 `json:"scale"`
}

// DetectionCrop is the image area under one detection.
type DetectionCrop struct {
	Index int                 `json:"index"`
	Label string              `json:"label"`
	Box   geom.Box            `json:"box"`
	Crop  *imaging.CropResult `json:"crop,omitempty"`
	Error string              `json:"error,omitempty"`
}

// CropsOutput is the result of detection_crops.
type CropsOutput struct {
	Image  string          `json:"image"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Crops  []DetectionCrop `json:"crops"`
}

func (s *Server) handleDetectionCrops(args json.RawMessage) (interface{}, error) {
	var a detectionCropsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Image == "" {
		return nil, errors.New("image is required")
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.ImageDirectory == "" {
		a.ImageDirectory = s.cfg.ImageDirectory
	}

	result, err := a.parse()
	if err != nil {
		return nil, err
	}
	dets, ok := result.Detections(a.Image)
	if !ok {
		return nil, errors.Errorf("image %s does not appear in the log", a.Image)
	}

	path := filepath.Join(a.ImageDirectory, a.Image)
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	defer s.cache.Evict(path)
	format, err := s.cfg.Format()
	if err != nil {
		return nil, err
	}

	dims := imaging.Dimensions(img)
	target := geom.Size{Width: float64(dims.Width), Height: float64(dims.Height)}
	items := annotate.Layout(dets, s.cfg.ModelFrame(), target)

	out := &CropsOutput{
		Image:  a.Image,
		Width:  dims.Width,
		Height: dims.Height,
		Crops:  make([]DetectionCrop, 0, len(items)),
	}
	for i, it := range items {
		c := DetectionCrop{Index: i, Label: annotate.Label(it.Detection), Box: it.Box}
		crop, err := imaging.CropBox(img, it.Box, a.Scale, format)
		if err != nil {
			c.Error = err.Error()
		} else {
			c.Crop = crop
		}
		out.Crops = append(out.Crops, c)
	}
	return out, nil
}
