package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/cube-vision/internal/config"
	"github.com/ironsheep/cube-vision/internal/detection"
	"github.com/ironsheep/cube-vision/internal/frame"
	"github.com/ironsheep/cube-vision/internal/imaging"
	"github.com/ironsheep/cube-vision/internal/overlay"
	"github.com/ironsheep/cube-vision/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "vision_process_image").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

var errPathRequired = errors.New("path is required")

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
		return errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	start := time.Now()
	out, err := s.executeTool(params.Name, params.Arguments)
	entry := s.logger.WithFields(logrus.Fields{
		"tool":    params.Name,
		"elapsed": time.Since(start),
	})
	if err != nil {
		entry.WithError(err).Warn("tool failed")
		return errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}
	entry.Debug("tool done")

	return textResult(req.ID, mustMarshalJSON(out))
}

// textResult wraps text in MCP's single text content block.
func textResult(id interface{}, text string) *MCPResponse {
	return result(id, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
	})
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Pipeline
	case "vision_process_image":
		return s.handleProcessImage(args)
	case "vision_edge_detect":
		return s.handleEdgeDetect(args)

	// Calibration
	case "vision_sample_color":
		return s.handleSampleColor(args)

	// Parameters
	case "vision_list_params":
		return s.handleListParams(args)
	case "vision_set_param":
		return s.handleSetParam(args)
	case "vision_load_params":
		return s.handleLoadParams(args)
	case "vision_save_params":
		return s.handleSaveParams(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// source replays the image at path the way the camera would deliver it.
// reload drops the cached decode first so edits on disk are picked up.
func (s *Server) source(path string, width, height int, format string, reload bool) (*frame.FileSource, error) {
	if path == "" {
		return nil, errPathRequired
	}
	pf := frame.FormatRGB24
	if format != "" {
		var err error
		if pf, err = frame.ParseFormat(format); err != nil {
			return nil, err
		}
	}
	if reload {
		s.cache.Evict(path)
	}
	return frame.NewFileSource([]string{path}, frame.FileSourceOptions{
		Width:  width,
		Height: height,
		Format: pf,
		Cache:  s.cache,
	})
}

// normalize acquires one frame and converts it to RGB. The frame is released
// before the caller starts processing.
func normalize(src *frame.FileSource) (*imaging.Plane, error) {
	f, err := src.Acquire(context.Background())
	if err != nil {
		return nil, err
	}
	defer src.Release(f)
	return imaging.ToRGB(f)
}

// === Pipeline Handlers ===

type processImageArgs struct {
	Path         string `json:"path"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Format       string `json:"format"`
	Reload       bool   `json:"reload"`
	DisplayLevel *int   `json:"display_level"`
	IncludeImage *bool  `json:"include_image"`
}

// ProcessImageResult is the result of vision_process_image.
type ProcessImageResult struct {
	Width        int                     `json:"width"`
	Height       int                     `json:"height"`
	Format       string                  `json:"format"`
	DisplayLevel int                     `json:"display_level"`
	MaskPixels   int                     `json:"mask_pixels"`
	EdgePixels   int                     `json:"edge_pixels"`
	SegmentCount int                     `json:"segment_count"`
	Segments     []detection.LineSegment `json:"segments"`
	Output       *overlay.EncodedImage   `json:"output,omitempty"`
}

func (s *Server) handleProcessImage(args json.RawMessage) (interface{}, error) {
	var a processImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	src, err := s.source(a.Path, a.Width, a.Height, a.Format, a.Reload)
	if err != nil {
		return nil, err
	}

	snap := s.params.Snapshot()
	if a.DisplayLevel != nil {
		snap.DisplayLevel = overlay.DisplayLevel(*a.DisplayLevel)
	}

	sink := &frame.MemorySink{}
	runner := pipeline.NewRunner(src, sink, config.SnapshotFunc(func() config.Snapshot { return snap }), s.pipeline, s.logger)
	var res *pipeline.Result
	runner.OnFrame = func(r *pipeline.Result) { res = r }
	if err := runner.Step(context.Background()); err != nil {
		return nil, err
	}

	pr := &ProcessImageResult{
		Width:        res.Width,
		Height:       res.Height,
		Format:       src.Format().String(),
		DisplayLevel: int(snap.DisplayLevel),
		MaskPixels:   res.Artifacts.Cleaned.CountSet(),
		EdgePixels:   res.Artifacts.Edges.CountSet(),
		SegmentCount: len(res.Segments),
		Segments:     res.Segments,
	}
	if a.IncludeImage == nil || *a.IncludeImage {
		if pr.Output, err = overlay.EncodePNG(sink.Frames()[0]); err != nil {
			return nil, err
		}
	}
	return pr, nil
}

type edgeDetectArgs struct {
	Path          string   `json:"path"`
	ThresholdLow  *float64 `json:"threshold_low"`
	ThresholdHigh *float64 `json:"threshold_high"`
	Aperture      *int     `json:"aperture"`
	Input         string   `json:"input"`
	Reload        bool     `json:"reload"`
}

// EdgeDetectResult is the result of vision_edge_detect.
type EdgeDetectResult struct {
	Width          int                   `json:"width"`
	Height         int                   `json:"height"`
	Input          string                `json:"input"`
	Edge           imaging.EdgeConfig    `json:"edge"`
	EdgePixels     int                   `json:"edge_pixels"`
	EdgePercentage float64               `json:"edge_percentage"`
	EdgeMap        *overlay.EncodedImage `json:"edge_map"`
}

func (s *Server) handleEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a edgeDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	snap := s.params.Snapshot()
	if a.ThresholdLow != nil {
		snap.Edge.Threshold1 = *a.ThresholdLow
	}
	if a.ThresholdHigh != nil {
		snap.Edge.Threshold2 = *a.ThresholdHigh
	}
	if a.Aperture != nil {
		snap.Edge.Aperture = *a.Aperture
	}
	switch a.Input {
	case "":
	case config.EdgeInputMask.String():
		snap.EdgeInput = config.EdgeInputMask
	case config.EdgeInputGray.String():
		snap.EdgeInput = config.EdgeInputGray
	default:
		return nil, fmt.Errorf("invalid input %q: want mask or gray", a.Input)
	}

	src, err := s.source(a.Path, 0, 0, "", a.Reload)
	if err != nil {
		return nil, err
	}
	rgb, err := normalize(src)
	if err != nil {
		return nil, err
	}
	res, err := s.pipeline.ProcessRGB(rgb, snap)
	if err != nil {
		return nil, err
	}

	edges := res.Artifacts.Edges
	encoded, err := overlay.EncodePNG(edges.GrayImage())
	if err != nil {
		return nil, err
	}
	n := edges.CountSet()
	return &EdgeDetectResult{
		Width:          res.Width,
		Height:         res.Height,
		Input:          snap.EdgeInput.String(),
		Edge:           snap.Edge,
		EdgePixels:     n,
		EdgePercentage: float64(n) / float64(res.Width*res.Height) * 100,
		EdgeMap:        encoded,
	}, nil
}

// === Calibration Handlers ===

type sampleColorArgs struct {
	Path   string `json:"path"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Reload bool   `json:"reload"`
}

// SampleColorResult is the result of vision_sample_color.
type SampleColorResult struct {
	*imaging.ColorResult
	ColorModel string                    `json:"color_model"`
	Interval   imaging.ThresholdInterval `json:"interval"`
	InRange    bool                      `json:"in_range"`
}

func (s *Server) handleSampleColor(args json.RawMessage) (interface{}, error) {
	var a sampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errPathRequired
	}
	if a.Reload {
		s.cache.Evict(a.Path)
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	c, err := imaging.SampleColor(img, img.Bounds().Min.X+a.X, img.Bounds().Min.Y+a.Y)
	if err != nil {
		return nil, err
	}

	snap := s.params.Snapshot()
	c0, c1, c2 := c.RGB.R, c.RGB.G, c.RGB.B
	if snap.ColorModel == imaging.ModelHSV {
		c0, c1, c2 = c.HSV.H, c.HSV.S, c.HSV.V
	}
	return &SampleColorResult{
		ColorResult: c,
		ColorModel:  snap.ColorModel.String(),
		Interval:    snap.Interval,
		InRange:     snap.Interval.Contains(c0, c1, c2),
	}, nil
}

// === Parameter Handlers ===

func (s *Server) handleListParams(args json.RawMessage) (interface{}, error) {
	return map[string]interface{}{
		"params": s.params.Params(),
	}, nil
}

type setParamArgs struct {
	Name   string                 `json:"name"`
	Value  interface{}            `json:"value"`
	Values map[string]interface{} `json:"values"`
}

func (s *Server) handleSetParam(args json.RawMessage) (interface{}, error) {
	var a setParamArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	if len(a.Values) > 0 {
		if a.Name != "" {
			return nil, errors.New("give either name/value or values, not both")
		}
		if err := s.params.Apply(a.Values); err != nil {
			return nil, err
		}
		return map[string]interface{}{"values": s.params.Values()}, nil
	}

	if a.Name == "" {
		return nil, errors.New("name or values is required")
	}
	v, err := s.params.Set(a.Name, a.Value)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"name": a.Name, "value": v}, nil
}

type paramFileArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleLoadParams(args json.RawMessage) (interface{}, error) {
	var a paramFileArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errPathRequired
	}
	if err := s.params.LoadFile(a.Path); err != nil {
		return nil, err
	}
	return map[string]interface{}{"path": a.Path, "values": s.params.Values()}, nil
}

func (s *Server) handleSaveParams(args json.RawMessage) (interface{}, error) {
	var a paramFileArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errPathRequired
	}
	if err := s.params.SaveFile(a.Path); err != nil {
		return nil, err
	}
	return map[string]interface{}{"path": a.Path, "saved": len(s.params.Params())}, nil
}
