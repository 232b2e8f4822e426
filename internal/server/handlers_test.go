package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/cube-vision/internal/config"
	"github.com/ironsheep/cube-vision/internal/overlay"
)

// createCubeImageFile writes a dark width x height PNG with a power-cube
// yellow block and returns its path.
func createCubeImageFile(t *testing.T, width, height int, cube image.Rectangle) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cube.png")
	writeCubeImage(t, path, width, height, cube)
	return path
}

// writeCubeImage writes the cube image to path, replacing any existing file.
func writeCubeImage(t *testing.T, path string, width, height int, cube image.Rectangle) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.RGBA{30, 30, 40, 255}
			if (image.Point{X: x, Y: y}).In(cube) {
				c = color.RGBA{230, 200, 60, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
}

// callTool runs a tools/call request and returns the raw JSON text of the
// result, or the error response.
func callTool(t *testing.T, s *Server, name string, args interface{}) (string, *MCPError) {
	t.Helper()

	paramsJSON, err := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: paramsJSON})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return "", resp.Error
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("Result should be a map, got %T", resp.Result)
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", result["content"])
	}
	return content[0]["text"].(string), nil
}

// mustCallTool is callTool that fails the test on an error response and
// decodes the result into out.
func mustCallTool(t *testing.T, s *Server, name string, args interface{}, out interface{}) {
	t.Helper()
	text, mcpErr := callTool(t, s, name, args)
	if mcpErr != nil {
		t.Fatalf("%s failed: %s: %v", name, mcpErr.Message, mcpErr.Data)
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("failed to decode %s result: %v\n%s", name, err, text)
	}
}

func decodePNG(t *testing.T, enc *overlay.EncodedImage) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
	if err != nil {
		t.Fatalf("bad base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("bad png: %v", err)
	}
	return img
}

func TestProcessImage(t *testing.T) {
	s, _ := newTestServer(t)
	path := createCubeImageFile(t, 160, 120, image.Rect(30, 20, 140, 100))

	var res ProcessImageResult
	mustCallTool(t, s, "vision_process_image", map[string]interface{}{"path": path}, &res)

	if res.Width != 160 || res.Height != 120 {
		t.Errorf("frame size: got %dx%d", res.Width, res.Height)
	}
	if res.DisplayLevel != 3 {
		t.Errorf("display level: got %d, want the default 3", res.DisplayLevel)
	}
	if res.MaskPixels == 0 || res.EdgePixels == 0 {
		t.Errorf("nothing detected: mask %d, edges %d", res.MaskPixels, res.EdgePixels)
	}
	if res.SegmentCount != len(res.Segments) {
		t.Errorf("segment_count %d, but %d segments", res.SegmentCount, len(res.Segments))
	}
	if res.Output == nil {
		t.Fatal("output image missing")
	}
	img := decodePNG(t, res.Output)
	if img.Bounds().Dx() != 160 || img.Bounds().Dy() != 120+overlay.HeaderHeight {
		t.Errorf("output size: got %v", img.Bounds())
	}
	t.Logf("segments: %+v", res.Segments)
}

func TestProcessImage_Options(t *testing.T) {
	s, _ := newTestServer(t)
	path := createCubeImageFile(t, 160, 120, image.Rect(30, 20, 140, 100))

	var res ProcessImageResult
	mustCallTool(t, s, "vision_process_image", map[string]interface{}{
		"path":          path,
		"width":         80,
		"format":        "yuyv",
		"display_level": 0,
		"include_image": false,
	}, &res)

	if res.Width != 80 || res.Height != 60 {
		t.Errorf("sensor size: got %dx%d, want 80x60", res.Width, res.Height)
	}
	if res.Format != "yuyv" || res.DisplayLevel != 0 {
		t.Errorf("got format %s level %d", res.Format, res.DisplayLevel)
	}
	if res.Output != nil {
		t.Error("image included although include_image is false")
	}

	// The override is for this call only
	if lvl := s.params.Snapshot().DisplayLevel; lvl != overlay.LevelLines {
		t.Errorf("registry display level changed to %d", lvl)
	}
}

func TestProcessImage_Reload(t *testing.T) {
	s, _ := newTestServer(t)
	path := createCubeImageFile(t, 60, 40, image.Rect(10, 10, 50, 30))

	process := func(reload bool) ProcessImageResult {
		t.Helper()
		var res ProcessImageResult
		mustCallTool(t, s, "vision_process_image", map[string]interface{}{
			"path":          path,
			"reload":        reload,
			"include_image": false,
		}, &res)
		return res
	}

	first := process(false)
	if first.MaskPixels == 0 {
		t.Fatal("cube not detected")
	}

	// An empty rectangle leaves only the dark background
	writeCubeImage(t, path, 60, 40, image.Rectangle{})

	if cached := process(false); cached.MaskPixels != first.MaskPixels {
		t.Errorf("without reload: mask %d, want the cached %d", cached.MaskPixels, first.MaskPixels)
	}
	if fresh := process(true); fresh.MaskPixels != 0 {
		t.Errorf("with reload: mask %d, want 0 for the rewritten file", fresh.MaskPixels)
	}

	var edges EdgeDetectResult
	mustCallTool(t, s, "vision_edge_detect", map[string]interface{}{"path": path}, &edges)
	if edges.EdgePixels != 0 {
		t.Errorf("edge_detect after reload: %d edge pixels, want 0", edges.EdgePixels)
	}
}

func TestProcessImage_Errors(t *testing.T) {
	s, _ := newTestServer(t)
	path := createCubeImageFile(t, 20, 20, image.Rect(5, 5, 15, 15))

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing path", map[string]interface{}{}},
		{"missing file", map[string]interface{}{"path": "/nonexistent/cube.png"}},
		{"bad format", map[string]interface{}{"path": path, "format": "bayer"}},
		{"bad level", map[string]interface{}{"path": path, "display_level": 7}},
		{"negative size", map[string]interface{}{"path": path, "width": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mcpErr := callTool(t, s, "vision_process_image", tt.args)
			if mcpErr == nil {
				t.Fatal("expected an error response")
			}
			if mcpErr.Code != -32000 {
				t.Errorf("code: got %d, want -32000", mcpErr.Code)
			}
		})
	}
}

func TestEdgeDetect(t *testing.T) {
	s, _ := newTestServer(t)
	path := createCubeImageFile(t, 100, 80, image.Rect(20, 20, 80, 60))

	var res EdgeDetectResult
	mustCallTool(t, s, "vision_edge_detect", map[string]interface{}{
		"path":           path,
		"threshold_low":  20,
		"threshold_high": 60,
		"input":          "gray",
	}, &res)

	if res.Input != "gray" || res.Edge.Threshold1 != 20 || res.Edge.Threshold2 != 60 {
		t.Errorf("overrides not applied: %+v", res)
	}
	if res.EdgePixels == 0 || res.EdgePercentage <= 0 || res.EdgePercentage > 100 {
		t.Errorf("edge stats: %d pixels, %.2f%%", res.EdgePixels, res.EdgePercentage)
	}
	img := decodePNG(t, res.EdgeMap)
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 80 {
		t.Errorf("edge map size: got %v", img.Bounds())
	}

	if got := s.params.Snapshot().Edge.Threshold1; got != 50 {
		t.Errorf("registry thresh1 changed to %v", got)
	}
}

func TestEdgeDetect_Errors(t *testing.T) {
	s, _ := newTestServer(t)
	path := createCubeImageFile(t, 20, 20, image.Rect(5, 5, 15, 15))

	for name, args := range map[string]map[string]interface{}{
		"even aperture": {"path": path, "aperture": 4},
		"bad input":     {"path": path, "input": "hsv"},
		"missing path":  {},
	} {
		if _, mcpErr := callTool(t, s, "vision_edge_detect", args); mcpErr == nil {
			t.Errorf("%s: expected an error response", name)
		}
	}
}

func TestSampleColor(t *testing.T) {
	s, _ := newTestServer(t)
	path := createCubeImageFile(t, 40, 40, image.Rect(10, 10, 30, 30))

	tests := []struct {
		name    string
		model   string
		x, y    int
		wantHex string
		inRange bool
	}{
		{"cube rgb", "rgb", 20, 20, "#E6C83C", true},
		{"background rgb", "rgb", 2, 2, "#1E1E28", false},
		{"cube hsv", "hsv", 20, 20, "#E6C83C", true},
		{"background hsv", "hsv", 2, 2, "#1E1E28", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.params.Set(config.ParamColorModel, tt.model); err != nil {
				t.Fatal(err)
			}

			var res struct {
				Hex        string `json:"hex"`
				ColorModel string `json:"color_model"`
				InRange    bool   `json:"in_range"`
			}
			mustCallTool(t, s, "vision_sample_color", map[string]interface{}{"path": path, "x": tt.x, "y": tt.y}, &res)

			if res.Hex != tt.wantHex {
				t.Errorf("hex: got %s, want %s", res.Hex, tt.wantHex)
			}
			if res.ColorModel != tt.model {
				t.Errorf("color_model: got %s", res.ColorModel)
			}
			if res.InRange != tt.inRange {
				t.Errorf("in_range: got %v, want %v", res.InRange, tt.inRange)
			}
		})
	}

	if _, mcpErr := callTool(t, s, "vision_sample_color", map[string]interface{}{"path": path, "x": 40, "y": 0}); mcpErr == nil {
		t.Error("out of bounds sample succeeded")
	}
}

func TestListParams(t *testing.T) {
	s, _ := newTestServer(t)

	var res struct {
		Params []struct {
			Name  string      `json:"name"`
			Kind  string      `json:"kind"`
			Value interface{} `json:"value"`
		} `json:"params"`
	}
	mustCallTool(t, s, "vision_list_params", nil, &res)

	if len(res.Params) != len(config.DefaultParams()) {
		t.Fatalf("got %d params, want %d", len(res.Params), len(config.DefaultParams()))
	}
	if p := res.Params[0]; p.Name != config.ParamDisplayLevel || p.Kind != "int" || p.Value != float64(3) {
		t.Errorf("first param: got %+v", p)
	}
}

func TestSetParam(t *testing.T) {
	s, _ := newTestServer(t)

	var single struct {
		Name  string      `json:"name"`
		Value interface{} `json:"value"`
	}
	mustCallTool(t, s, "vision_set_param", map[string]interface{}{"name": "thresh1", "value": "75"}, &single)
	if single.Value != float64(75) {
		t.Errorf("thresh1: got %v, want 75", single.Value)
	}

	mustCallTool(t, s, "vision_set_param", map[string]interface{}{"name": "aperture", "value": 99}, &single)
	if single.Value != float64(53) {
		t.Errorf("aperture: got %v, want clamped 53", single.Value)
	}

	var batch struct {
		Values map[string]interface{} `json:"values"`
	}
	mustCallTool(t, s, "vision_set_param", map[string]interface{}{
		"values": map[string]interface{}{"erosionIt": 2, "l2grad": true},
	}, &batch)
	if batch.Values["erosionIt"] != float64(2) || batch.Values["l2grad"] != true {
		t.Errorf("batch: got %v", batch.Values)
	}

	snap := s.params.Snapshot()
	if snap.Edge.Threshold1 != 75 || snap.Edge.Aperture != 53 || snap.Morphology.Erode != 2 || !snap.Edge.L2Gradient {
		t.Errorf("snapshot: got %+v", snap)
	}
}

func TestSetParam_Errors(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"empty", map[string]interface{}{}},
		{"unknown", map[string]interface{}{"name": "gain", "value": 1}},
		{"bad value", map[string]interface{}{"name": "l2grad", "value": "sometimes"}},
		{"bad enum", map[string]interface{}{"name": "colorModel", "value": "lab"}},
		{"both forms", map[string]interface{}{"name": "thresh1", "value": 1, "values": map[string]interface{}{"thresh2": 2}}},
		{"bad batch", map[string]interface{}{"values": map[string]interface{}{"thresh1": 10, "nope": 1}}},
		{"even aperture", map[string]interface{}{"name": "aperture", "value": 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, mcpErr := callTool(t, s, "vision_set_param", tt.args); mcpErr == nil {
				t.Error("expected an error response")
			}
		})
	}

	if got := s.params.Snapshot().Edge.Threshold1; got != 50 {
		t.Errorf("failed batch changed thresh1 to %v", got)
	}
	if got := s.params.Snapshot().Edge.Aperture; got != 3 {
		t.Errorf("even aperture changed the value to %d", got)
	}
}

func TestSaveLoadParams(t *testing.T) {
	s, _ := newTestServer(t)
	path := filepath.Join(t.TempDir(), "params.yaml")

	if _, err := s.params.Set(config.ParamMinR, 200); err != nil {
		t.Fatal(err)
	}

	var saved struct {
		Path  string `json:"path"`
		Saved int    `json:"saved"`
	}
	mustCallTool(t, s, "vision_save_params", map[string]interface{}{"path": path}, &saved)
	if saved.Saved != len(config.DefaultParams()) {
		t.Errorf("saved %d params", saved.Saved)
	}

	s.params.Reset()

	var loaded struct {
		Values map[string]interface{} `json:"values"`
	}
	mustCallTool(t, s, "vision_load_params", map[string]interface{}{"path": path}, &loaded)
	if loaded.Values[config.ParamMinR] != float64(200) {
		t.Errorf("min_r after load: got %v", loaded.Values[config.ParamMinR])
	}

	if _, mcpErr := callTool(t, s, "vision_load_params", map[string]interface{}{"path": filepath.Join(t.TempDir(), "missing.yaml")}); mcpErr == nil {
		t.Error("loading a missing file succeeded")
	}
	if _, mcpErr := callTool(t, s, "vision_save_params", map[string]interface{}{}); mcpErr == nil {
		t.Error("saving without a path succeeded")
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s, hook := newTestServer(t)

	_, mcpErr := callTool(t, s, "nonexistent_tool", map[string]interface{}{})
	if mcpErr == nil {
		t.Fatal("Expected error for invalid tool")
	}
	if mcpErr.Code != -32000 {
		t.Errorf("code: got %d, want -32000", mcpErr.Code)
	}
	if e := hook.LastEntry(); e == nil || e.Data["tool"] != "nonexistent_tool" {
		t.Errorf("failure not logged with the tool name: %+v", e)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s, _ := newTestServer(t)

	resp := s.handleToolsCall(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("got %+v, want -32602", resp.Error)
	}
}
