package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/df07/go-subsurface-lut/pkg/bake"
	"github.com/df07/go-subsurface-lut/pkg/core"
	"github.com/df07/go-subsurface-lut/pkg/export"
	"github.com/df07/go-subsurface-lut/pkg/integrator"
	"github.com/df07/go-subsurface-lut/pkg/renderer"
	"github.com/df07/go-subsurface-lut/pkg/session"
)

// Resolution limits accepted from the browser
const (
	MinResolution = 1
	MaxResolution = 2048
)

// Server serves LUT previews and exports for the editor window.
// It keeps the session of the most recent successful bake.
type Server struct {
	port    int
	workers int
	logger  logrus.FieldLogger

	mu      sync.Mutex // Serializes bakes and reads of the current grid
	current *session.Session
}

// NewServer creates a new web server
func NewServer(port, workers int, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{port: port, workers: workers, logger: logger}
}

// BakeRequest represents a bake request from the client
type BakeRequest struct {
	Kernel           string    `json:"kernel"`
	Resolution       int       `json:"resolution"`
	FalloffColor     core.Vec3 `json:"falloffColor"`
	KeepDirectBounce bool      `json:"keepDirectBounce"`
	Transfer         string    `json:"transfer"`
}

// Stats represents bake statistics
type Stats struct {
	Resolution    int        `json:"resolution"`
	Tiles         int        `json:"tiles"`
	Workers       int        `json:"workers"`
	TexelsWritten int        `json:"texelsWritten"`
	TileAligned   bool       `json:"tileAligned"`
	Min           [3]float64 `json:"min"`
	Max           [3]float64 `json:"max"`
	ElapsedMs     int64      `json:"elapsedMs"`
}

func newStats(bs renderer.BakeStats) Stats {
	return Stats{
		Resolution:    bs.Resolution,
		Tiles:         bs.Tiles,
		Workers:       bs.Workers,
		TexelsWritten: bs.TexelsWritten,
		TileAligned:   bs.TileAligned,
		Min:           bs.Min.Array(),
		Max:           bs.Max.Array(),
		ElapsedMs:     bs.Duration.Milliseconds(),
	}
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/kernels", s.handleKernels)
	mux.HandleFunc("/api/bake-config", s.handleBakeConfig)
	mux.HandleFunc("/api/bake", s.handleBake)
	mux.HandleFunc("/api/bake-stream", s.handleBakeStream)
	mux.HandleFunc("/api/asset", s.handleAsset)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Infof("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// Close releases the current session
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Close()
		s.current = nil
	}
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleKernels lists the built-in kernels
func (s *Server) handleKernels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"kernels": integrator.Names(),
		"default": integrator.DefaultKernel,
	})
}

// handleBakeConfig returns the default request and the validation limits
func (s *Server) handleBakeConfig(w http.ResponseWriter, r *http.Request) {
	defaults := bake.DefaultRequest()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"defaults": defaults,
		"limits": map[string]interface{}{
			"resolution": map[string]int{
				"min": MinResolution,
				"max": MaxResolution,
			},
			"falloffColor": map[string]float64{
				"min": 0,
				"max": 1,
			},
		},
		"tileSize": bake.TileSize,
	})
}

// handleBake bakes synchronously and answers with the full resolution preview
func (s *Server) handleBake(w http.ResponseWriter, r *http.Request) {
	req, err := parseBakeRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.bakeLocked(req, s.logger, nil); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	img, _ := s.current.Preview()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode preview: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleAsset returns the exported TGA of the current bake, or 204 when
// nothing has been baked yet
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	asset, err := s.current.Export()
	if errors.Is(err, core.ErrNothingToExport) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/x-tga")
	w.Header().Set("Content-Disposition", `attachment; filename="`+bake.DefaultRequest().Output+`"`)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	w.Write(asset.Encoded)
}

// bakeLocked runs a bake in a fresh session and, on success, makes it the
// current one. Callers hold s.mu.
func (s *Server) bakeLocked(req *BakeRequest, logger logrus.FieldLogger, onTile func(renderer.TileCompletion)) (renderer.BakeStats, error) {
	transfer, err := export.ParseTransfer(req.Transfer)
	if err != nil {
		return renderer.BakeStats{}, err
	}

	opts := session.DefaultOptions()
	opts.KernelRef = req.Kernel
	opts.Integrator.NumWorkers = s.workers
	opts.Export.Transfer = transfer
	opts.Logger = logger
	opts.OnTile = onTile

	next := session.Open(opts)
	if _, err := next.Configure(req.Resolution, req.FalloffColor, req.KeepDirectBounce); err != nil {
		next.Close()
		return renderer.BakeStats{}, err
	}

	// Only one grid is alive at a time
	if s.current != nil {
		s.current.Close()
		s.current = nil
	}

	stats, err := next.Bake()
	if err != nil {
		next.Close()
		return renderer.BakeStats{}, err
	}
	s.current = next
	return stats, nil
}

// parseBakeRequest parses request parameters
func parseBakeRequest(values url.Values) (*BakeRequest, error) {
	defaults := bake.DefaultRequest()
	req := &BakeRequest{
		Kernel:     defaults.Kernel,
		Transfer:   defaults.Transfer,
		Resolution: defaults.Resolution,
	}

	if kernel := values.Get("kernel"); kernel != "" {
		// Only registered kernels; profile paths are not accepted over HTTP
		if _, err := integrator.Lookup(kernel); err != nil {
			return nil, err
		}
		req.Kernel = kernel
	}
	if transfer := values.Get("transfer"); transfer != "" {
		req.Transfer = transfer
	}

	var err error
	if req.Resolution, err = parseIntParam(values, "resolution", defaults.Resolution, MinResolution, MaxResolution); err != nil {
		return nil, err
	}
	if req.KeepDirectBounce, err = parseBoolParam(values, "keepDirectBounce", defaults.KeepDirectBounce); err != nil {
		return nil, err
	}

	req.FalloffColor = core.NewVec3(defaults.FalloffColor[0], defaults.FalloffColor[1], defaults.FalloffColor[2])
	if value := values.Get("falloff"); value != "" {
		c, err := core.ParseVec3(value)
		if err != nil {
			return nil, fmt.Errorf("invalid falloff: %w", err)
		}
		if c.Clamp(0, 1) != c {
			return nil, fmt.Errorf("falloff components must be between 0 and 1, got: %s", c)
		}
		req.FalloffColor = c
	}
	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseBoolParam parses a boolean parameter from URL query
func parseBoolParam(values url.Values, key string, defaultValue bool) (bool, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// statusFor maps bake errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrMissingKernel), errors.Is(err, core.ErrInvalidDimension):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
