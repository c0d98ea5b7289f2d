package server

import (
	"net/http"

	"github.com/df07/go-subsurface-lut/pkg/renderer"
)

// InspectResponse represents the JSON response for texel inspection
type InspectResponse struct {
	Baked      bool       `json:"baked"`
	Kernel     string     `json:"kernel,omitempty"`
	X          int        `json:"x"`
	Y          int        `json:"y"`
	U          float64    `json:"u"`        // Curvature coordinate of the texel centre
	V          float64    `json:"v"`        // Remapped N·L of the texel centre
	CosTheta   float64    `json:"cosTheta"` // 2v - 1
	Value      [3]float64 `json:"value"`    // Stored half-precision response
	Alpha      float64    `json:"alpha"`
	Luminance  float64    `json:"luminance"`
	Resolution int        `json:"resolution"`
}

// handleInspect reports the stored value of one texel of the current bake.
// Coordinates are texel indices with y = 0 at v = 0.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		writeJSON(w, http.StatusOK, InspectResponse{Baked: false})
		return
	}
	img, ok := s.current.Preview()
	if !ok {
		writeJSON(w, http.StatusOK, InspectResponse{Baked: false})
		return
	}
	grid := img.(*renderer.ResultGrid)
	res := grid.Resolution()

	x, err := parseIntParam(r.URL.Query(), "x", -1, 0, res-1)
	if err != nil || x < 0 {
		writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	y, err := parseIntParam(r.URL.Query(), "y", -1, 0, res-1)
	if err != nil || y < 0 {
		writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}

	value := grid.Texel(x, y)
	v := renderer.TexelCenter(y, res)
	writeJSON(w, http.StatusOK, InspectResponse{
		Baked:      true,
		Kernel:     s.current.KernelName(),
		X:          x,
		Y:          y,
		U:          renderer.TexelCenter(x, res),
		V:          v,
		CosTheta:   2*v - 1,
		Value:      value.Array(),
		Alpha:      grid.Alpha(x, y),
		Luminance:  value.Luminance(),
		Resolution: res,
	})
}
