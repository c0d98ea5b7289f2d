package bake

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-subsurface-lut/pkg/core"
)

// Request is the user-facing form of a bake, as read from flags or a YAML file
type Request struct {
	Resolution       int        `yaml:"resolution" json:"resolution"`
	FalloffColor     [3]float64 `yaml:"falloffColor,flow" json:"falloffColor"`
	KeepDirectBounce bool       `yaml:"keepDirectBounce" json:"keepDirectBounce"`
	Kernel           string     `yaml:"kernel" json:"kernel"`     // Registered kernel name or path to a YAML profile
	Transfer         string     `yaml:"transfer" json:"transfer"` // "linear" or "srgb"
	Output           string     `yaml:"output" json:"output"`     // Path of the exported TGA
}

// DefaultRequest returns the editor bake window defaults
func DefaultRequest() Request {
	return Request{
		Resolution:       512,
		FalloffColor:     [3]float64{1.0, 0.3, 0.2},
		KeepDirectBounce: false,
		Kernel:           "preintegrated-skin",
		Transfer:         "linear",
		Output:           "Baked_SubsurfaceLookupTexture.tga",
	}
}

// LoadRequest reads a YAML request file on top of DefaultRequest.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func LoadRequest(path string) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Request{}, fmt.Errorf("failed to read bake request: %w", err)
	}
	req, err := ParseRequest(data)
	if err != nil {
		return Request{}, fmt.Errorf("%s: %w", path, err)
	}
	return req, nil
}

// ParseRequest decodes YAML request data on top of DefaultRequest
func ParseRequest(data []byte) (Request, error) {
	req := DefaultRequest()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return Request{}, fmt.Errorf("failed to parse bake request: %w", err)
	}
	return req, nil
}

// Falloff returns the falloff color as a vector
func (r Request) Falloff() core.Vec3 {
	return core.NewVec3(r.FalloffColor[0], r.FalloffColor[1], r.FalloffColor[2])
}

// Resolve turns the request into an immutable Config
func (r Request) Resolve() (Config, error) {
	return Resolve(r.Resolution, r.Falloff(), r.KeepDirectBounce)
}
