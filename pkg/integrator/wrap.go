package integrator

import "github.com/df07/go-subsurface-lut/pkg/core"

// Wrap is a closed-form wrapped diffuse kernel. The u axis is the wrap amount,
// so u = 0 reproduces Lambert and u = 1 lights the full sphere.
type Wrap struct{}

// NewWrap creates the wrap kernel
func NewWrap() *Wrap { return &Wrap{} }

// Name returns the kernel name
func (w *Wrap) Name() string { return "wrap" }

// Response evaluates (cos + w) / (1 + w). Without the direct bounce only the
// light wrapped past the Lambert term remains.
func (w *Wrap) Response(u, v float64, keepDirectBounce bool) core.Vec3 {
	cosTheta := max(-1, min(1, 2*v-1))
	wrapped := max(0, (cosTheta+u)/(1+u))
	if !keepDirectBounce {
		wrapped = max(0, wrapped-max(cosTheta, 0))
	}
	return core.Splat(wrapped)
}
