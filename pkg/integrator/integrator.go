package integrator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/df07/go-subsurface-lut/pkg/core"
)

// Kernel is a subsurface diffusion model evaluated over the LUT domain.
// Response must be a pure function of its arguments: it is called concurrently
// from many tiles and the bake relies on identical inputs giving identical bits.
type Kernel interface {
	// Name identifies the kernel in logs and sidecar files
	Name() string

	// Response returns the untinted diffusion response for normalized texel
	// coordinates u (curvature / depth axis) and v (angular axis), both in [0,1]
	Response(u, v float64, keepDirectBounce bool) core.Vec3
}

// DefaultKernel is the kernel used when a request does not name one
const DefaultKernel = "preintegrated-skin"

var registry = map[string]func() (Kernel, error){
	DefaultKernel: func() (Kernel, error) {
		return NewPreIntegrated(DefaultKernel, SkinProfile())
	},
	"wrap": func() (Kernel, error) {
		return NewWrap(), nil
	},
}

// Names returns the registered kernel names in sorted order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a registered kernel by name
func Lookup(name string) (Kernel, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown kernel %q: %w", name, core.ErrMissingKernel)
	}
	k, err := factory()
	if err != nil {
		return nil, fmt.Errorf("kernel %q: %w: %v", name, core.ErrMissingKernel, err)
	}
	return k, nil
}

// Load resolves ref as a registered kernel name, falling back to a YAML
// profile file on disk. Every failure wraps core.ErrMissingKernel.
func Load(ref string) (Kernel, error) {
	if ref == "" {
		ref = DefaultKernel
	}
	if _, ok := registry[ref]; ok {
		return Lookup(ref)
	}

	if _, err := os.Stat(ref); err != nil {
		return nil, fmt.Errorf("kernel %q is neither registered nor a readable profile: %w", ref, core.ErrMissingKernel)
	}

	profile, err := LoadProfile(ref)
	if err != nil {
		return nil, fmt.Errorf("kernel %q: %w: %v", ref, core.ErrMissingKernel, err)
	}

	name := profile.Name
	if name == "" {
		name = filepath.Base(ref)
	}
	k, err := NewPreIntegrated(name, profile)
	if err != nil {
		return nil, fmt.Errorf("kernel %q: %w: %v", ref, core.ErrMissingKernel, err)
	}
	return k, nil
}
