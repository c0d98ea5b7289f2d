package integrator

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-subsurface-lut/pkg/core"
)

// Lobe is one Gaussian term of a diffusion profile
type Lobe struct {
	Variance float64    `yaml:"variance"`     // mm^2
	Weight   [3]float64 `yaml:"weight,flow"` // Per-channel RGB weight
}

// Profile is a radial diffusion profile expressed as a sum of Gaussians.
// The lobe with the smallest variance is treated as the direct bounce.
type Profile struct {
	Name         string  `yaml:"name"`
	MaxCurvature float64 `yaml:"maxCurvature"` // 1/mm at u = 1
	Nodes        int     `yaml:"nodes"`        // Gauss-Legendre nodes per lobe
	Lobes        []Lobe  `yaml:"lobes"`
}

// Profile defaults applied when a file leaves them unset
const (
	DefaultMaxCurvature = 1.0
	DefaultNodes        = 64
)

// SkinProfile returns the six-Gaussian fit of the human skin profile
func SkinProfile() Profile {
	return Profile{
		Name:         "skin",
		MaxCurvature: DefaultMaxCurvature,
		Nodes:        DefaultNodes,
		Lobes: []Lobe{
			{Variance: 0.0064, Weight: [3]float64{0.233, 0.455, 0.649}},
			{Variance: 0.0484, Weight: [3]float64{0.100, 0.336, 0.344}},
			{Variance: 0.187, Weight: [3]float64{0.118, 0.198, 0.0}},
			{Variance: 0.567, Weight: [3]float64{0.113, 0.007, 0.007}},
			{Variance: 1.99, Weight: [3]float64{0.358, 0.004, 0.0}},
			{Variance: 7.41, Weight: [3]float64{0.078, 0.0, 0.0}},
		},
	}
}

// LoadProfile reads a YAML profile and fills in defaults
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return p, nil
}

func (p Profile) withDefaults() Profile {
	if p.MaxCurvature == 0 {
		p.MaxCurvature = DefaultMaxCurvature
	}
	if p.Nodes == 0 {
		p.Nodes = DefaultNodes
	}
	return p
}

// Validate checks that the profile describes a usable kernel
func (p Profile) Validate() error {
	if len(p.Lobes) == 0 {
		return fmt.Errorf("profile has no lobes")
	}
	if p.MaxCurvature < 0 || math.IsNaN(p.MaxCurvature) || math.IsInf(p.MaxCurvature, 0) {
		return fmt.Errorf("maxCurvature %v must be finite and non-negative", p.MaxCurvature)
	}
	if p.Nodes < 2 {
		return fmt.Errorf("nodes %d must be at least 2", p.Nodes)
	}

	var total [3]float64
	for i, l := range p.Lobes {
		if !(l.Variance > 0) || math.IsInf(l.Variance, 0) {
			return fmt.Errorf("lobe %d: variance %v must be positive and finite", i, l.Variance)
		}
		for c, w := range l.Weight {
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return fmt.Errorf("lobe %d: weight %v must be finite and non-negative", i, l.Weight)
			}
			total[c] += w
		}
	}
	if total == [3]float64{} {
		return fmt.Errorf("all lobe weights are zero")
	}
	return nil
}

// sortedLobes returns a copy of the lobes ordered by increasing variance
func (p Profile) sortedLobes() []Lobe {
	lobes := append([]Lobe(nil), p.Lobes...)
	sort.SliceStable(lobes, func(i, j int) bool {
		return lobes[i].Variance < lobes[j].Variance
	})
	return lobes
}

// Evaluate returns the profile value R(d) per channel at surface distance d (mm)
func (p Profile) Evaluate(d float64) core.Vec3 {
	var out core.Vec3
	for _, l := range p.Lobes {
		g := gaussian(l.Variance, d)
		out = out.Add(core.NewVec3(l.Weight[0], l.Weight[1], l.Weight[2]).Multiply(g))
	}
	return out
}

// gaussian is the normalized 2D Gaussian with the given variance, evaluated at radius d
func gaussian(variance, d float64) float64 {
	return math.Exp(-d*d/(2*variance)) / (2 * math.Pi * variance)
}
