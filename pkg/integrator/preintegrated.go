package integrator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"

	"github.com/df07/go-subsurface-lut/pkg/core"
)

// PreIntegrated integrates a diffusion profile around a ring of constant
// curvature, the way pre-integrated skin shading bakes its LUT.
//
// The v axis maps to cos(theta) = 2v-1 between the normal and the light.
// The u axis maps to curvature kappa = u * MaxCurvature (1/mm). For each lobe
// the incoming cosine is convolved with the lobe over arc length s, with the
// lobe evaluated at the chord distance between the two points on the ring:
//
//	N_i(theta) = integral of max(cos(theta + s*kappa), 0) * G_i(chord(s)) ds
//	D_i        = integral of G_i(chord(s)) ds
//	response   = sum_i w_i N_i / sum_i w_i D_i   (per channel)
//
// Each lobe gets its own integration window of +-4 sigma, clamped to half the
// ring, so narrow and wide lobes are resolved equally well.
type PreIntegrated struct {
	name         string
	profile      Profile
	lobes        []Lobe    // Sorted by variance; lobes[0] is the direct bounce
	maxCurvature float64   // 1/mm at u = 1
	nodes        []float64 // Gauss-Legendre abscissae on [-1, 1]
	weights      []float64 // Matching quadrature weights
}

// NewPreIntegrated creates a kernel for the given profile
func NewPreIntegrated(name string, profile Profile) (*PreIntegrated, error) {
	profile = profile.withDefaults()
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}

	nodes := make([]float64, profile.Nodes)
	weights := make([]float64, profile.Nodes)
	quad.Legendre{}.FixedLocations(nodes, weights, -1, 1)

	return &PreIntegrated{
		name:         name,
		profile:      profile,
		lobes:        profile.sortedLobes(),
		maxCurvature: profile.MaxCurvature,
		nodes:        nodes,
		weights:      weights,
	}, nil
}

// Name returns the kernel name
func (k *PreIntegrated) Name() string { return k.name }

// Profile returns the diffusion profile the kernel integrates
func (k *PreIntegrated) Profile() Profile { return k.profile }

// Response evaluates the pre-integrated diffusion at (u, v)
func (k *PreIntegrated) Response(u, v float64, keepDirectBounce bool) core.Vec3 {
	cosTheta := max(-1, min(1, 2*v-1))
	theta := math.Acos(cosTheta)
	kappa := u * k.maxCurvature

	g := make([]float64, len(k.nodes)) // Weighted lobe samples
	c := make([]float64, len(k.nodes)) // Clamped incident cosine

	var num, den [3]float64
	for i, lobe := range k.lobes {
		halfWidth := 4 * math.Sqrt(lobe.Variance)
		if kappa > 0 {
			halfWidth = min(halfWidth, math.Pi/kappa)
		}

		for n, x := range k.nodes {
			s := x * halfWidth
			g[n] = k.weights[n] * halfWidth * gaussian(lobe.Variance, chord(s, kappa))
			c[n] = max(math.Cos(theta+s*kappa), 0)
		}
		lit := floats.Dot(g, c)
		total := floats.Sum(g)

		for ch, w := range lobe.Weight {
			den[ch] += w * total
			// The direct bounce still normalizes the profile when it is excluded
			if keepDirectBounce || i != 0 {
				num[ch] += w * lit
			}
		}
	}

	var out [3]float64
	for ch := range out {
		if den[ch] > 0 {
			out[ch] = num[ch] / den[ch]
		}
	}
	return core.NewVec3(out[0], out[1], out[2])
}

// chord returns the straight-line distance between two points separated by
// arc length s on a ring of curvature kappa
func chord(s, kappa float64) float64 {
	if kappa == 0 {
		return math.Abs(s)
	}
	return 2 * math.Sin(math.Abs(s)*kappa/2) / kappa
}
