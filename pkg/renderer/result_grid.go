package renderer

import (
	"image"
	"image/color"

	"github.com/x448/float16"

	"github.com/df07/go-subsurface-lut/pkg/core"
)

// ResultGrid is the integrated LUT: resolution x resolution RGBA texels stored
// as half floats in extended range. Texel (x, y) has v increasing with y, the
// way a texture is addressed; the image.Image view flips rows so that the
// preview shows v = 1 at the top.
//
// Distinct texels may be written concurrently. A grid is owned by whoever
// created it until it is released.
type ResultGrid struct {
	resolution int
	pix        []float16.Float16 // 4 halves per texel, texel index y*resolution + x
}

// NewResultGrid allocates a zeroed grid
func NewResultGrid(resolution int) *ResultGrid {
	return &ResultGrid{
		resolution: resolution,
		pix:        make([]float16.Float16, 4*resolution*resolution),
	}
}

// Resolution returns the number of texels per side
func (g *ResultGrid) Resolution() int { return g.resolution }

// Released reports whether the grid's storage has been released
func (g *ResultGrid) Released() bool { return g == nil || g.pix == nil }

// Release drops the texel storage. The grid reads as empty afterwards.
func (g *ResultGrid) Release() {
	if g != nil {
		g.pix = nil
	}
}

// Set stores an RGB value at texel (x, y) with alpha 1
func (g *ResultGrid) Set(x, y int, c core.Vec3) {
	i := 4 * (y*g.resolution + x)
	g.pix[i+0] = float16.Fromfloat32(float32(c.X))
	g.pix[i+1] = float16.Fromfloat32(float32(c.Y))
	g.pix[i+2] = float16.Fromfloat32(float32(c.Z))
	g.pix[i+3] = float16.Fromfloat32(1)
}

// Texel returns the stored RGB value at texel (x, y) in full range
func (g *ResultGrid) Texel(x, y int) core.Vec3 {
	i := 4 * (y*g.resolution + x)
	return core.NewVec3(
		float64(g.pix[i+0].Float32()),
		float64(g.pix[i+1].Float32()),
		float64(g.pix[i+2].Float32()),
	)
}

// Alpha returns the stored alpha at texel (x, y); zero for unwritten texels
func (g *ResultGrid) Alpha(x, y int) float64 {
	return float64(g.pix[4*(y*g.resolution+x)+3].Float32())
}

// Raw returns a copy of the half float bit patterns in storage order
func (g *ResultGrid) Raw() []uint16 {
	raw := make([]uint16, len(g.pix))
	for i, h := range g.pix {
		raw[i] = h.Bits()
	}
	return raw
}

// ColorModel implements image.Image
func (g *ResultGrid) ColorModel() color.Model { return color.RGBA64Model }

// Bounds implements image.Image. A released grid has empty bounds.
func (g *ResultGrid) Bounds() image.Rectangle {
	if g.Released() {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, g.resolution, g.resolution)
}

// At implements image.Image, clamping the extended range to [0, 1]
func (g *ResultGrid) At(x, y int) color.Color {
	return g.RGBA64At(x, y)
}

// RGBA64At implements image.RGBA64Image
func (g *ResultGrid) RGBA64At(x, y int) color.RGBA64 {
	if !(image.Point{x, y}.In(g.Bounds())) {
		return color.RGBA64{}
	}
	ty := g.resolution - 1 - y
	c := g.Texel(x, ty).Clamp(0, 1)
	a := min(max(g.Alpha(x, ty), 0), 1)
	// Premultiplied, as color.RGBA64 requires
	return color.RGBA64{
		R: uint16(c.X*a*0xffff + 0.5),
		G: uint16(c.Y*a*0xffff + 0.5),
		B: uint16(c.Z*a*0xffff + 0.5),
		A: uint16(a*0xffff + 0.5),
	}
}

// TexelCenter maps texel index i to its normalized center coordinate
func TexelCenter(i, resolution int) float64 {
	return (float64(i) + 0.5) / float64(resolution)
}
