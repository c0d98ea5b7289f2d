package renderer

import (
	"image"

	"github.com/df07/go-subsurface-lut/pkg/bake"
	"github.com/df07/go-subsurface-lut/pkg/integrator"
)

// TileRenderer evaluates the kernel for every texel of a tile
type TileRenderer struct {
	kernel integrator.Kernel
}

// NewTileRenderer creates a new tile renderer for the given kernel
func NewTileRenderer(kernel integrator.Kernel) *TileRenderer {
	return &TileRenderer{
		kernel: kernel,
	}
}

// RenderTileBounds integrates texels within the specified bounds into grid.
// Each texel depends only on its own coordinates and cfg, so tiles with
// disjoint bounds may render into the same grid concurrently.
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, cfg bake.Config, grid *ResultGrid) TileStats {
	resolution := cfg.Resolution()
	falloff := cfg.FalloffColor()
	keepDirect := cfg.KeepDirectBounce()

	stats := newTileStats()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		v := TexelCenter(y, resolution)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			u := TexelCenter(x, resolution)
			response := tr.kernel.Response(u, v, keepDirect)
			grid.Set(x, y, response.MultiplyVec(falloff))
			stats.addTexel(grid.Texel(x, y))
		}
	}
	return stats
}
