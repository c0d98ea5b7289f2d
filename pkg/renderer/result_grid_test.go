package renderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-subsurface-lut/pkg/core"
)

func TestResultGridStoresExtendedRange(t *testing.T) {
	grid := NewResultGrid(4)

	// Values representable in half precision come back exactly
	grid.Set(1, 2, core.NewVec3(0.5, 2.0, 12.25))
	assert.Equal(t, core.NewVec3(0.5, 2.0, 12.25), grid.Texel(1, 2))
	assert.Equal(t, 1.0, grid.Alpha(1, 2))

	// Others are rounded to the nearest half
	grid.Set(0, 0, core.NewVec3(0.3, 0.3, 0.3))
	assert.InDelta(t, 0.3, grid.Texel(0, 0).X, 1e-3)

	// Unwritten texels stay zero, including alpha
	assert.Equal(t, core.Vec3{}, grid.Texel(3, 3))
	assert.Equal(t, 0.0, grid.Alpha(3, 3))
}

func TestResultGridImageView(t *testing.T) {
	grid := NewResultGrid(2)
	grid.Set(0, 0, core.NewVec3(1, 0, 0))   // bottom-left texel
	grid.Set(1, 1, core.NewVec3(4, 0.5, 0)) // top-right texel, out of display range

	var img image.Image = grid
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	assert.Equal(t, color.RGBA64Model, img.ColorModel())

	// Rows are flipped so that v = 1 is at the top of the image
	assert.Equal(t, color.RGBA64{R: 0xffff, A: 0xffff}, img.At(0, 1))
	assert.Equal(t, color.RGBA64{R: 0xffff, G: 0x8000, A: 0xffff}, img.At(1, 0))
	assert.Equal(t, color.RGBA64{}, img.At(1, 1), "unwritten texel is transparent")
	assert.Equal(t, color.RGBA64{}, img.At(5, 5), "outside bounds")
}

func TestResultGridRelease(t *testing.T) {
	grid := NewResultGrid(8)
	require.False(t, grid.Released())

	raw := grid.Raw()
	assert.Len(t, raw, 8*8*4)

	grid.Release()
	assert.True(t, grid.Released())
	assert.True(t, grid.Bounds().Empty())
	assert.Equal(t, color.RGBA64{}, grid.At(0, 0))

	var nilGrid *ResultGrid
	assert.True(t, nilGrid.Released())
	nilGrid.Release()
}

func TestTexelCenter(t *testing.T) {
	assert.Equal(t, 0.0625, TexelCenter(0, 8))
	assert.Equal(t, 0.9375, TexelCenter(7, 8))
	assert.Equal(t, 0.5, TexelCenter(256, 513))
}
