package export

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-subsurface-lut/pkg/core"
	"github.com/df07/go-subsurface-lut/pkg/renderer"
)

// filledGrid returns a grid with every texel set to c
func filledGrid(resolution int, c core.Vec3) *renderer.ResultGrid {
	grid := renderer.NewResultGrid(resolution)
	for y := 0; y < resolution; y++ {
		for x := 0; x < resolution; x++ {
			grid.Set(x, y, c)
		}
	}
	return grid
}

func TestExportDownsamplesToMaxSize(t *testing.T) {
	asset, err := Export(filledGrid(128, core.Splat(0.5)), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 64, asset.Image.Bounds().Dx())
	assert.Equal(t, 64, asset.Image.Bounds().Dy())
	assert.Equal(t, 128, asset.SourceResolution)
	assert.Equal(t, DefaultImportSettings(), asset.Settings)

	// The filter may round the 16-bit intermediate by one step
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := asset.Image.RGBAAt(x, y)
			require.InDelta(t, 128, int(c.R), 1, "pixel (%d,%d)", x, y)
			require.Equal(t, c.R, c.G)
			require.Equal(t, c.R, c.B)
			require.Equal(t, uint8(255), c.A)
		}
	}
}

func TestExportKeepsSmallResolution(t *testing.T) {
	asset, err := Export(filledGrid(8, core.Splat(1)), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 8, asset.Image.Bounds().Dx())
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, asset.Image.RGBAAt(3, 3))
}

func TestExportTransfer(t *testing.T) {
	tests := []struct {
		name     string
		transfer Transfer
		value    core.Vec3
		expected color.RGBA
	}{
		{"linear copy", TransferLinear, core.NewVec3(0.5, 0, 1), color.RGBA{R: 128, G: 0, B: 255, A: 255}},
		{"srgb encode", TransferSRGB, core.NewVec3(0.5, 0, 1), color.RGBA{R: 188, G: 0, B: 255, A: 255}},
		{"extended range clamps", TransferLinear, core.NewVec3(3, -1, 0.25), color.RGBA{R: 255, G: 0, B: 64, A: 255}},
		{"default transfer is linear", "", core.NewVec3(0.5, 0.5, 0.5), color.RGBA{R: 128, G: 128, B: 128, A: 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Transfer = tt.transfer
			asset, err := Export(filledGrid(8, tt.value), opts)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, asset.Image.RGBAAt(0, 0))
		})
	}
}

func TestExportOrientation(t *testing.T) {
	// Texel row 0 (v = 0) is the bottom of the image and the first TGA row
	grid := filledGrid(8, core.Vec3{})
	for x := 0; x < 8; x++ {
		grid.Set(x, 0, core.NewVec3(1, 0, 0))
	}

	asset, err := Export(grid, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, asset.Image.RGBAAt(0, 7))
	assert.Equal(t, color.RGBA{A: 255}, asset.Image.RGBAAt(0, 0))

	// First pixel after the header, stored as BGR
	assert.Equal(t, []byte{0, 0, 255}, asset.Encoded[18:21])
}

func TestExportTGALayout(t *testing.T) {
	asset, err := Export(filledGrid(16, core.Splat(0.25)), DefaultOptions())
	require.NoError(t, err)

	data := asset.Encoded
	require.Len(t, data, 18+3*16*16+len(tgaFooter))
	assert.Equal(t, byte(0), data[1], "no color map")
	assert.Equal(t, byte(2), data[2], "uncompressed true-color")
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(data[12:14]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(data[14:16]))
	assert.Equal(t, byte(24), data[16], "24 bits per pixel")
	assert.Equal(t, byte(0), data[17], "bottom-left origin, no alpha")
	assert.True(t, bytes.HasSuffix(data, []byte("TRUEVISION-XFILE.\x00")))
}

func TestExportDeterministic(t *testing.T) {
	grid := renderer.NewResultGrid(96)
	for y := 0; y < 96; y++ {
		for x := 0; x < 96; x++ {
			grid.Set(x, y, core.NewVec3(float64(x)/96, float64(y)/96, 1.5))
		}
	}

	first, err := Export(grid, DefaultOptions())
	require.NoError(t, err)
	second, err := Export(grid, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first.Encoded, second.Encoded), "export must be byte-identical")
}

func TestExportWithoutGrid(t *testing.T) {
	_, err := Export(nil, DefaultOptions())
	assert.ErrorIs(t, err, core.ErrNothingToExport)

	grid := filledGrid(8, core.Splat(1))
	grid.Release()
	_, err = Export(grid, DefaultOptions())
	assert.ErrorIs(t, err, core.ErrNothingToExport)
}

func TestExportInvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Settings.MaxTextureSize = 0
	_, err := Export(filledGrid(8, core.Splat(1)), opts)
	assert.Error(t, err)

	opts = DefaultOptions()
	opts.Transfer = "gamma"
	_, err = Export(filledGrid(8, core.Splat(1)), opts)
	assert.Error(t, err)
}

func TestParseTransfer(t *testing.T) {
	for input, expected := range map[string]Transfer{"": TransferLinear, "linear": TransferLinear, "srgb": TransferSRGB} {
		got, err := ParseTransfer(input)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
	}
	_, err := ParseTransfer("SRGB")
	assert.Error(t, err)
}
