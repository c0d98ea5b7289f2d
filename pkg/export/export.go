package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/df07/go-subsurface-lut/pkg/core"
	"github.com/df07/go-subsurface-lut/pkg/renderer"
)

// Options controls how a grid is encoded
type Options struct {
	Transfer Transfer
	Settings ImportSettings
}

// DefaultOptions returns a linear copy with the default import policy
func DefaultOptions() Options {
	return Options{
		Transfer: TransferLinear,
		Settings: DefaultImportSettings(),
	}
}

// EncodedAsset is the 8-bit LUT derived from a grid, with its import settings
type EncodedAsset struct {
	Image            *image.RGBA // Top row is v = 1; alpha is always opaque
	Settings         ImportSettings
	Source           Provenance
	SourceResolution int
	Encoded          []byte // Uncompressed TGA bytes of Image
}

// Export converts an extended-range grid into an 8-bit asset. The grid is
// clamped, downsampled in linear space to the maximum import size, converted
// with the transfer function and quantized. The same grid always yields the
// same bytes.
func Export(grid *renderer.ResultGrid, opts Options) (*EncodedAsset, error) {
	if grid.Released() {
		return nil, core.ErrNothingToExport
	}
	if opts.Settings.MaxTextureSize <= 0 {
		return nil, fmt.Errorf("max texture size %d must be positive", opts.Settings.MaxTextureSize)
	}
	transfer, err := ParseTransfer(string(opts.Transfer))
	if err != nil {
		return nil, err
	}

	// The grid's image view already clamps to [0, 1] in linear space
	linear := image.Image(grid)
	resolution := grid.Resolution()
	size := min(resolution, opts.Settings.MaxTextureSize)
	if size != resolution {
		scaled := image.NewRGBA64(image.Rect(0, 0, size, size))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), grid, grid.Bounds(), draw.Src, nil)
		linear = scaled
	}

	out := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.RGBA64Model.Convert(linear.At(x, y)).(color.RGBA64)
			display := transfer.Encode(core.NewVec3(
				float64(c.R)/0xffff,
				float64(c.G)/0xffff,
				float64(c.B)/0xffff,
			))
			out.SetRGBA(x, y, color.RGBA{
				R: quantize(display.X),
				G: quantize(display.Y),
				B: quantize(display.Z),
				A: 0xff,
			})
		}
	}

	var buf bytes.Buffer
	if err := EncodeTGA(&buf, out); err != nil {
		return nil, err
	}

	return &EncodedAsset{
		Image:            out,
		Settings:         opts.Settings,
		Source:           Provenance{Resolution: resolution, Transfer: transfer},
		SourceResolution: resolution,
		Encoded:          buf.Bytes(),
	}, nil
}

// quantize rounds a [0, 1] value to 8 bits
func quantize(v float64) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}
