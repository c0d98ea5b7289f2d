package export

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"
)

// tgaHeader is the 18 byte header of a TGA file
type tgaHeader struct {
	IDLength        uint8
	ColorMapType    uint8
	ImageType       uint8
	ColorMapOrigin  uint16
	ColorMapLength  uint16
	ColorMapDepth   uint8
	XOrigin         uint16
	YOrigin         uint16
	Width           uint16
	Height          uint16
	PixelDepth      uint8
	ImageDescriptor uint8
}

const (
	tgaTypeTrueColor = 2 // Uncompressed true-color image
	tgaMaxDimension  = 1<<16 - 1
)

// tgaFooter marks the file as TGA 2.0 with no extension or developer areas
var tgaFooter = append(make([]byte, 8), "TRUEVISION-XFILE.\x00"...)

// EncodeTGA writes img as an uncompressed 24-bit TGA with a bottom-left
// origin. Alpha is dropped.
func EncodeTGA(w io.Writer, img *image.RGBA) error {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 || b.Dx() > tgaMaxDimension || b.Dy() > tgaMaxDimension {
		return fmt.Errorf("tga: invalid image size %dx%d", b.Dx(), b.Dy())
	}

	header := tgaHeader{
		ImageType:  tgaTypeTrueColor,
		Width:      uint16(b.Dx()),
		Height:     uint16(b.Dy()),
		PixelDepth: 24,
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("tga: failed to write header: %w", err)
	}

	// Rows are stored bottom to top, pixels as BGR
	row := make([]byte, 3*b.Dx())
	for y := b.Max.Y - 1; y >= b.Min.Y; y-- {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			i := 3 * (x - b.Min.X)
			row[i+0] = c.B
			row[i+1] = c.G
			row[i+2] = c.R
		}
		if _, err := w.Write(row); err != nil {
			return fmt.Errorf("tga: failed to write pixels: %w", err)
		}
	}

	if _, err := w.Write(tgaFooter); err != nil {
		return fmt.Errorf("tga: failed to write footer: %w", err)
	}
	return nil
}
