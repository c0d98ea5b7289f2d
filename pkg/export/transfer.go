package export

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/df07/go-subsurface-lut/pkg/core"
)

// Transfer is the linear-to-display conversion applied before quantization
type Transfer string

const (
	// TransferLinear copies the clamped linear values, like a linear blit
	TransferLinear Transfer = "linear"
	// TransferSRGB applies the sRGB encoding curve
	TransferSRGB Transfer = "srgb"
)

// ParseTransfer validates a transfer name; empty means linear
func ParseTransfer(s string) (Transfer, error) {
	switch Transfer(s) {
	case "", TransferLinear:
		return TransferLinear, nil
	case TransferSRGB:
		return TransferSRGB, nil
	}
	return "", fmt.Errorf("unknown transfer %q (expected %q or %q)", s, TransferLinear, TransferSRGB)
}

// Encode converts a linear color to display values in [0, 1]
func (t Transfer) Encode(c core.Vec3) core.Vec3 {
	c = c.Clamp(0, 1)
	if t == TransferSRGB {
		srgb := colorful.LinearRgb(c.X, c.Y, c.Z).Clamped()
		return core.NewVec3(srgb.R, srgb.G, srgb.B)
	}
	return c
}
