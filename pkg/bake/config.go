package bake

import (
	"fmt"

	"github.com/df07/go-subsurface-lut/pkg/core"
)

// TileSize is the edge length of the square tiles the integration is dispatched in
const TileSize = 8

// Config is the immutable description of one bake request.
// It is created by Resolve and never modified afterwards.
type Config struct {
	resolution       int
	falloffColor     core.Vec3
	keepDirectBounce bool
}

// Resolve validates and packages bake parameters.
// The falloff color is passed through unclamped. A resolution that is not a
// multiple of TileSize is accepted: the last row and column of tiles are
// clipped to the grid instead of being dropped.
func Resolve(resolution int, falloffColor core.Vec3, keepDirectBounce bool) (Config, error) {
	if resolution <= 0 {
		return Config{}, fmt.Errorf("resolution %d must be positive: %w", resolution, core.ErrInvalidDimension)
	}
	return Config{
		resolution:       resolution,
		falloffColor:     falloffColor,
		keepDirectBounce: keepDirectBounce,
	}, nil
}

// Resolution returns the number of texels per side
func (c Config) Resolution() int { return c.resolution }

// FalloffColor returns the per-channel tint applied to the kernel response
func (c Config) FalloffColor() core.Vec3 { return c.falloffColor }

// KeepDirectBounce reports whether the unscattered direct term is included
func (c Config) KeepDirectBounce() bool { return c.keepDirectBounce }

// TilesPerSide returns the number of tiles needed to cover one side of the grid
func (c Config) TilesPerSide() int {
	return (c.resolution + TileSize - 1) / TileSize // Ceiling division
}

// TileAligned reports whether the resolution is a multiple of TileSize
func (c Config) TileAligned() bool {
	return c.resolution%TileSize == 0
}

// IsZero reports whether c is the zero Config, i.e. was never resolved
func (c Config) IsZero() bool {
	return c.resolution == 0
}

func (c Config) String() string {
	return fmt.Sprintf("%dx%d falloff=(%s) keepDirectBounce=%t",
		c.resolution, c.resolution, c.falloffColor, c.keepDirectBounce)
}
