package renderer

import (
	"math"
	"time"

	"github.com/df07/go-subsurface-lut/pkg/core"
)

// TileStats contains statistics about a single integrated tile
type TileStats struct {
	TexelsWritten int       // Number of texels written by the tile
	Min           core.Vec3 // Per-channel minimum of the stored values
	Max           core.Vec3 // Per-channel maximum of the stored values
}

// newTileStats returns stats ready to accumulate texels
func newTileStats() TileStats {
	return TileStats{
		Min: core.Splat(math.Inf(1)),
		Max: core.Splat(math.Inf(-1)),
	}
}

// addTexel updates the statistics with one stored texel value
func (ts *TileStats) addTexel(c core.Vec3) {
	ts.TexelsWritten++
	ts.Min = ts.Min.Min(c)
	ts.Max = ts.Max.Max(c)
}

// merge folds the statistics of another tile into ts
func (ts *TileStats) merge(other TileStats) {
	ts.TexelsWritten += other.TexelsWritten
	ts.Min = ts.Min.Min(other.Min)
	ts.Max = ts.Max.Max(other.Max)
}

// BakeStats contains statistics about a complete integration
type BakeStats struct {
	Resolution    int           // Texels per side
	Tiles         int           // Number of tiles dispatched
	Workers       int           // Number of parallel workers
	TexelsWritten int           // Texels written across all tiles
	TileAligned   bool          // Whether the resolution is a multiple of the tile size
	Min           core.Vec3     // Per-channel minimum value in the grid
	Max           core.Vec3     // Per-channel maximum value in the grid
	Duration      time.Duration // Wall time of the integration
}

// Complete reports whether every texel of the grid was written
func (bs BakeStats) Complete() bool {
	return bs.TexelsWritten == bs.Resolution*bs.Resolution
}
