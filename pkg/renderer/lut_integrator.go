package renderer

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/df07/go-subsurface-lut/pkg/bake"
	"github.com/df07/go-subsurface-lut/pkg/core"
	"github.com/df07/go-subsurface-lut/pkg/integrator"
)

// IntegratorConfig contains configuration for LUT integration
type IntegratorConfig struct {
	TileSize   int // Edge length of the dispatch tiles
	NumWorkers int // Number of parallel workers (0 = use CPU count)
}

// DefaultIntegratorConfig returns the fixed 8x8 tile dispatch on all CPUs
func DefaultIntegratorConfig() IntegratorConfig {
	return IntegratorConfig{
		TileSize:   bake.TileSize,
		NumWorkers: 0, // Auto-detect CPU count
	}
}

// TileCompletion contains information about a completed tile for callbacks
type TileCompletion struct {
	TileX, TileY int // Tile coordinates (not texel coordinates)
	TileNumber   int // Completed tile count so far (1-based)
	TotalTiles   int
}

// LUTIntegrator dispatches a kernel over every texel of the LUT
type LUTIntegrator struct {
	kernel integrator.Kernel
	config IntegratorConfig
	logger logrus.FieldLogger
}

// NewLUTIntegrator creates an integrator for kernel
func NewLUTIntegrator(kernel integrator.Kernel, config IntegratorConfig, logger logrus.FieldLogger) *LUTIntegrator {
	if config.TileSize <= 0 {
		config.TileSize = bake.TileSize
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LUTIntegrator{
		kernel: kernel,
		config: config,
		logger: logger,
	}
}

// Integrate computes a complete grid for cfg. It blocks until every tile has
// been written and either returns the full grid or an error, never a partial
// grid. tileCallback, if not nil, is called from the calling goroutine as
// tiles complete.
func (li *LUTIntegrator) Integrate(cfg bake.Config, tileCallback func(TileCompletion)) (*ResultGrid, BakeStats, error) {
	if li.kernel == nil {
		return nil, BakeStats{}, fmt.Errorf("no kernel loaded: %w", core.ErrMissingKernel)
	}
	if cfg.IsZero() {
		return nil, BakeStats{}, fmt.Errorf("unresolved bake config: %w", core.ErrInvalidDimension)
	}

	startTime := time.Now()
	resolution := cfg.Resolution()
	grid := NewResultGrid(resolution)
	tiles := NewTileGrid(resolution, resolution, li.config.TileSize)
	tilesX := (resolution + li.config.TileSize - 1) / li.config.TileSize

	pool := NewWorkerPool(li.kernel, len(tiles), li.config.NumWorkers)
	pool.Start()

	log := li.logger.WithFields(logrus.Fields{
		"kernel":     li.kernel.Name(),
		"resolution": resolution,
		"tiles":      len(tiles),
		"workers":    pool.GetNumWorkers(),
	})
	if !cfg.TileAligned() {
		log.Debugf("Resolution is not a multiple of %d, clipping the last tile row and column", li.config.TileSize)
	}

	// Submit all tiles as tasks
	for taskID, tile := range tiles {
		pool.SubmitTask(TileTask{
			Tile:   tile,
			TaskID: taskID,
			Config: cfg,
			Grid:   grid,
		})
	}

	// Wait for every tile, even after a failure, so no worker writes to the grid after release
	merged := newTileStats()
	var firstErr error
	for i := 0; i < len(tiles); i++ {
		result, ok := pool.GetResult()
		if !ok {
			firstErr = fmt.Errorf("worker pool closed unexpectedly")
			break
		}
		if result.Error != nil {
			if firstErr == nil {
				firstErr = result.Error
			}
			continue
		}
		merged.merge(result.Stats)

		if tileCallback != nil {
			tile := tiles[result.TaskID]
			tileCallback(TileCompletion{
				TileX:      tile.ID % tilesX,
				TileY:      tile.ID / tilesX,
				TileNumber: i + 1,
				TotalTiles: len(tiles),
			})
		}
	}
	pool.Stop()

	if firstErr != nil {
		grid.Release()
		log.WithError(firstErr).Error("Integration failed")
		return nil, BakeStats{}, firstErr
	}

	stats := BakeStats{
		Resolution:    resolution,
		Tiles:         len(tiles),
		Workers:       pool.GetNumWorkers(),
		TexelsWritten: merged.TexelsWritten,
		TileAligned:   cfg.TileAligned(),
		Min:           merged.Min,
		Max:           merged.Max,
		Duration:      time.Since(startTime),
	}
	log.WithField("elapsed", stats.Duration).Debug("Integration completed")
	return grid, stats, nil
}
