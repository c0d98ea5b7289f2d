// Package session ties the resolver, integrator and exporter together behind
// an explicit lifecycle: open, configure, bake, then any number of previews
// and exports, then close.
//
// A session owns at most one result grid. Baking again releases the previous
// grid before the new one is allocated, and closing releases it for good.
package session

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/df07/go-subsurface-lut/pkg/bake"
	"github.com/df07/go-subsurface-lut/pkg/core"
	"github.com/df07/go-subsurface-lut/pkg/export"
	"github.com/df07/go-subsurface-lut/pkg/integrator"
	"github.com/df07/go-subsurface-lut/pkg/renderer"
)

// Options configures a bake session
type Options struct {
	KernelRef  string            // Registered kernel name or YAML profile path
	Kernel     integrator.Kernel // Used instead of KernelRef when set
	Integrator renderer.IntegratorConfig
	Export     export.Options
	Logger     logrus.FieldLogger

	// OnTile, if set, is called from the baking goroutine as tiles complete
	OnTile func(renderer.TileCompletion)
}

// DefaultOptions returns options for the default kernel and export policy
func DefaultOptions() Options {
	return Options{
		KernelRef:  integrator.DefaultKernel,
		Integrator: renderer.DefaultIntegratorConfig(),
		Export:     export.DefaultOptions(),
	}
}

// Session is one bake session. All methods are safe for concurrent use.
type Session struct {
	id     string
	logger logrus.FieldLogger

	mu         sync.Mutex
	kernel     integrator.Kernel
	kernelErr  error
	integrator *renderer.LUTIntegrator
	exportOpts export.Options
	config     bake.Config
	grid       *renderer.ResultGrid
	stats      renderer.BakeStats
	closed     bool
	onTile     func(renderer.TileCompletion)
}

// Open starts a session. A kernel that cannot be loaded does not fail the
// session: it stays open with baking disabled and Bake reports the cause.
func Open(opts Options) *Session {
	id := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger = logger.WithField("session", id)

	s := &Session{
		id:         id,
		logger:     logger,
		exportOpts: opts.Export,
		onTile:     opts.OnTile,
	}

	s.kernel = opts.Kernel
	if s.kernel == nil {
		s.kernel, s.kernelErr = integrator.Load(opts.KernelRef)
	}
	if s.kernelErr != nil {
		logger.WithError(s.kernelErr).Warn("Kernel unavailable, baking disabled")
		return s
	}

	s.integrator = renderer.NewLUTIntegrator(s.kernel, opts.Integrator, logger)
	logger.WithField("kernel", s.kernel.Name()).Debug("Session opened")
	return s
}

// ID returns the session identifier used in logs
func (s *Session) ID() string { return s.id }

// Ready reports whether Bake can run: a kernel is loaded and the session is open
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.kernel != nil
}

// KernelErr returns why the kernel could not be loaded, or nil
func (s *Session) KernelErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kernelErr
}

// KernelName returns the loaded kernel's name, or "" when none is loaded
func (s *Session) KernelName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kernel == nil {
		return ""
	}
	return s.kernel.Name()
}

// Configure resolves and stores the parameters for the next bake.
// On error the previous configuration is kept.
func (s *Session) Configure(resolution int, falloffColor core.Vec3, keepDirectBounce bool) (bake.Config, error) {
	cfg, err := bake.Resolve(resolution, falloffColor, keepDirectBounce)
	if err != nil {
		return bake.Config{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return bake.Config{}, core.ErrSessionClosed
	}
	s.config = cfg
	return cfg, nil
}

// Config returns the current configuration; zero before Configure
func (s *Session) Config() bake.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Bake integrates the configured LUT, replacing any previous result.
// It blocks until the grid is complete and cannot be cancelled.
func (s *Session) Bake() (renderer.BakeStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return renderer.BakeStats{}, core.ErrSessionClosed
	}
	if s.kernel == nil {
		if s.kernelErr == nil {
			s.kernelErr = core.ErrMissingKernel
		}
		return renderer.BakeStats{}, s.kernelErr
	}
	if s.config.IsZero() {
		return renderer.BakeStats{}, fmt.Errorf("bake before configure: %w", core.ErrInvalidDimension)
	}

	// Release the previous grid before allocating the next one
	s.releaseGrid()

	log := s.logger.WithField("kernel", s.kernel.Name())
	log.WithField("config", s.config.String()).Info("Baking LUT")

	progressStep := max(1, s.config.TilesPerSide()*s.config.TilesPerSide()/4)
	grid, stats, err := s.integrator.Integrate(s.config, func(tc renderer.TileCompletion) {
		if tc.TileNumber%progressStep == 0 || tc.TileNumber == tc.TotalTiles {
			log.Debugf("Integrated %d/%d tiles", tc.TileNumber, tc.TotalTiles)
		}
		if s.onTile != nil {
			s.onTile(tc)
		}
	})
	if err != nil {
		return renderer.BakeStats{}, fmt.Errorf("bake failed: %w", err)
	}

	s.grid = grid
	s.stats = stats
	log.WithFields(logrus.Fields{
		"resolution": stats.Resolution,
		"tiles":      stats.Tiles,
		"workers":    stats.Workers,
		"elapsed":    stats.Duration,
	}).Info("Bake completed")
	return stats, nil
}

// Stats returns the statistics of the last successful bake
func (s *Session) Stats() (renderer.BakeStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats, s.grid != nil
}

// Preview returns the current grid as an image for display. The image stays
// valid until the next Bake or Close.
func (s *Session) Preview() (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grid == nil {
		return nil, false
	}
	return s.grid, true
}

// Export encodes the current grid. Before the first successful bake it
// returns core.ErrNothingToExport, which callers treat as a no-op.
func (s *Session) Export() (*export.EncodedAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, core.ErrSessionClosed
	}
	if s.grid == nil {
		return nil, core.ErrNothingToExport
	}

	asset, err := export.Export(s.grid, s.exportOpts)
	if err != nil {
		return nil, err
	}
	asset.Source.Kernel = s.kernel.Name()
	asset.Source.FalloffColor = s.config.FalloffColor().Array()
	asset.Source.KeepDirectBounce = s.config.KeepDirectBounce()
	return asset, nil
}

// Save exports the current grid and persists it at path, overwriting the
// previous asset. It returns the saved asset.
func (s *Session) Save(path string) (*export.EncodedAsset, error) {
	asset, err := s.Export()
	if err != nil {
		if errors.Is(err, core.ErrNothingToExport) {
			s.logger.Debug("Nothing baked yet, skipping save")
		}
		return nil, err
	}
	if err := export.Persist(asset, path); err != nil {
		return nil, err
	}
	s.logger.WithField("path", path).Info("LUT saved")
	return asset, nil
}

// Close releases the grid and ends the session. It is safe to call twice.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.releaseGrid()
	s.closed = true
	s.logger.Debug("Session closed")
}

// releaseGrid drops the current grid; callers hold s.mu
func (s *Session) releaseGrid() {
	if s.grid != nil {
		s.grid.Release()
		s.grid = nil
		s.stats = renderer.BakeStats{}
	}
}
