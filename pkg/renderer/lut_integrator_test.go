package renderer

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-subsurface-lut/pkg/bake"
	"github.com/df07/go-subsurface-lut/pkg/core"
	"github.com/df07/go-subsurface-lut/pkg/integrator"
)

func newTestIntegrator(t *testing.T, kernel integrator.Kernel, workers int) *LUTIntegrator {
	t.Helper()
	logger, _ := test.NewNullLogger()
	config := DefaultIntegratorConfig()
	config.NumWorkers = workers
	return NewLUTIntegrator(kernel, config, logger)
}

func mustResolve(t *testing.T, resolution int, falloff core.Vec3, keepDirect bool) bake.Config {
	t.Helper()
	cfg, err := bake.Resolve(resolution, falloff, keepDirect)
	require.NoError(t, err)
	return cfg
}

func skinKernel(t *testing.T) integrator.Kernel {
	t.Helper()
	k, err := integrator.Lookup(integrator.DefaultKernel)
	require.NoError(t, err)
	return k
}

func TestIntegrateFiniteGrid(t *testing.T) {
	kernels := []integrator.Kernel{skinKernel(t), integrator.NewWrap()}

	for _, kernel := range kernels {
		for _, keep := range []bool{true, false} {
			li := newTestIntegrator(t, kernel, 0)
			grid, stats, err := li.Integrate(mustResolve(t, 32, core.NewVec3(1.0, 0.3, 0.2), keep), nil)
			require.NoError(t, err, kernel.Name())
			require.True(t, stats.Complete())

			for y := 0; y < 32; y++ {
				for x := 0; x < 32; x++ {
					texel := grid.Texel(x, y)
					if !texel.IsFinite() {
						t.Fatalf("%s: texel (%d,%d) is not finite: %v", kernel.Name(), x, y, texel)
					}
					if grid.Alpha(x, y) != 1 {
						t.Fatalf("%s: texel (%d,%d) has alpha %v", kernel.Name(), x, y, grid.Alpha(x, y))
					}
				}
			}
			assert.True(t, stats.Min.IsFinite())
			assert.True(t, stats.Max.IsFinite())
		}
	}
}

func TestIntegrateIdempotent(t *testing.T) {
	kernel := skinKernel(t)
	cfg := mustResolve(t, 64, core.NewVec3(1.0, 0.3, 0.2), false)

	// Different worker counts change scheduling but never the result
	first, _, err := newTestIntegrator(t, kernel, 1).Integrate(cfg, nil)
	require.NoError(t, err)
	second, _, err := newTestIntegrator(t, kernel, 7).Integrate(cfg, nil)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Raw(), second.Raw()); diff != "" {
		t.Errorf("grids differ between runs (-first +second):\n%s", diff)
	}
}

func TestIntegrateTintLawExact(t *testing.T) {
	// Power of two scales commute with half rounding, so the law holds bit for bit
	kernel := integrator.NewWrap()
	falloff := core.NewVec3(1.0, 0.3, 0.2)

	base, _, err := newTestIntegrator(t, kernel, 0).Integrate(mustResolve(t, 32, falloff, true), nil)
	require.NoError(t, err)

	for _, k := range []float64{0.5, 2, 0} {
		scaled, _, err := newTestIntegrator(t, kernel, 0).Integrate(mustResolve(t, 32, falloff.Multiply(k), true), nil)
		require.NoError(t, err)

		for y := 0; y < 32; y++ {
			for x := 0; x < 32; x++ {
				want := base.Texel(x, y).Multiply(k)
				if got := scaled.Texel(x, y); got != want {
					t.Fatalf("k=%v texel (%d,%d): expected %v, got %v", k, x, y, want, got)
				}
			}
		}
	}
}

func TestIntegrateTintLawWithinHalfPrecision(t *testing.T) {
	kernel := skinKernel(t)
	neutral := core.Splat(1)
	const k = 0.3

	base, _, err := newTestIntegrator(t, kernel, 0).Integrate(mustResolve(t, 16, neutral, false), nil)
	require.NoError(t, err)
	scaled, _, err := newTestIntegrator(t, kernel, 0).Integrate(mustResolve(t, 16, neutral.Multiply(k), false), nil)
	require.NoError(t, err)

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			want := base.Texel(x, y).Multiply(k)
			got := scaled.Texel(x, y)
			for ch := 0; ch < 3; ch++ {
				// Two half roundings, plus the subnormal floor
				tolerance := 2e-3*math.Abs(want.Channel(ch)) + 1e-7
				assert.InDelta(t, want.Channel(ch), got.Channel(ch), tolerance, "texel (%d,%d) channel %d", x, y, ch)
			}
		}
	}
}

func TestIntegrateMinimumTile(t *testing.T) {
	li := newTestIntegrator(t, &MockKernel{}, 0)
	grid, stats, err := li.Integrate(mustResolve(t, 8, core.Splat(1), false), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Tiles)
	assert.Equal(t, 64, stats.TexelsWritten)
	assert.True(t, stats.TileAligned)
	assert.True(t, stats.Complete())
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			assert.Equal(t, 1.0, grid.Alpha(x, y), "texel (%d,%d) unwritten", x, y)
		}
	}
}

func TestIntegrateRemainderTile(t *testing.T) {
	// 513 is not a multiple of the tile size. The last row and column of
	// tiles are one texel wide and must still be written.
	kernel := &MockKernel{}
	li := newTestIntegrator(t, kernel, 0)
	grid, stats, err := li.Integrate(mustResolve(t, 513, core.Splat(1), true), nil)
	require.NoError(t, err)

	assert.Equal(t, 65*65, stats.Tiles)
	assert.False(t, stats.TileAligned)
	assert.Equal(t, 513*513, stats.TexelsWritten)
	assert.Equal(t, int64(513*513), kernel.callCount.Load())

	for i := 0; i < 513; i++ {
		for _, texel := range [][2]int{{512, i}, {i, 512}} {
			x, y := texel[0], texel[1]
			require.Equal(t, 1.0, grid.Alpha(x, y), "texel (%d,%d) unwritten", x, y)
		}
	}

	edge := grid.Texel(512, 512)
	assert.InDelta(t, 512.5/513, edge.X, 1e-3)
	assert.InDelta(t, 512.5/513, edge.Y, 1e-3)
	assert.Equal(t, 1.0, edge.Z)
}

func TestIntegrateMissingKernel(t *testing.T) {
	li := newTestIntegrator(t, nil, 0)
	grid, _, err := li.Integrate(mustResolve(t, 8, core.Splat(1), false), nil)
	assert.ErrorIs(t, err, core.ErrMissingKernel)
	assert.Nil(t, grid)
}

func TestIntegrateUnresolvedConfig(t *testing.T) {
	li := newTestIntegrator(t, &MockKernel{}, 0)
	grid, _, err := li.Integrate(bake.Config{}, nil)
	assert.ErrorIs(t, err, core.ErrInvalidDimension)
	assert.Nil(t, grid)
}

func TestIntegrateKernelFailureReturnsNoGrid(t *testing.T) {
	li := newTestIntegrator(t, &PanicKernel{column: TexelCenter(20, 32)}, 3)
	grid, stats, err := li.Integrate(mustResolve(t, 32, core.Splat(1), false), nil)
	require.Error(t, err)
	assert.Nil(t, grid, "no partial grid on failure")
	assert.Equal(t, BakeStats{}, stats)
}

func TestIntegrateTileCallback(t *testing.T) {
	li := newTestIntegrator(t, &MockKernel{}, 4)

	var completions []TileCompletion
	seen := make(map[[2]int]bool)
	_, stats, err := li.Integrate(mustResolve(t, 24, core.Splat(1), false), func(c TileCompletion) {
		completions = append(completions, c)
		seen[[2]int{c.TileX, c.TileY}] = true
	})
	require.NoError(t, err)

	require.Len(t, completions, stats.Tiles)
	for i, c := range completions {
		assert.Equal(t, i+1, c.TileNumber)
		assert.Equal(t, 9, c.TotalTiles)
	}
	for ty := 0; ty < 3; ty++ {
		for tx := 0; tx < 3; tx++ {
			assert.True(t, seen[[2]int{tx, ty}], "tile (%d,%d) not reported", tx, ty)
		}
	}
}

func TestIntegrateLogsUnalignedResolution(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	li := NewLUTIntegrator(&MockKernel{}, DefaultIntegratorConfig(), logger)

	_, _, err := li.Integrate(mustResolve(t, 12, core.Splat(1), false), nil)
	require.NoError(t, err)

	var found bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Resolution is not a multiple of 8, clipping the last tile row and column" {
			found = true
			assert.Equal(t, 12, entry.Data["resolution"])
			assert.Equal(t, "mock", entry.Data["kernel"])
		}
	}
	assert.True(t, found, "expected a debug entry about the remainder tile")
}
