package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-subsurface-lut/pkg/bake"
	"github.com/df07/go-subsurface-lut/pkg/core"
	"github.com/df07/go-subsurface-lut/pkg/export"
	"github.com/df07/go-subsurface-lut/pkg/integrator"
)

// parsedBakeCmd parses args into a bake command and returns its request builder
func parsedBakeCmd(t *testing.T, args ...string) func() (bake.Request, error) {
	t.Helper()
	f := &bakeFlags{}
	cmd := newBakeCmd(f)
	require.NoError(t, cmd.Flags().Parse(args))
	return func() (bake.Request, error) { return buildRequest(cmd, *f) }
}

func TestBuildRequestDefaults(t *testing.T) {
	build := parsedBakeCmd(t)
	req, err := build()
	require.NoError(t, err)
	assert.Equal(t, bake.DefaultRequest(), req)
}

func TestBuildRequestFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "request.yaml")
	require.NoError(t, os.WriteFile(path, []byte("resolution: 128\nkernel: wrap\ntransfer: srgb\n"), 0644))

	build := parsedBakeCmd(t, "--config", path, "--resolution", "64", "--falloff", "1, 0.5, 0.25", "--keep-direct-bounce")
	req, err := build()
	require.NoError(t, err)

	assert.Equal(t, 64, req.Resolution, "flag wins over file")
	assert.Equal(t, "wrap", req.Kernel, "file wins over default")
	assert.Equal(t, "srgb", req.Transfer)
	assert.Equal(t, [3]float64{1, 0.5, 0.25}, req.FalloffColor)
	assert.True(t, req.KeepDirectBounce)
}

func TestBuildRequestErrors(t *testing.T) {
	build := parsedBakeCmd(t, "--falloff", "red")
	_, err := build()
	assert.Error(t, err)

	build = parsedBakeCmd(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = build()
	assert.Error(t, err)
}

func TestRunBakeWritesAssetAndPreview(t *testing.T) {
	dir := t.TempDir()
	logger, _ := test.NewNullLogger()

	req := bake.DefaultRequest()
	req.Resolution = 32
	req.Kernel = "wrap"
	req.Output = filepath.Join(dir, "out", "lut.tga")
	f := bakeFlags{preview: filepath.Join(dir, "preview", "lut.png"), workers: 2}

	require.NoError(t, runBake(req, f, logger))

	data, err := os.ReadFile(req.Output)
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(data, []byte("TRUEVISION-XFILE.\x00")))

	sc, err := export.ReadSidecar(req.Output)
	require.NoError(t, err)
	assert.Equal(t, "wrap", sc.Source.Kernel)
	assert.Equal(t, 32, sc.Source.Resolution)

	png, err := os.ReadFile(f.preview)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestRunBakeErrors(t *testing.T) {
	logger, _ := test.NewNullLogger()
	out := filepath.Join(t.TempDir(), "lut.tga")

	tests := []struct {
		name   string
		modify func(*bake.Request)
		target error
	}{
		{"missing kernel", func(r *bake.Request) { r.Kernel = "nonexistent" }, core.ErrMissingKernel},
		{"zero resolution", func(r *bake.Request) { r.Resolution = 0 }, core.ErrInvalidDimension},
		{"unknown transfer", func(r *bake.Request) { r.Transfer = "gamma" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := bake.DefaultRequest()
			req.Resolution = 8
			req.Kernel = "wrap"
			req.Output = out
			tt.modify(&req)

			err := runBake(req, bakeFlags{}, logger)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			_, statErr := os.Stat(out)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestProfileFor(t *testing.T) {
	p, err := profileFor(integrator.DefaultKernel)
	require.NoError(t, err)
	assert.Len(t, p.Lobes, len(integrator.SkinProfile().Lobes))

	_, err = profileFor("wrap")
	assert.Error(t, err, "wrap kernel has no profile")

	_, err = profileFor("nonexistent")
	assert.ErrorIs(t, err, core.ErrMissingKernel)
}

func TestKernelsCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"kernels"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "* "+integrator.DefaultKernel)
	assert.Contains(t, out.String(), "  wrap")
}

func TestProfileCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.png")
	root := newRootCmd()
	root.SetArgs([]string{"profile", "--output", path, "--max-radius", "2"})
	require.NoError(t, root.Execute())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
