package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-subsurface-lut/pkg/core"
)

func TestPersistWritesAssetAndSidecar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Assets", "Baked_SubsurfaceLookupTexture.tga")

	asset, err := Export(filledGrid(8, core.Splat(0.5)), DefaultOptions())
	require.NoError(t, err)
	asset.Source.Kernel = "wrap"
	require.NoError(t, Persist(asset, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, asset.Encoded, data)

	sc, err := ReadSidecar(path)
	require.NoError(t, err)
	want := Sidecar{
		TextureImporter: ImportSettings{
			SRGBTexture:        true,
			MaxTextureSize:     64,
			TextureCompression: "Uncompressed",
			WrapMode:           "Clamp",
		},
		Source: Provenance{Kernel: "wrap", Resolution: 8, Transfer: TransferLinear},
	}
	if diff := cmp.Diff(want, sc); diff != "" {
		t.Errorf("sidecar mismatch (-want +got):\n%s", diff)
	}
}

func TestPersistOverwritesInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lut.tga")

	dark, err := Export(filledGrid(8, core.Splat(0)), DefaultOptions())
	require.NoError(t, err)
	bright, err := Export(filledGrid(8, core.Splat(1)), DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, Persist(dark, path))
	require.NoError(t, Persist(bright, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, bright.Encoded, data)

	// Only the asset and its sidecar remain, no temporary files
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"lut.tga", "lut.tga.meta"}, names)
}

func TestReadSidecarMissing(t *testing.T) {
	_, err := ReadSidecar(filepath.Join(t.TempDir(), "nothing.tga"))
	assert.Error(t, err)
}
