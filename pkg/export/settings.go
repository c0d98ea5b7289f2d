package export

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ImportSettings are the texture import settings written next to the asset
type ImportSettings struct {
	SRGBTexture        bool   `yaml:"sRGBTexture"`
	MaxTextureSize     int    `yaml:"maxTextureSize"`
	TextureCompression string `yaml:"textureCompression"`
	WrapMode           string `yaml:"wrapMode"`
}

// DefaultImportSettings returns the fixed LUT import policy: sRGB, at most
// 64 texels per side, uncompressed, clamped at the edges
func DefaultImportSettings() ImportSettings {
	return ImportSettings{
		SRGBTexture:        true,
		MaxTextureSize:     64,
		TextureCompression: "Uncompressed",
		WrapMode:           "Clamp",
	}
}

// Provenance records which bake produced an asset
type Provenance struct {
	Kernel           string     `yaml:"kernel"`
	Resolution       int        `yaml:"resolution"`
	FalloffColor     [3]float64 `yaml:"falloffColor,flow"`
	KeepDirectBounce bool       `yaml:"keepDirectBounce"`
	Transfer         Transfer   `yaml:"transfer"`
}

// Sidecar is the document stored in the ".meta" file beside an asset
type Sidecar struct {
	TextureImporter ImportSettings `yaml:"textureImporter"`
	Source          Provenance     `yaml:"source"`
}

// SidecarPath returns the sidecar location for an asset path
func SidecarPath(assetPath string) string {
	return assetPath + ".meta"
}

// ReadSidecar loads the sidecar stored beside an asset
func ReadSidecar(assetPath string) (Sidecar, error) {
	data, err := os.ReadFile(SidecarPath(assetPath))
	if err != nil {
		return Sidecar{}, fmt.Errorf("failed to read sidecar: %w", err)
	}
	var sc Sidecar
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Sidecar{}, fmt.Errorf("failed to parse sidecar: %w", err)
	}
	return sc, nil
}
