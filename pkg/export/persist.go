package export

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Persist writes the asset to path and its import settings to the sidecar,
// replacing any previous asset at that path
func Persist(asset *EncodedAsset, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := writeFileReplacing(path, asset.Encoded); err != nil {
		return fmt.Errorf("failed to write asset: %w", err)
	}

	meta, err := yaml.Marshal(Sidecar{
		TextureImporter: asset.Settings,
		Source:          asset.Source,
	})
	if err != nil {
		return fmt.Errorf("failed to encode sidecar: %w", err)
	}
	if err := writeFileReplacing(SidecarPath(path), meta); err != nil {
		return fmt.Errorf("failed to write sidecar: %w", err)
	}
	return nil
}

// writeFileReplacing writes data to a temporary file beside path and renames
// it over path, so readers never see a half written asset
func writeFileReplacing(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // No-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
