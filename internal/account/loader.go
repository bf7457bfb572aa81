package account

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRaw reads an accounts manifest without decoding it. This is what
// validate wants: it reports YAML and schema errors itself instead of
// failing fast on the first parse error.
func LoadRaw(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest does not exist: %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %s: %w", path, err)
	}
	return raw, nil
}

// Load reads and decodes an accounts manifest.
func Load(ctx context.Context, path string) (Manifest, error) {
	raw, err := LoadRaw(ctx, path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse yaml: %s: %w", path, err)
	}
	return m, nil
}
