package scaffold

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"

	"github.com/ivallesp/tenantcron/internal/schema"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var errManifestExists = errors.New("manifest already exists")

type templateData struct {
	SchemaURL string
}

// InitManifest writes a starter accounts.yaml at path. It refuses to
// overwrite an existing file.
func InitManifest(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", errManifestExists, path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat manifest: %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	b, err := renderTemplate("accounts.yaml.tmpl", templateData{SchemaURL: schema.V0URL})
	if err != nil {
		return err
	}
	return writeExclusive(path, 0o644, b)
}

func renderTemplate(name string, data templateData) ([]byte, error) {
	p := filepath.Join("templates", name)
	t, err := template.New(name).Option("missingkey=error").ParseFS(templatesFS, p)
	if err != nil {
		return nil, fmt.Errorf("parse template: %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render template: %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func writeExclusive(path string, perm fs.FileMode, content []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm) // #nosec G304 -- operator-chosen path
	if err != nil {
		return fmt.Errorf("create file: %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(content); err != nil {
		return fmt.Errorf("write file: %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close file: %s: %w", path, err)
	}
	return nil
}
