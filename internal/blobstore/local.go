package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Local persists optimized images under a directory served as static content
// by the same process.
type Local struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) *Local {
	return &Local{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Save writes the payload under key and returns its public reference.
func (l *Local) Save(ctx context.Context, key, contentType string, payload []byte) (string, error) {
	path := filepath.Join(l.dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	return l.baseURL + "/" + key, nil
}

// Dir is the root the HTTP server mounts as the static file tree.
func (l *Local) Dir() string { return l.dir }
