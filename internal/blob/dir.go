package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Dir stores blobs on the local filesystem. Files are served by the HTTP
// server under BaseURL.
type Dir struct {
	Root    string
	BaseURL string
}

// Put writes data to Root/key, creating directories as needed.
func (d *Dir) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rel, err := relPath(key)
	if err != nil {
		return "", err
	}

	dst := filepath.Join(d.Root, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("creating blob directory: %w", err)
	}

	// Write to a temporary file first so readers never see a partial blob.
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing blob: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("writing blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("storing blob: %w", err)
	}

	return joinURL(d.BaseURL, filepath.ToSlash(rel)), nil
}

// Delete removes Root/key.
func (d *Dir) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := relPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(d.Root, rel)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting blob: %w", err)
	}
	return nil
}

// relPath turns key into a path that stays inside the root.
func relPath(key string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(key))
	if rel == "." || filepath.IsAbs(rel) || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return rel, nil
}
