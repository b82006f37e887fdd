package asset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalHost keeps assets on the local filesystem. The server exposes Dir
// under BaseURL for development.
type LocalHost struct {
	dir     string
	baseURL string
}

// NewLocalHost creates dir if needed.
func NewLocalHost(dir, baseURL string) (*LocalHost, error) {
	if dir == "" {
		dir = "data/assets"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("asset: creating %s: %w", dir, err)
	}
	return &LocalHost{dir: dir, baseURL: baseURL}, nil
}

// Dir is the root directory the host writes to.
func (h *LocalHost) Dir() string { return h.dir }

func (h *LocalHost) Upload(ctx context.Context, u Upload) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a := newAsset(u)
	if err := h.write(a.PublicID, u.Data); err != nil {
		return nil, err
	}
	a.SecureURL = joinURL(h.baseURL, a.PublicID)
	return a, nil
}

func (h *LocalHost) Transform(ctx context.Context, a *Asset, variants []Variant) (map[string]string, error) {
	full, err := h.path(a.PublicID)
	if err != nil {
		return nil, err
	}
	original, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("asset: reading %s: %w", a.PublicID, err)
	}

	urls := make(map[string]string, len(variants))
	for _, v := range variants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, _, err := Resize(original, v)
		if err != nil {
			return nil, err
		}
		key := variantKey(a.PublicID, v.Name)
		if err := h.write(key, data); err != nil {
			return nil, err
		}
		urls[v.Name] = joinURL(h.baseURL, key)
	}
	return urls, nil
}

func (h *LocalHost) Delete(ctx context.Context, publicID string) error {
	for _, key := range objectKeys(publicID) {
		full, err := h.path(key)
		if err != nil {
			return err
		}
		if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("asset: deleting %s: %w", key, err)
		}
	}
	return nil
}

func (h *LocalHost) write(key string, data []byte) error {
	full, err := h.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("asset: creating directory for %s: %w", key, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("asset: writing %s: %w", key, err)
	}
	return nil
}

// path maps a key to a file under dir, refusing keys that escape it.
func (h *LocalHost) path(key string) (string, error) {
	full := filepath.Join(h.dir, filepath.FromSlash(key))
	rel, err := filepath.Rel(h.dir, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("asset: invalid key %q", key)
	}
	return full, nil
}
