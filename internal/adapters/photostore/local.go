package photostore

import (
	"context"
	"courier-service/internal/platform/obs"
	"courier-service/internal/ports"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore writes photos under Dir and serves them from BaseURL.
type LocalStore struct {
	Dir     string
	BaseURL string
}

func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

// cleanName rejects names that would escape the store root.
func cleanName(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return clean, nil
}

func (s *LocalStore) Upload(ctx context.Context, name, _ string, body io.Reader) (url string, err error) {
	defer obs.Time(ctx, "photostore.local.Upload")(&err)

	name, err = cleanName(name)
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}

	dst := filepath.Join(s.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("upload photo: create dir: %w", err)
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("upload photo: %q: %w", name, ports.ErrConflict)
		}
		return "", fmt.Errorf("upload photo: create %q: %w", name, err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("upload photo: write %q: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("upload photo: close %q: %w", name, err)
	}

	return s.BaseURL + "/" + name, nil
}

func (s *LocalStore) Delete(ctx context.Context, name string) (err error) {
	defer obs.Time(ctx, "photostore.local.Delete")(&err)

	name, err = cleanName(name)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}

	if err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(name))); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete photo: %q: %w", name, ports.ErrNotFound)
		}
		return fmt.Errorf("delete photo: %q: %w", name, err)
	}
	return nil
}
