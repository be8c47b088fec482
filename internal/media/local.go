package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes images into a directory served under PublicBaseURL.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore ensures dir exists.
func NewLocalStore(dir, publicBaseURL string) (*LocalStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("media directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// Dir returns the directory holding stored files.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Save(ctx context.Context, filename string, body io.Reader) (string, error) {
	detected, content, err := sniffImage(body)
	if err != nil {
		return "", err
	}
	name := objectName(filename, detected)

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close media file: %w", err)
	}
	return s.baseURL + "/" + name, nil
}

// Delete removes the file behind ref. References outside this store and
// files already gone are ignored.
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	name, ok := strings.CutPrefix(ref, s.baseURL+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}
