package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore keeps files on disk under root; they are served publicly at
// publicURL + "/storage/".
type LocalStore struct {
	root      string
	publicURL string
}

func NewLocalStore(root, publicURL string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: abs, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Root is the directory files are written to.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) resolve(rel string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+rel)))
	r, err := filepath.Rel(s.root, full)
	if err != nil || r == "." || strings.HasPrefix(r, "..") {
		return "", ErrOutsideRoot
	}
	return full, nil
}

func (s *LocalStore) Put(ctx context.Context, dir, ext string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rel := path.Join(dir, uuid.NewString()+ext)
	full, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	// write next to the target and rename so readers never see a partial file
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return rel, nil
}

func (s *LocalStore) Delete(ctx context.Context, rel string) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *LocalStore) URL(rel string) string {
	return s.publicURL + "/storage/" + strings.TrimLeft(rel, "/")
}
