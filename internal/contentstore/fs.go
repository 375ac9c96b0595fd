package contentstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FS stores content as files in one directory, served under urlPrefix.
type FS struct {
	dir       string
	urlPrefix string
}

func NewFS(dir, urlPrefix string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %v", err)
	}

	return &FS{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

func (s *FS) Dir() string {
	return s.dir
}

func (s *FS) URLPrefix() string {
	return s.urlPrefix
}

func (s *FS) Save(_ context.Context, name, _ string, data []byte) (string, error) {
	if !validName(name) {
		return "", ErrInvalidReference
	}

	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %v", name, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %v", name, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close %s: %v", name, err)
	}

	return s.urlPrefix + "/" + name, nil
}

func (s *FS) Get(_ context.Context, ref string) ([]byte, error) {
	name, err := nameFromRef(s.urlPrefix, ref)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %v", name, err)
	}

	return data, nil
}

func (s *FS) Delete(_ context.Context, ref string) error {
	name, err := nameFromRef(s.urlPrefix, ref)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("remove %s: %v", name, err)
	}

	return nil
}
