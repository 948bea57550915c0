package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes files beneath a directory on disk.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates root if needed. baseURL is the public prefix files are served under.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the directory files are written to.
func (s *LocalStore) Root() string {
	return s.root
}

// Save writes file to root/key, creating intermediate directories.
func (s *LocalStore) Save(ctx context.Context, key string, file io.Reader, contentType string) (*FileInfo, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("create dir: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	n, err := io.Copy(f, file)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("write file: %w", err)
	}

	return &FileInfo{
		Key:      key,
		URL:      s.URL(key),
		FileName: baseName(key),
		FileSize: n,
		FileType: contentType,
	}, nil
}

// Delete removes root/key. A missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// URL returns the path the API serves key under.
func (s *LocalStore) URL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}
