// Package storage abstracts where uploaded testimonials live.
// LocalStore is used in development; R2Store in production.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrInvalidPath is returned for keys that would escape the store root.
var ErrInvalidPath = errors.New("invalid storage path")

// FileInfo describes a stored object.
type FileInfo struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
}

// Store persists uploaded files.
type Store interface {
	Save(ctx context.Context, key string, file io.Reader, contentType string) (*FileInfo, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// CleanKey normalizes a storage key and rejects traversal outside the root.
func CleanKey(key string) (string, error) {
	key = strings.ReplaceAll(key, "\\", "/")
	cleaned := path.Clean("/" + key)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}
	return cleaned, nil
}

// countingReader tracks how many bytes have passed through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func baseName(key string) string {
	return key[strings.LastIndex(key, "/")+1:]
}
