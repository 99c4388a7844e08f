package library

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// BlobStore persists raw audio bytes. Put returns a durable playable
// reference for the stored object; Remove deletes by the key Put was given.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) (string, error)
	Remove(ctx context.Context, key string) error
}

// DirBlobStore keeps audio blobs as plain files under a base directory.
// This is the default when no remote storage is configured.
type DirBlobStore struct {
	base string
}

// NewDirBlobStore creates the base directory if needed.
func NewDirBlobStore(base string) (*DirBlobStore, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob dir: %w", err)
	}
	return &DirBlobStore{base: base}, nil
}

func (s *DirBlobStore) Put(_ context.Context, key string, r io.Reader, _ int64) (string, error) {
	dest := filepath.Join(s.base, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dest)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return dest, nil
}

func (s *DirBlobStore) Remove(_ context.Context, key string) error {
	dest := filepath.Join(s.base, filepath.FromSlash(key))
	err := os.Remove(dest)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

var invalidKeyChars = regexp.MustCompile(`[\\:*?"<>|]`)

// BlobKey builds a stable storage key for a track's audio bytes.
func BlobKey(trackID, filename string) string {
	name := invalidKeyChars.ReplaceAllString(filepath.Base(filename), "")
	name = strings.TrimSpace(name)
	if name == "" {
		name = "audio"
	}
	return trackID + "/" + name
}
