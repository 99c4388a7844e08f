package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReadMetadata reads ID3v2 tags from an audio file, falling back to the
// filename when tags are missing or unreadable.
func ReadMetadata(path string) (title, artist string) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err == nil {
		defer tag.Close()
		title = strings.TrimSpace(tag.Title())
		artist = strings.TrimSpace(tag.Artist())
		if title != "" {
			return title, artist
		}
	}

	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)), artist
}

// ImportFile copies an audio file into blob storage and records it in the
// catalog. Tempo stays empty and the accent color is the deterministic
// default; neither is guessed.
func (s *Store) ImportFile(ctx context.Context, path string) (Track, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsSupportedExt(ext) {
		return Track{}, fmt.Errorf("unsupported format %s (supported: %s)", ext, SupportedExtsList())
	}

	f, err := os.Open(path)
	if err != nil {
		return Track{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Track{}, err
	}

	id := uuid.NewString()
	key := BlobKey(id, path)
	source, err := s.blobs.Put(ctx, key, f, info.Size())
	if err != nil {
		return Track{}, fmt.Errorf("storing audio: %w", err)
	}

	title, artist := ReadMetadata(path)
	t := Track{
		ID:          id,
		Title:       title,
		Artist:      artist,
		AccentColor: DefaultAccentColor,
		Source:      source,
		StoragePath: key,
		CreatedAt:   time.Now(),
	}
	if err := s.Add(t); err != nil {
		// Roll the blob back so a failed import leaves nothing behind.
		if rmErr := s.blobs.Remove(ctx, key); rmErr != nil {
			s.log.Warn("orphaned blob after failed import",
				zap.String("key", key), zap.Error(rmErr))
		}
		return Track{}, err
	}
	return t, nil
}

// DeleteTrack removes the catalog entry and, when the track owns a stored
// blob, deletes the blob by its storage path.
func (s *Store) DeleteTrack(ctx context.Context, id string) error {
	t, ok := s.Track(id)
	if !ok {
		return ErrNotFound
	}
	if err := s.Remove(id); err != nil {
		return err
	}
	if t.StoragePath != "" {
		if err := s.blobs.Remove(ctx, t.StoragePath); err != nil {
			s.log.Warn("deleting audio blob failed",
				zap.String("key", t.StoragePath), zap.Error(err))
		}
	}
	return nil
}

// ScanDir registers playable files under dir that the catalog does not know
// yet. Files are referenced in place, not copied into blob storage.
func (s *Store) ScanDir(dir string) (added int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	known := map[string]bool{}
	for _, t := range s.Tracks() {
		known[t.Source] = true
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !IsSupportedExt(ext) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if known[path] {
			continue
		}
		title, artist := ReadMetadata(path)
		t := Track{
			ID:          uuid.NewString(),
			Title:       title,
			Artist:      artist,
			AccentColor: DefaultAccentColor,
			Source:      path,
			CreatedAt:   time.Now(),
		}
		if err := s.Add(t); err != nil {
			s.log.Warn("registering scanned file failed",
				zap.String("path", path), zap.Error(err))
			continue
		}
		added++
	}
	return added, nil
}
