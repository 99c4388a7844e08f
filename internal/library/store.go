package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ErrNotFound is returned when a track or playlist does not exist.
var ErrNotFound = errors.New("library: not found")

type catalog struct {
	Tracks    []Track             `json:"tracks"`
	Playlists map[string][]string `json:"playlists,omitempty"` // name -> track ids
}

// Store is the JSON-file track catalog. Reads hand out copies; the playback
// core never holds pointers into the store.
type Store struct {
	mu    sync.Mutex
	path  string
	cat   catalog
	blobs BlobStore
	log   *zap.Logger
}

// Open loads the catalog file, creating an empty one if it does not exist.
func Open(path string, blobs BlobStore, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		path:  path,
		blobs: blobs,
		log:   log,
		cat:   catalog{Playlists: map[string][]string{}},
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fresh library
	case err != nil:
		return nil, fmt.Errorf("reading catalog: %w", err)
	default:
		if err := json.Unmarshal(data, &s.cat); err != nil {
			return nil, fmt.Errorf("parsing catalog: %w", err)
		}
		if s.cat.Playlists == nil {
			s.cat.Playlists = map[string][]string{}
		}
	}
	return s, nil
}

// Tracks returns all tracks ordered by creation time, newest first.
func (s *Store) Tracks() []Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Track, len(s.cat.Tracks))
	copy(out, s.cat.Tracks)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Track returns the track with the given id.
func (s *Store) Track(id string) (Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		return s.cat.Tracks[i], true
	}
	return Track{}, false
}

// Add inserts a new track record and persists the catalog.
func (s *Store) Add(t Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(t.ID) >= 0 {
		return fmt.Errorf("library: duplicate track id %q", t.ID)
	}
	s.cat.Tracks = append(s.cat.Tracks, t)
	return s.save()
}

// Update replaces an existing track record.
func (s *Store) Update(t Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(t.ID)
	if i < 0 {
		return ErrNotFound
	}
	s.cat.Tracks[i] = t
	return s.save()
}

// Remove deletes a track record and strips it from every playlist.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	s.cat.Tracks = append(s.cat.Tracks[:i], s.cat.Tracks[i+1:]...)
	for name, ids := range s.cat.Playlists {
		s.cat.Playlists[name] = removeID(ids, id)
	}
	return s.save()
}

// SetFavorite flips the favorite flag. The in-memory state changes
// immediately; the file write happens in the background, and a failed write
// reloads the on-disk state so memory and disk converge again.
func (s *Store) SetFavorite(id string, fav bool) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.cat.Tracks[i].Favorite = fav
	s.mu.Unlock()

	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.save(); err != nil {
			s.log.Warn("favorite write failed, resyncing from disk",
				zap.String("track", id), zap.Error(err))
			s.reloadLocked()
		}
	}()
	return nil
}

// CreatePlaylist adds an empty playlist.
func (s *Store) CreatePlaylist(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cat.Playlists[name]; ok {
		return fmt.Errorf("library: playlist %q already exists", name)
	}
	s.cat.Playlists[name] = nil
	return s.save()
}

// RenamePlaylist renames a playlist, keeping its members.
func (s *Store) RenamePlaylist(oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.cat.Playlists[oldName]
	if !ok {
		return ErrNotFound
	}
	if _, exists := s.cat.Playlists[newName]; exists {
		return fmt.Errorf("library: playlist %q already exists", newName)
	}
	delete(s.cat.Playlists, oldName)
	s.cat.Playlists[newName] = ids
	return s.save()
}

// DeletePlaylist removes a playlist. Tracks themselves are untouched.
func (s *Store) DeletePlaylist(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cat.Playlists[name]; !ok {
		return ErrNotFound
	}
	delete(s.cat.Playlists, name)
	return s.save()
}

// AddToPlaylist appends a track id to a playlist, ignoring duplicates.
func (s *Store) AddToPlaylist(name, trackID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.cat.Playlists[name]
	if !ok {
		return ErrNotFound
	}
	if s.indexOf(trackID) < 0 {
		return ErrNotFound
	}
	for _, id := range ids {
		if id == trackID {
			return nil
		}
	}
	s.cat.Playlists[name] = append(ids, trackID)
	return s.save()
}

// RemoveFromPlaylist removes a track id from a playlist.
func (s *Store) RemoveFromPlaylist(name, trackID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.cat.Playlists[name]
	if !ok {
		return ErrNotFound
	}
	s.cat.Playlists[name] = removeID(ids, trackID)
	return s.save()
}

// Playlists returns the playlist names, sorted.
func (s *Store) Playlists() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.cat.Playlists))
	for name := range s.cat.Playlists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PlaylistTracks resolves a playlist to its tracks, in playlist order.
// Ids that no longer resolve are skipped.
func (s *Store) PlaylistTracks(name string) ([]Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.cat.Playlists[name]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]Track, 0, len(ids))
	for _, id := range ids {
		if i := s.indexOf(id); i >= 0 {
			out = append(out, s.cat.Tracks[i])
		}
	}
	return out, nil
}

// indexOf must be called with the lock held.
func (s *Store) indexOf(id string) int {
	for i := range s.cat.Tracks {
		if s.cat.Tracks[i].ID == id {
			return i
		}
	}
	return -1
}

// save must be called with the lock held. Writes atomically via rename.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.cat, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// reloadLocked discards in-memory state in favor of the file contents.
func (s *Store) reloadLocked() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var cat catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return
	}
	if cat.Playlists == nil {
		cat.Playlists = map[string][]string{}
	}
	s.cat = cat
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
