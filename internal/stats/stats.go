// Package stats records play counts and cumulative playtime. Reporting is
// best-effort: the controller fires these calls in the background and only
// logs failures.
package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Recorder receives playback statistics.
type Recorder interface {
	AddPlay(trackID string) error
	AddPlaytime(trackID string, seconds int) error
}

// NopRecorder discards all statistics.
type NopRecorder struct{}

func (NopRecorder) AddPlay(string) error         { return nil }
func (NopRecorder) AddPlaytime(string, int) error { return nil }

type counters struct {
	Plays           map[string]int `json:"plays"`
	PlaytimeSeconds map[string]int `json:"playtimeSeconds"`
}

// FileRecorder keeps counters in a JSON file. Every update is a
// read-then-write of the whole file under a lock.
type FileRecorder struct {
	mu   sync.Mutex
	path string
}

// NewFileRecorder creates a recorder writing to path.
func NewFileRecorder(path string) *FileRecorder {
	return &FileRecorder{path: path}
}

// AddPlay increments the play counter for a track.
func (r *FileRecorder) AddPlay(trackID string) error {
	return r.update(func(c *counters) {
		c.Plays[trackID]++
	})
}

// AddPlaytime adds listened seconds for a track.
func (r *FileRecorder) AddPlaytime(trackID string, seconds int) error {
	if seconds <= 0 {
		return nil
	}
	return r.update(func(c *counters) {
		c.PlaytimeSeconds[trackID] += seconds
	})
}

// Plays returns the recorded play count for a track.
func (r *FileRecorder) Plays(trackID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load()
	if err != nil {
		return 0, err
	}
	return c.Plays[trackID], nil
}

// Playtime returns the recorded seconds for a track.
func (r *FileRecorder) Playtime(trackID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load()
	if err != nil {
		return 0, err
	}
	return c.PlaytimeSeconds[trackID], nil
}

func (r *FileRecorder) update(apply func(*counters)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load()
	if err != nil {
		return err
	}
	apply(c)

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

func (r *FileRecorder) load() (*counters, error) {
	c := &counters{
		Plays:           map[string]int{},
		PlaytimeSeconds: map[string]int{},
	}
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, err
	}
	if c.Plays == nil {
		c.Plays = map[string]int{}
	}
	if c.PlaytimeSeconds == nil {
		c.PlaytimeSeconds = map[string]int{}
	}
	return c, nil
}
