// Package queue tracks the active playback sequence and decides which track
// plays next. The cursor is a track id, not an index: queue contents may be
// replaced underneath playback (filtered views, playlists, search results)
// and ids stay stable where slice positions do not.
package queue

import (
	"math/rand"
	"time"

	"github.com/pwells-dev/auris/internal/library"
)

// RestartThreshold is how far into a track "previous" restarts it instead of
// moving the cursor back.
const RestartThreshold = 3 * time.Second

// Decision is the outcome of a Previous call.
type Decision struct {
	ID      string
	Restart bool // same track, seek to 0, cursor untouched
}

// Manager holds the ordered track sequence and the cursor.
// It is only mutated from Bubbletea's single-threaded Update loop.
type Manager struct {
	tracks []library.Track
	cursor string
	rng    *rand.Rand
}

// NewManager creates an empty queue.
func NewManager() *Manager {
	return &Manager{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// SetQueue replaces the track sequence. If activeID is present in the new
// sequence the cursor moves there; otherwise a still-present cursor is kept
// and anything else clears it.
func (m *Manager) SetQueue(tracks []library.Track, activeID string) {
	m.tracks = make([]library.Track, len(tracks))
	copy(m.tracks, tracks)

	if m.indexOf(activeID) >= 0 {
		m.cursor = activeID
		return
	}
	if m.indexOf(m.cursor) < 0 {
		m.cursor = ""
	}
}

// Tracks returns a copy of the current sequence.
func (m *Manager) Tracks() []library.Track {
	out := make([]library.Track, len(m.tracks))
	copy(out, m.tracks)
	return out
}

// Track returns the queue member with the given id.
func (m *Manager) Track(id string) (library.Track, bool) {
	if i := m.indexOf(id); i >= 0 {
		return m.tracks[i], true
	}
	return library.Track{}, false
}

// Cursor returns the current track id, or "" if unset.
func (m *Manager) Cursor() string { return m.cursor }

// Len returns the number of queued tracks.
func (m *Manager) Len() int { return len(m.tracks) }

// Advance moves the cursor to id if it is a queue member.
func (m *Manager) Advance(id string) {
	if m.indexOf(id) >= 0 {
		m.cursor = id
	}
}

// Next returns the id of the track after the cursor, wrapping at the end.
// Under shuffle it picks uniformly among all members except the cursor; a
// single-member queue yields the cursor unchanged. An empty queue or unset
// cursor returns the cursor as-is, and a cursor missing from the queue is
// treated as the sole member.
func (m *Manager) Next(shuffle bool) string {
	return m.step(shuffle, +1)
}

// Previous decides what "previous" means. Past RestartThreshold it requests a
// restart of the current track without touching the cursor. Below it, it
// mirrors Next in the reverse direction.
func (m *Manager) Previous(shuffle bool, elapsed time.Duration) Decision {
	if elapsed > RestartThreshold && m.cursor != "" {
		return Decision{ID: m.cursor, Restart: true}
	}
	return Decision{ID: m.step(shuffle, -1)}
}

func (m *Manager) step(shuffle bool, dir int) string {
	if len(m.tracks) == 0 || m.cursor == "" {
		return m.cursor
	}
	cur := m.indexOf(m.cursor)
	if cur < 0 {
		// Queue changed underneath playback: the active track acts as the
		// sole member.
		return m.cursor
	}
	if len(m.tracks) == 1 {
		return m.cursor
	}

	if shuffle {
		// Uniform pick over everything but the current track.
		i := m.rng.Intn(len(m.tracks) - 1)
		if i >= cur {
			i++
		}
		return m.tracks[i].ID
	}

	n := len(m.tracks)
	return m.tracks[(cur+dir+n)%n].ID
}

func (m *Manager) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range m.tracks {
		if m.tracks[i].ID == id {
			return i
		}
	}
	return -1
}
