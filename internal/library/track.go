// Package library owns the track catalog: the on-disk record of every known
// track, its playlists and favorites, and the blob storage the audio bytes
// live in. The playback core only ever holds copies of these records.
package library

import (
	"strconv"
	"strings"
	"time"
)

// DefaultAccentColor is assigned to imported tracks that carry no color of
// their own. Deterministic on purpose: the same file imports the same way
// every time.
const DefaultAccentColor = "#3C78DC"

// Track is a single catalog entry. ID is an opaque stable identifier, unique
// within the catalog and within any queue built from it.
type Track struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist,omitempty"`
	Tempo       string    `json:"tempo,omitempty"` // BPM kept as text; see ParseTempo
	Favorite    bool      `json:"favorite,omitempty"`
	CoverPath   string    `json:"coverPath,omitempty"`
	AccentColor string    `json:"accentColor"`
	Source      string    `json:"source"`                // playable path or URL
	StoragePath string    `json:"storagePath,omitempty"` // blob key, empty for external files
	CreatedAt   time.Time `json:"createdAt"`
}

// TempoBPM returns the parsed tempo of the track.
func (t Track) TempoBPM() int {
	return ParseTempo(t.Tempo)
}

// ParseTempo parses a textual BPM value. Anything that does not parse to a
// non-negative integer counts as 0 so filtering and sorting never fail on
// malformed metadata.
func ParseTempo(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
}

// IsSupportedExt returns true if the extension is a playable audio format.
func IsSupportedExt(ext string) bool {
	return audioExts[strings.ToLower(ext)]
}

// SupportedExtsList returns a human-readable list of playable formats.
func SupportedExtsList() string {
	return ".mp3, .wav, .flac, .ogg"
}
