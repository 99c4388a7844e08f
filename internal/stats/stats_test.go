package stats

import (
	"path/filepath"
	"testing"
)

func TestFileRecorderAccumulates(t *testing.T) {
	r := NewFileRecorder(filepath.Join(t.TempDir(), "stats.json"))

	for range 3 {
		if err := r.AddPlay("a"); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.AddPlaytime("a", 30); err != nil {
		t.Fatal(err)
	}
	if err := r.AddPlaytime("a", 12); err != nil {
		t.Fatal(err)
	}

	plays, err := r.Plays("a")
	if err != nil {
		t.Fatal(err)
	}
	if plays != 3 {
		t.Fatalf("plays = %d, want 3", plays)
	}
	secs, err := r.Playtime("a")
	if err != nil {
		t.Fatal(err)
	}
	if secs != 42 {
		t.Fatalf("playtime = %d, want 42", secs)
	}
}

func TestFileRecorderSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")

	if err := NewFileRecorder(path).AddPlay("a"); err != nil {
		t.Fatal(err)
	}
	plays, err := NewFileRecorder(path).Plays("a")
	if err != nil {
		t.Fatal(err)
	}
	if plays != 1 {
		t.Fatalf("plays = %d, want 1", plays)
	}
}

func TestAddPlaytimeIgnoresNonPositive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	r := NewFileRecorder(path)

	if err := r.AddPlaytime("a", 0); err != nil {
		t.Fatal(err)
	}
	if err := r.AddPlaytime("a", -5); err != nil {
		t.Fatal(err)
	}
	secs, err := r.Playtime("a")
	if err != nil {
		t.Fatal(err)
	}
	if secs != 0 {
		t.Fatalf("playtime = %d, want 0", secs)
	}
}

func TestUnknownTrackReadsZero(t *testing.T) {
	r := NewFileRecorder(filepath.Join(t.TempDir(), "stats.json"))
	plays, err := r.Plays("nobody")
	if err != nil {
		t.Fatal(err)
	}
	if plays != 0 {
		t.Fatalf("plays = %d, want 0", plays)
	}
}
