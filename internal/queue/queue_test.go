package queue

import (
	"testing"
	"time"

	"github.com/pwells-dev/auris/internal/library"
)

func tracks(ids ...string) []library.Track {
	out := make([]library.Track, len(ids))
	for i, id := range ids {
		out[i] = library.Track{ID: id, Title: id}
	}
	return out
}

func TestNextAdvancesAndWraps(t *testing.T) {
	m := NewManager()
	m.SetQueue(tracks("a", "b", "c"), "a")

	for _, want := range []string{"b", "c", "a"} {
		got := m.Next(false)
		if got != want {
			t.Fatalf("expected next %q, got %q", want, got)
		}
		m.Advance(got)
	}
}

func TestNextThenPreviousRoundTrips(t *testing.T) {
	m := NewManager()
	m.SetQueue(tracks("a", "b", "c", "d"), "b")

	next := m.Next(false)
	m.Advance(next)
	d := m.Previous(false, time.Second)
	if d.Restart {
		t.Fatal("expected a cursor move, not a restart")
	}
	if d.ID != "b" {
		t.Fatalf("expected round trip back to b, got %q", d.ID)
	}
}

func TestPreviousWrapsToEnd(t *testing.T) {
	m := NewManager()
	m.SetQueue(tracks("a", "b", "c"), "a")

	d := m.Previous(false, 0)
	if d.ID != "c" {
		t.Fatalf("expected wrap to c, got %q", d.ID)
	}
}

func TestPreviousPastThresholdRequestsRestart(t *testing.T) {
	m := NewManager()
	m.SetQueue(tracks("a", "b", "c"), "b")

	d := m.Previous(false, 4*time.Second)
	if !d.Restart {
		t.Fatal("expected restart decision")
	}
	if d.ID != "b" {
		t.Fatalf("expected restart of b, got %q", d.ID)
	}
	if m.Cursor() != "b" {
		t.Fatalf("expected cursor untouched, got %q", m.Cursor())
	}
}

func TestPreviousAtThresholdMovesCursor(t *testing.T) {
	m := NewManager()
	m.SetQueue(tracks("a", "b"), "b")

	d := m.Previous(false, 3*time.Second)
	if d.Restart {
		t.Fatal("expected cursor move at exactly 3s")
	}
	if d.ID != "a" {
		t.Fatalf("expected a, got %q", d.ID)
	}
}

func TestShuffleNeverRepeatsCurrent(t *testing.T) {
	m := NewManager()
	m.SetQueue(tracks("a", "b", "c", "d", "e"), "c")

	for range 200 {
		if got := m.Next(true); got == "c" {
			t.Fatal("shuffle next returned the current track")
		}
		if d := m.Previous(true, 0); d.ID == "c" {
			t.Fatal("shuffle previous returned the current track")
		}
	}
}

func TestShuffleSingleMemberYieldsItself(t *testing.T) {
	m := NewManager()
	m.SetQueue(tracks("a"), "a")

	if got := m.Next(true); got != "a" {
		t.Fatalf("expected a, got %q", got)
	}
	if d := m.Previous(true, 0); d.ID != "a" {
		t.Fatalf("expected a, got %q", d.ID)
	}
}

func TestEmptyQueueFailsSilently(t *testing.T) {
	m := NewManager()

	if got := m.Next(false); got != "" {
		t.Fatalf("expected empty cursor, got %q", got)
	}
	if d := m.Previous(false, 0); d.ID != "" {
		t.Fatalf("expected empty cursor, got %q", d.ID)
	}
}

func TestCursorMissingFromQueueActsAsSoleMember(t *testing.T) {
	m := NewManager()
	m.SetQueue(tracks("a", "b"), "a")
	// The queue changes underneath playback and no longer contains the
	// active track.
	m.SetQueue(tracks("x", "y"), "")

	if got := m.Cursor(); got != "" {
		t.Fatalf("expected cleared cursor, got %q", got)
	}
}

func TestStaleCursorReturnsItself(t *testing.T) {
	m := &Manager{}
	m.tracks = tracks("x", "y")
	m.cursor = "gone"

	if got := m.Next(false); got != "gone" {
		t.Fatalf("expected active track treated as sole member, got %q", got)
	}
}

func TestSetQueueKeepsPresentCursor(t *testing.T) {
	m := NewManager()
	m.SetQueue(tracks("a", "b", "c"), "b")
	m.SetQueue(tracks("b", "c"), "")

	if got := m.Cursor(); got != "b" {
		t.Fatalf("expected cursor kept at b, got %q", got)
	}
}

func TestAdvanceIgnoresNonMembers(t *testing.T) {
	m := NewManager()
	m.SetQueue(tracks("a", "b"), "a")

	m.Advance("zzz")
	if got := m.Cursor(); got != "a" {
		t.Fatalf("expected cursor unchanged, got %q", got)
	}
}
