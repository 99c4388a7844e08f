package controller

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pwells-dev/auris/internal/library"
	"github.com/pwells-dev/auris/internal/player"
	"github.com/pwells-dev/auris/internal/queue"
)

type fakeEngine struct {
	loads    []string
	loadErr  error
	playing  bool
	position time.Duration
	duration time.Duration
	seeks    []time.Duration
}

func (f *fakeEngine) Load(source string) error {
	f.loads = append(f.loads, source)
	if f.loadErr != nil {
		return f.loadErr
	}
	f.playing = true
	return nil
}

func (f *fakeEngine) Play() error { f.playing = true; return nil }
func (f *fakeEngine) Pause()      { f.playing = false }
func (f *fakeEngine) Toggle() error {
	f.playing = !f.playing
	return nil
}
func (f *fakeEngine) SeekTo(d time.Duration) error {
	f.seeks = append(f.seeks, d)
	f.position = d
	return nil
}
func (f *fakeEngine) Position() time.Duration { return f.position }
func (f *fakeEngine) Duration() time.Duration { return f.duration }

type spyRecorder struct {
	mu        sync.Mutex
	plays     []string
	playtimes map[string]int
}

func newSpyRecorder() *spyRecorder {
	return &spyRecorder{playtimes: map[string]int{}}
}

func (r *spyRecorder) AddPlay(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plays = append(r.plays, id)
	return nil
}

func (r *spyRecorder) AddPlaytime(id string, secs int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playtimes[id] += secs
	return nil
}

func (r *spyRecorder) playCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plays)
}

func (r *spyRecorder) playtime(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playtimes[id]
}

// waitFor polls a condition; stats reports run in the background.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func libTracks(ids ...string) []library.Track {
	out := make([]library.Track, len(ids))
	for i, id := range ids {
		out[i] = library.Track{ID: id, Title: id, Source: "/music/" + id + ".mp3"}
	}
	return out
}

func newTestController(eng Engine, rec *spyRecorder) *Controller {
	var r *spyRecorder
	if rec != nil {
		r = rec
	} else {
		r = newSpyRecorder()
	}
	return New(eng, queue.NewManager(), nil, r, nil)
}

func TestSelectTrackLoadsAndReportsPlay(t *testing.T) {
	eng := &fakeEngine{}
	rec := newSpyRecorder()
	c := newTestController(eng, rec)

	if !c.SelectTrack("a", libTracks("a", "b")) {
		t.Fatal("expected navigation")
	}
	if len(eng.loads) != 1 || eng.loads[0] != "/music/a.mp3" {
		t.Fatalf("expected one load of a, got %v", eng.loads)
	}
	if c.Phase() != Loading {
		t.Fatalf("expected Loading, got %v", c.Phase())
	}
	waitFor(t, func() bool { return rec.playCount() == 1 })
}

func TestSelectSameTrackTwiceLoadsOnce(t *testing.T) {
	eng := &fakeEngine{}
	c := newTestController(eng, nil)

	c.SelectTrack("a", libTracks("a", "b"))
	if !c.SelectTrack("a", nil) {
		t.Fatal("expected navigation intent on re-select")
	}
	if len(eng.loads) != 1 {
		t.Fatalf("expected exactly one load, got %d", len(eng.loads))
	}
}

func TestLoadFailureLeavesTrackActiveAndPaused(t *testing.T) {
	eng := &fakeEngine{loadErr: errors.New("connection reset")}
	c := newTestController(eng, nil)

	c.SelectTrack("a", libTracks("a"))
	if c.Phase() != Paused {
		t.Fatalf("expected Paused after failed load, got %v", c.Phase())
	}
	if c.ActiveID() != "a" {
		t.Fatalf("expected failing track to stay active, got %q", c.ActiveID())
	}

	// A repeated toggle retries the same source without re-selection.
	eng.loadErr = nil
	c.TogglePlay()
	if len(eng.loads) != 2 || eng.loads[1] != "/music/a.mp3" {
		t.Fatalf("expected retry of the same source, got %v", eng.loads)
	}
	if c.Phase() != Loading {
		t.Fatalf("expected Loading after retry, got %v", c.Phase())
	}
}

func TestTogglePlayIsNoopWhenIdle(t *testing.T) {
	eng := &fakeEngine{}
	c := newTestController(eng, nil)

	c.TogglePlay()
	if eng.playing {
		t.Fatal("expected idle toggle to do nothing")
	}
}

func TestEndedAdvancesToNextTrack(t *testing.T) {
	eng := &fakeEngine{}
	c := newTestController(eng, nil)
	c.SelectTrack("a", libTracks("a", "b", "c"))

	c.HandleEvent(player.DurationEvent{Duration: 90 * time.Second})
	c.HandleEvent(player.TimeEvent{Position: 90 * time.Second})
	c.HandleEvent(player.EndedEvent{})

	if c.ActiveID() != "b" {
		t.Fatalf("expected automatic advance to b, got %q", c.ActiveID())
	}
	if len(eng.loads) != 2 {
		t.Fatalf("expected second load, got %v", eng.loads)
	}
}

func TestEndedOnSingleTrackQueueSettlesPaused(t *testing.T) {
	eng := &fakeEngine{}
	c := newTestController(eng, nil)
	c.SelectTrack("a", libTracks("a"))

	c.HandleEvent(player.DurationEvent{Duration: time.Minute})
	c.HandleEvent(player.StateEvent{Playing: true})
	c.HandleEvent(player.TimeEvent{Position: time.Minute})
	c.HandleEvent(player.EndedEvent{})

	if len(eng.loads) != 1 {
		t.Fatalf("expected no reload of the sole track, got %v", eng.loads)
	}
	if c.Phase() != Paused {
		t.Fatalf("expected Paused after end with nowhere to advance, got %v", c.Phase())
	}
}

func TestNextFlushesPlaytime(t *testing.T) {
	eng := &fakeEngine{}
	rec := newSpyRecorder()
	c := newTestController(eng, rec)
	c.SelectTrack("a", libTracks("a", "b"))

	c.HandleEvent(player.DurationEvent{Duration: time.Minute})
	c.HandleEvent(player.TimeEvent{Position: 42 * time.Second})
	c.Next()

	waitFor(t, func() bool { return rec.playtime("a") == 42 })
	if c.ActiveID() != "b" {
		t.Fatalf("expected b active, got %q", c.ActiveID())
	}
}

func TestPreviousRestartOnlySeeksToZero(t *testing.T) {
	eng := &fakeEngine{}
	rec := newSpyRecorder()
	c := newTestController(eng, rec)
	c.SelectTrack("b", libTracks("a", "b"))

	c.HandleEvent(player.DurationEvent{Duration: time.Minute})
	c.HandleEvent(player.TimeEvent{Position: 10 * time.Second})
	c.Previous()

	if c.ActiveID() != "b" {
		t.Fatalf("expected cursor untouched, got %q", c.ActiveID())
	}
	if len(eng.seeks) != 1 || eng.seeks[0] != 0 {
		t.Fatalf("expected a single seek to 0, got %v", eng.seeks)
	}
	if got := c.Position(); got != 0 {
		t.Fatalf("expected position reset, got %v", got)
	}
	// Restart bypasses stats reporting entirely.
	time.Sleep(20 * time.Millisecond)
	if rec.playtime("b") != 0 {
		t.Fatalf("expected no playtime report, got %d", rec.playtime("b"))
	}
}

func TestPreviousEarlyMovesCursorBack(t *testing.T) {
	eng := &fakeEngine{}
	c := newTestController(eng, nil)
	c.SelectTrack("b", libTracks("a", "b"))

	c.HandleEvent(player.TimeEvent{Position: 2 * time.Second})
	c.Previous()

	if c.ActiveID() != "a" {
		t.Fatalf("expected a active, got %q", c.ActiveID())
	}
}

func TestToggleShuffleFlipsFlagOnly(t *testing.T) {
	eng := &fakeEngine{}
	c := newTestController(eng, nil)
	c.SelectTrack("a", libTracks("a", "b", "c"))

	before := c.Queue().Tracks()
	c.ToggleShuffle()
	if !c.Shuffle() {
		t.Fatal("expected shuffle on")
	}
	after := c.Queue().Tracks()
	for i := range before {
		if before[i].ID != after[i].ID {
			t.Fatal("expected queue order untouched by shuffle toggle")
		}
	}
}

func TestProgressPercent(t *testing.T) {
	eng := &fakeEngine{}
	c := newTestController(eng, nil)

	if got := c.ProgressPercent(); got != 0 {
		t.Fatalf("expected 0%% with unknown duration, got %v", got)
	}

	c.HandleEvent(player.DurationEvent{Duration: 80 * time.Second})
	c.HandleEvent(player.TimeEvent{Position: 20 * time.Second})
	if got := c.ProgressPercent(); got != 25 {
		t.Fatalf("expected 25%%, got %v", got)
	}

	c.HandleEvent(player.TimeEvent{Position: 80 * time.Second})
	if got := c.ProgressPercent(); got != 100 {
		t.Fatalf("expected exactly 100%%, got %v", got)
	}
}

func TestStateEventsDrivePhase(t *testing.T) {
	eng := &fakeEngine{}
	c := newTestController(eng, nil)
	c.SelectTrack("a", libTracks("a"))

	c.HandleEvent(player.StateEvent{Playing: true})
	if c.Phase() != Playing {
		t.Fatalf("expected Playing, got %v", c.Phase())
	}
	c.HandleEvent(player.StateEvent{Playing: false})
	if c.Phase() != Paused {
		t.Fatalf("expected Paused, got %v", c.Phase())
	}
}

func TestStateEventIgnoredWhenIdle(t *testing.T) {
	eng := &fakeEngine{}
	c := newTestController(eng, nil)

	c.HandleEvent(player.StateEvent{Playing: true})
	if c.Phase() != Idle {
		t.Fatalf("expected Idle, got %v", c.Phase())
	}
}
