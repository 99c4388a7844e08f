// Package controller binds queue decisions to playback engine commands: track
// switches, end-of-track advancement, transport intents and best-effort stats
// reporting. It is the only owner of transport state.
package controller

import (
	"time"

	"go.uber.org/zap"

	"github.com/pwells-dev/auris/internal/library"
	"github.com/pwells-dev/auris/internal/player"
	"github.com/pwells-dev/auris/internal/queue"
	"github.com/pwells-dev/auris/internal/stats"
)

// Phase is the transport state.
type Phase int

const (
	Idle Phase = iota
	Loading
	Playing
	Paused
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

// Engine is the playback surface the controller drives. Satisfied by
// *player.Engine; tests substitute a fake.
type Engine interface {
	Load(source string) error
	Play() error
	Pause()
	Toggle() error
	SeekTo(time.Duration) error
	Position() time.Duration
	Duration() time.Duration
}

// Catalog resolves tracks outside the active queue. Satisfied by
// *library.Store.
type Catalog interface {
	Track(id string) (library.Track, bool)
	Tracks() []library.Track
}

// Controller is the transport state machine. Like the rest of the UI state it
// is only mutated from Bubbletea's single-threaded Update loop; engine events
// reach it as messages through HandleEvent.
type Controller struct {
	engine  Engine
	queue   *queue.Manager
	catalog Catalog
	stats   stats.Recorder
	log     *zap.Logger

	phase    Phase
	activeID string
	shuffle  bool
	position time.Duration
	duration time.Duration

	// failedSource is set when a load fails so TogglePlay can retry the
	// same source without re-selection.
	failedSource string
}

// New creates an idle controller.
func New(engine Engine, q *queue.Manager, catalog Catalog, rec stats.Recorder, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = stats.NopRecorder{}
	}
	return &Controller{
		engine:  engine,
		queue:   q,
		catalog: catalog,
		stats:   rec,
		log:     log,
	}
}

// SelectTrack activates a track. A non-nil tracks slice replaces the active
// queue first. The track is resolved from the effective queue, falling back
// to the catalog. Re-selecting the already-active track touches nothing on
// the engine; the returned navigated flag still lets the UI scroll to it.
func (c *Controller) SelectTrack(id string, tracks []library.Track) (navigated bool) {
	if tracks != nil {
		c.queue.SetQueue(tracks, id)
	}
	if id == "" {
		return false
	}
	if id == c.activeID {
		return true
	}

	t, ok := c.queue.Track(id)
	if !ok && c.catalog != nil {
		t, ok = c.catalog.Track(id)
	}
	if !ok {
		c.log.Warn("select of unknown track", zap.String("track", id))
		return false
	}

	c.activeID = id
	c.queue.Advance(id)
	c.position = 0
	c.duration = 0
	c.failedSource = ""

	if err := c.engine.Load(t.Source); err != nil {
		// Playback failure is non-fatal: the track stays selected so the
		// user can retry or move on.
		c.log.Warn("track load failed",
			zap.String("track", id), zap.String("source", t.Source), zap.Error(err))
		c.phase = Paused
		c.failedSource = t.Source
		return true
	}
	c.phase = Loading

	c.report(func() error { return c.stats.AddPlay(id) }, "play count")
	return true
}

// Next flushes accumulated playtime and advances to the queue's next pick.
func (c *Controller) Next() {
	c.flushPlaytime()
	if id := c.queue.Next(c.shuffle); id != "" {
		c.SelectTrack(id, nil)
	}
}

// Previous either restarts the current track (more than 3 seconds in) or
// steps the queue backwards. The restart path reports no stats and moves no
// cursor.
func (c *Controller) Previous() {
	d := c.queue.Previous(c.shuffle, c.position)
	if d.Restart {
		if err := c.engine.SeekTo(0); err != nil {
			c.log.Warn("restart seek failed", zap.Error(err))
		}
		c.position = 0
		return
	}
	c.flushPlaytime()
	if d.ID != "" {
		c.SelectTrack(d.ID, nil)
	}
}

// TogglePlay pauses or resumes. After a failed load it retries the same
// source instead, without requiring re-selection.
func (c *Controller) TogglePlay() {
	if c.activeID == "" {
		return
	}
	if c.failedSource != "" {
		src := c.failedSource
		if err := c.engine.Load(src); err != nil {
			c.log.Warn("retry load failed", zap.String("source", src), zap.Error(err))
			c.phase = Paused
			return
		}
		c.failedSource = ""
		c.phase = Loading
		return
	}
	if err := c.engine.Toggle(); err != nil {
		c.log.Warn("toggle failed", zap.Error(err))
	}
}

// ToggleShuffle flips traversal order for next/previous. The queue itself is
// not reordered.
func (c *Controller) ToggleShuffle() {
	c.shuffle = !c.shuffle
}

// SeekBy moves the position relative to the current one, clamped by the
// engine. The reported position updates optimistically.
func (c *Controller) SeekBy(delta time.Duration) {
	target := c.position + delta
	if target < 0 {
		target = 0
	}
	if c.duration > 0 && target > c.duration {
		target = c.duration
	}
	if err := c.engine.SeekTo(target); err != nil {
		c.log.Warn("seek failed", zap.Error(err))
		return
	}
	c.position = target
}

// HandleEvent folds an engine event into transport state. Ended triggers
// automatic advancement.
func (c *Controller) HandleEvent(ev player.Event) {
	switch ev := ev.(type) {
	case player.TimeEvent:
		c.position = ev.Position
	case player.DurationEvent:
		c.duration = ev.Duration
	case player.StateEvent:
		if c.activeID == "" {
			return
		}
		if ev.Playing {
			c.phase = Playing
		} else {
			c.phase = Paused
		}
	case player.EndedEvent:
		c.position = c.duration
		prev := c.activeID
		c.Next()
		// A single-track queue advances onto itself; the engine has
		// stopped, so the phase must not stay Playing.
		if prev != "" && c.activeID == prev {
			c.phase = Paused
		}
	}
}

// Phase returns the transport phase.
func (c *Controller) Phase() Phase { return c.phase }

// ActiveID returns the id of the active track, "" when idle.
func (c *Controller) ActiveID() string { return c.activeID }

// ActiveTrack resolves the active track's record.
func (c *Controller) ActiveTrack() (library.Track, bool) {
	if c.activeID == "" {
		return library.Track{}, false
	}
	if t, ok := c.queue.Track(c.activeID); ok {
		return t, true
	}
	if c.catalog != nil {
		return c.catalog.Track(c.activeID)
	}
	return library.Track{}, false
}

// Shuffle reports the shuffle flag.
func (c *Controller) Shuffle() bool { return c.shuffle }

// Position returns the last known playback position.
func (c *Controller) Position() time.Duration { return c.position }

// Duration returns the known duration, 0 until metadata loads.
func (c *Controller) Duration() time.Duration { return c.duration }

// Queue exposes the active queue manager.
func (c *Controller) Queue() *queue.Manager { return c.queue }

// ProgressPercent is 0 while duration is unknown and exactly 100 when the
// position reaches the duration.
func (c *Controller) ProgressPercent() float64 {
	if c.duration <= 0 {
		return 0
	}
	pct := float64(c.position) / float64(c.duration) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// flushPlaytime reports elapsed listening time, best-effort. Skipped when the
// duration never became known or nothing has played.
func (c *Controller) flushPlaytime() {
	if c.activeID == "" || c.duration <= 0 || c.position <= 0 {
		return
	}
	id, secs := c.activeID, int(c.position.Seconds())
	c.report(func() error { return c.stats.AddPlaytime(id, secs) }, "playtime")
	c.position = 0
}

// report runs a stats call in the background; failures are logged, never
// surfaced.
func (c *Controller) report(fn func() error, what string) {
	log := c.log
	go func() {
		if err := fn(); err != nil {
			log.Warn("stats report failed", zap.String("kind", what), zap.Error(err))
		}
	}()
}
