// Package player owns the single OS audio output and drives playback of one
// track at a time. All mutation is fire-and-forget from the caller's point of
// view; lifecycle notifications arrive on the engine's event channel.
package player

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"
)

const (
	outputSampleRate = 44100
	outputChannels   = 2
	outputDepth      = 2 // 16-bit samples
)

// ErrNoSource is returned by transport calls when nothing is loaded.
var ErrNoSource = errors.New("player: no source loaded")

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
)

// audioContext lazily builds the process-wide output context, exactly once.
func audioContext() (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   outputSampleRate,
			ChannelCount: outputChannels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return globalOtoCtx, otoInitErr
}

// SampleTap receives a copy of every PCM chunk the output consumes.
// Implementations must not block.
type SampleTap interface {
	Write(p []byte)
}

// countingReader tracks how many PCM bytes the output has pulled and mirrors
// them into the tap.
type countingReader struct {
	reader io.ReadSeeker
	tap    SampleTap
	pos    int64
	mu     sync.Mutex
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	if n > 0 && cr.tap != nil {
		cr.tap.Write(p[:n])
	}
	cr.mu.Lock()
	cr.pos += int64(n)
	cr.mu.Unlock()
	return n, err
}

func (cr *countingReader) Pos() int64 {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.pos
}

func (cr *countingReader) SetPos(pos int64) {
	cr.mu.Lock()
	cr.pos = pos
	cr.mu.Unlock()
}

// source is one loaded track: decoder, position counter and output player.
type source struct {
	file        *os.File
	temp        bool // file is a fetched copy, removed on teardown
	dec         decoder
	counter     *countingReader
	oto         *oto.Player
	bytesPerSec int
	duration    time.Duration
	stopMon     chan struct{}
}

// Engine is the playback engine. It owns at most one active source and the
// process-wide audio output. Transport methods are safe for concurrent use,
// though in practice the UI loop is the only caller.
type Engine struct {
	mu      sync.Mutex
	cur     *source
	paused  bool
	volume  float64
	tap     SampleTap
	log     *zap.Logger
	events  chan Event
	loadSeq atomic.Uint64
	closed  bool
}

// NewEngine creates an engine. The audio output itself is not touched until
// the first Load.
func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		volume: 0.8,
		log:    log,
		events: make(chan Event, 32),
	}
}

// Events returns the lifecycle notification channel.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// SetTap installs the PCM mirror used by the spectrum analyzer. Takes effect
// on the next Load.
func (e *Engine) SetTap(t SampleTap) {
	e.mu.Lock()
	e.tap = t
	e.mu.Unlock()
}

// Load binds a new audio source and starts playing it. The previous source is
// torn down without leaking its output connection. A Load superseded by a
// newer one before it finishes opening discards its work: a slow open must
// not resurrect playback of an abandoned track.
func (e *Engine) Load(path string) error {
	seq := e.loadSeq.Add(1)

	ctx, err := audioContext()
	if err != nil {
		return err
	}
	// The platform may have suspended the output; bring it back before
	// every play attempt.
	if err := ctx.Resume(); err != nil {
		e.log.Debug("audio context resume", zap.Error(err))
	}

	f, temp, err := openSource(path)
	if err != nil {
		return err
	}
	discard := func() {
		f.Close()
		if temp {
			os.Remove(f.Name())
		}
	}
	dec, err := openDecoder(f)
	if err != nil {
		discard()
		return err
	}

	e.mu.Lock()
	if e.closed || seq != e.loadSeq.Load() {
		e.mu.Unlock()
		discard()
		return nil
	}
	e.teardownLocked()

	bytesPerSec := dec.SampleRate() * dec.Channels() * outputDepth
	var dur time.Duration
	if total := dec.Length(); total > 0 && bytesPerSec > 0 {
		dur = time.Duration(float64(total) / float64(bytesPerSec) * float64(time.Second))
	}

	counter := &countingReader{reader: dec, tap: e.tap}
	src := &source{
		file:        f,
		temp:        temp,
		dec:         dec,
		counter:     counter,
		bytesPerSec: bytesPerSec,
		duration:    dur,
		stopMon:     make(chan struct{}),
	}
	src.oto = ctx.NewPlayer(counter)
	src.oto.SetVolume(e.volume)
	src.oto.Play()

	e.cur = src
	e.paused = false
	go e.monitor(src)
	e.mu.Unlock()

	e.emit(DurationEvent{Duration: dur})
	e.emit(StateEvent{Playing: true})
	return nil
}

// monitor polls the source until playback completes or the source is torn
// down, emitting time events along the way.
func (e *Engine) monitor(src *source) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	total := src.dec.Length()
	for {
		select {
		case <-src.stopMon:
			return
		case <-ticker.C:
		}

		e.mu.Lock()
		current := e.cur == src
		paused := e.paused
		e.mu.Unlock()
		if !current {
			return
		}

		pos := src.counter.Pos()
		e.emit(TimeEvent{Position: bytesToDuration(pos, src.bytesPerSec)})

		if !paused && total > 0 && pos >= total {
			// Playback stopped on its own; report the transition before
			// the end notification so state never lags behind.
			e.emit(StateEvent{Playing: false})
			e.emit(EndedEvent{})
			return
		}
	}
}

// Play resumes playback of the loaded source.
func (e *Engine) Play() error {
	if ctx, err := audioContext(); err == nil {
		_ = ctx.Resume()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		return ErrNoSource
	}
	if !e.paused {
		return nil
	}
	e.cur.oto.Play()
	e.paused = false
	e.emit(StateEvent{Playing: true})
	return nil
}

// Pause halts playback, keeping the source bound.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil || e.paused {
		return
	}
	e.cur.oto.Pause()
	e.paused = true
	e.emit(StateEvent{Playing: false})
}

// Toggle flips between playing and paused.
func (e *Engine) Toggle() error {
	e.mu.Lock()
	paused := e.paused
	e.mu.Unlock()
	if paused {
		return e.Play()
	}
	e.Pause()
	return nil
}

// Playing reports whether audio is currently advancing.
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cur != nil && !e.paused
}

// Position returns the current playback position.
func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		return 0
	}
	return bytesToDuration(e.cur.counter.Pos(), e.cur.bytesPerSec)
}

// Duration returns the duration of the loaded track, 0 if unknown.
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		return 0
	}
	return e.cur.duration
}

// SeekTo jumps to an absolute position, clamped to the track bounds and
// aligned to a PCM frame boundary. The reported position updates immediately,
// before the output has flushed.
func (e *Engine) SeekTo(target time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		return ErrNoSource
	}
	src := e.cur

	align := int64(src.dec.Channels() * outputDepth)
	newPos := clampSeekByteOffset(target, src.bytesPerSec, src.dec.Length(), align)

	if _, err := src.dec.Seek(newPos, io.SeekStart); err != nil {
		return err
	}
	src.counter.SetPos(newPos)

	// Rebuild the output player to drop its buffered audio.
	wasPaused := e.paused
	src.oto.Pause()
	ctx, err := audioContext()
	if err != nil {
		return err
	}
	src.oto = ctx.NewPlayer(src.counter)
	src.oto.SetVolume(e.volume)
	if !wasPaused {
		src.oto.Play()
	}

	e.emit(TimeEvent{Position: bytesToDuration(newPos, src.bytesPerSec)})
	return nil
}

// SeekBy seeks relative to the current position.
func (e *Engine) SeekBy(delta time.Duration) error {
	return e.SeekTo(e.Position() + delta)
}

// Volume returns the output volume in [0, 1].
func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// SetVolume sets the output volume, clamped to [0, 1].
func (e *Engine) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	e.volume = v
	if e.cur != nil {
		e.cur.oto.SetVolume(v)
	}
}

// Close tears down the active source. The engine cannot be reused afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.teardownLocked()
}

// teardownLocked releases the active source. Callers hold e.mu.
func (e *Engine) teardownLocked() {
	if e.cur == nil {
		return
	}
	close(e.cur.stopMon)
	e.cur.oto.Pause()
	e.cur.file.Close()
	if e.cur.temp {
		os.Remove(e.cur.file.Name())
	}
	e.cur = nil
}

// openSource opens a local file, or fetches an http(s) source into a
// temporary file. The decoder picks its format by file extension, so the
// temp file keeps the extension of the URL path with the query string
// dropped (presigned URLs carry signatures there).
func openSource(source string) (f *os.File, temp bool, err error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		f, err = os.Open(source)
		return f, false, err
	}

	u, err := url.Parse(source)
	if err != nil {
		return nil, false, fmt.Errorf("parsing source url: %w", err)
	}
	resp, err := http.Get(source)
	if err != nil {
		return nil, false, fmt.Errorf("fetching %s: %w", u.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("fetching %s: %s", u.Path, resp.Status)
	}

	tmp, err := os.CreateTemp("", "auris-*"+path.Ext(u.Path))
	if err != nil {
		return nil, false, err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, false, fmt.Errorf("fetching %s: %w", u.Path, err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, false, err
	}
	return tmp, true, nil
}

// emit delivers an event without ever blocking the audio path. A full channel
// drops the event; the UI catches up on the next tick.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
	}
}

func bytesToDuration(pos int64, bytesPerSec int) time.Duration {
	if bytesPerSec <= 0 {
		return 0
	}
	return time.Duration(float64(pos) / float64(bytesPerSec) * float64(time.Second))
}

// clampSeekByteOffset converts a seek target to a byte offset clamped to
// [0, total] and aligned down to a sample frame boundary.
func clampSeekByteOffset(target time.Duration, bytesPerSec int, total int64, align int64) int64 {
	b := int64(target.Seconds() * float64(bytesPerSec))
	if b < 0 {
		b = 0
	}
	if total >= 0 && b > total {
		b = total
	}
	if align > 0 {
		b -= b % align
	}
	return b
}
