package player

import "time"

// Event is a playback lifecycle notification. Events arrive asynchronously on
// the engine's event channel; the UI loop converts them into messages.
type Event any

// TimeEvent reports the current playback position.
type TimeEvent struct {
	Position time.Duration
}

// DurationEvent reports the track duration once it is known.
type DurationEvent struct {
	Duration time.Duration
}

// EndedEvent reports that the current track played to the end.
type EndedEvent struct{}

// StateEvent reports a play/pause transition.
type StateEvent struct {
	Playing bool
}
