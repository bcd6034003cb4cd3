// Package playback mirrors the hosted page's transport state into the native
// process: the value type, its wire schema, the shared most-recent-wins cell,
// the scraper script evaluated inside the page and the loopback listener the
// script beacons back to.
package playback

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Port is the loopback port the scraper beacons to. It is baked into the
// generated script, so it cannot be configured at runtime.
const Port = 38475

// LoopbackHost is the only host the bridge binds to.
const LoopbackHost = "127.0.0.1"

var ErrMalformed = errors.New("malformed playback payload")

type PlayState string

const (
	Playing PlayState = "playing"
	Paused  PlayState = "paused"
)

func (s PlayState) Valid() bool {
	return s == Playing || s == Paused
}

// State is replaced wholesale on every accepted beacon. Progress may exceed
// Duration for a tick while the page re-renders; consumers must cope.
type State struct {
	Title    string    `json:"title"`
	Artist   string    `json:"artist"`
	Album    string    `json:"album"`
	State    PlayState `json:"state"`
	Progress uint64    `json:"progress"`
	Duration uint64    `json:"duration"`
}

func Default() State {
	return State{State: Paused}
}

// Empty reports whether the state carries nothing worth showing.
func (s State) Empty() bool {
	return s.Title == "" && s.Artist == ""
}

func (s State) Remaining() uint64 {
	if s.Progress >= s.Duration {
		return 0
	}
	return s.Duration - s.Progress
}

// wireState makes every field mandatory: a nil pointer after decoding means
// the sender omitted it.
type wireState struct {
	Title    *string    `json:"title"`
	Artist   *string    `json:"artist"`
	Album    *string    `json:"album"`
	State    *PlayState `json:"state"`
	Progress *uint64    `json:"progress"`
	Duration *uint64    `json:"duration"`
}

// Decode parses a beacon payload. Anything that does not match the schema
// exactly (missing fields, wrong types, negative or fractional numbers,
// unknown play state, trailing data) is reported as ErrMalformed.
func Decode(data []byte) (State, error) {
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch {
	case w.Title == nil:
		return State{}, fmt.Errorf("%w: missing title", ErrMalformed)
	case w.Artist == nil:
		return State{}, fmt.Errorf("%w: missing artist", ErrMalformed)
	case w.Album == nil:
		return State{}, fmt.Errorf("%w: missing album", ErrMalformed)
	case w.State == nil:
		return State{}, fmt.Errorf("%w: missing state", ErrMalformed)
	case w.Progress == nil:
		return State{}, fmt.Errorf("%w: missing progress", ErrMalformed)
	case w.Duration == nil:
		return State{}, fmt.Errorf("%w: missing duration", ErrMalformed)
	}
	if !w.State.Valid() {
		return State{}, fmt.Errorf("%w: unknown state %q", ErrMalformed, *w.State)
	}

	return State{
		Title:    *w.Title,
		Artist:   *w.Artist,
		Album:    *w.Album,
		State:    *w.State,
		Progress: *w.Progress,
		Duration: *w.Duration,
	}, nil
}
