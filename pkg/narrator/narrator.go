// Package narrator defines the story contract: a Narrator enumerates the
// events a world currently offers and rebuilds events from wire payloads.
package narrator

import (
	"errors"
	"fmt"

	"github.com/jwebster45206/storyworld/pkg/event"
	"github.com/jwebster45206/storyworld/pkg/world"
)

var (
	// ErrUnknownEvent is returned by ParseEvent for an alias the story does not define.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrMalformedEvent is returned by ParseEvent for payloads that do not
	// decode into the alias' data or reference unknown entities.
	ErrMalformedEvent = errors.New("malformed event")
)

// Narrator is the story-specific move generator.
//
// Every event returned by AvailableEvents can be triggered on w at the time
// of return, and parsing its dump yields an event with the same legality.
// ParseEvent does not check legality; callers check before triggering.
type Narrator interface {
	AvailableEvents(w *world.World) []*event.Event
	ParseEvent(w *world.World, payload []byte) (*event.Event, error)
}

// Story is a bundled, playable story.
type Story interface {
	// Name is the stable identifier used by storage and the API.
	Name() string
	// Setup builds a fresh world in lang.
	Setup(lang string) (*world.World, error)
	Narrator() Narrator
	// Finished reports whether w is a terminal state.
	Finished(w *world.World) bool
	Messages() event.Messages
	// Description is a short localized summary of the story's progress.
	Description(w *world.World, lang string) string
}

// Offerable keeps the candidates whose guard holds on w.
func Offerable(w *world.World, candidates ...*event.Event) []*event.Event {
	out := make([]*event.Event, 0, len(candidates))
	for _, e := range candidates {
		if e != nil && e.CanBeTriggered(w) {
			out = append(out, e)
		}
	}
	return out
}

// Step runs one sanctioned turn: parse the payload, check the guard and
// trigger. The returned event is set whenever parsing succeeded, so callers
// can render its fail text on event.ErrCannotTrigger.
func Step(n Narrator, w *world.World, payload []byte) (*event.Event, error) {
	e, err := n.ParseEvent(w, payload)
	if err != nil {
		return nil, err
	}
	if err := e.Trigger(w); err != nil {
		return e, err
	}
	return e, nil
}

// Replay steps through recorded event dumps in order and stops at the first
// failure. w is left in the state reached by the events applied so far.
func Replay(n Narrator, w *world.World, payloads ...[]byte) error {
	for i, payload := range payloads {
		if _, err := Step(n, w, payload); err != nil {
			return fmt.Errorf("replay event %d: %w", i, err)
		}
	}
	return nil
}
