// Package narratortest checks the narration contract of a story: offered
// events are legal, their dumps parse back to equally legal events, worlds
// survive a dump/load round trip and item states stay exclusive.
package narratortest

import (
	"encoding/json"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/storyworld/pkg/event"
	"github.com/jwebster45206/storyworld/pkg/narrator"
	"github.com/jwebster45206/storyworld/pkg/world"
)

// CheckInvariants verifies the contract on w and returns the offered events.
func CheckInvariants(t testing.TB, s narrator.Story, w *world.World) []*event.Event {
	t.Helper()
	n := s.Narrator()
	available := n.AvailableEvents(w)

	for _, e := range available {
		first := e.CanBeTriggered(w)
		require.True(t, first, "offered event %s cannot be triggered", e)
		require.Equal(t, first, e.CanBeTriggered(w), "check of %s is not idempotent", e)

		data, err := json.Marshal(e)
		require.NoError(t, err)
		parsed, err := n.ParseEvent(w, data)
		require.NoError(t, err, string(data))
		require.Equal(t, first, parsed.CanBeTriggered(w), string(data))
		require.Equal(t, e.TranslationBase(), parsed.TranslationBase())

		text := e.ActionText(w, s.Messages())
		require.False(t, strings.HasSuffix(text, "-"+event.SuffixAction), "missing action text for %s", e)
	}

	for name, item := range w.Items {
		_, owned := item.State.Owner()
		_, placed := item.State.Scene()
		held := 0
		for _, b := range []bool{item.State.IsUnassigned(), owned, placed} {
			if b {
				held++
			}
		}
		require.Equal(t, 1, held, "item %s in state %s", name, item.State)
	}

	data, err := w.Dump()
	require.NoError(t, err)
	fresh, err := s.Setup(w.Lang)
	require.NoError(t, err)
	require.NoError(t, fresh.Load(data))
	require.True(t, world.Equal(w, fresh), string(data))
	require.Equal(t, w.ID, fresh.ID)

	return available
}

// Walk plays random offered events from a fresh world until the story
// finishes or steps run out, checking the contract before every move.
// It fails when an unfinished story offers nothing. The returned world is
// the last state reached.
func Walk(t testing.TB, s narrator.Story, seed uint64, steps int) *world.World {
	t.Helper()
	w, err := s.Setup("")
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(seed, 0x5eed))

	for step := 0; step < steps && !s.Finished(w); step++ {
		available := CheckInvariants(t, s, w)
		require.NotEmpty(t, available, "seed %d stuck at step %d", seed, step)

		e := available[rng.IntN(len(available))]
		data, err := json.Marshal(e)
		require.NoError(t, err)
		before := w.EventCount
		_, err = narrator.Step(s.Narrator(), w, data)
		require.NoError(t, err, string(data))
		require.Equal(t, before+1, w.EventCount)
	}
	CheckInvariants(t, s, w)
	return w
}
