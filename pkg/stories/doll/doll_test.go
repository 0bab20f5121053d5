package doll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/storyworld/pkg/event"
	"github.com/jwebster45206/storyworld/pkg/narrator"
	"github.com/jwebster45206/storyworld/pkg/narrator/narratortest"
	"github.com/jwebster45206/storyworld/pkg/world"
)

func bases(events []*event.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.TranslationBase())
	}
	return out
}

func TestOpeningChat(t *testing.T) {
	s := New()
	w, err := s.Setup("")
	require.NoError(t, err)

	assert.Equal(t, []string{"talk-kitie-home-0"}, bases(s.Narrator().AvailableEvents(w)))

	require.NoError(t, narrator.Replay(s.Narrator(), w,
		[]byte(`{"name":"talk","character":"kitie","scene":"home","dialog":0}`),
		[]byte(`{"name":"talk","character":"doggie","scene":"home","dialog":1}`),
		[]byte(`{"name":"talk","character":"kitie","scene":"home","dialog":2}`),
	))
	assert.ElementsMatch(t, []string{"move-doggie-street", "move-kitie-street"}, bases(s.Narrator().AvailableEvents(w)))
}

func TestPlaythrough(t *testing.T) {
	s := New()
	w, err := s.Setup("en-US")
	require.NoError(t, err)

	steps := []string{
		`{"name":"talk","character":"kitie","scene":"home","dialog":0}`,
		`{"name":"talk","character":"doggie","scene":"home","dialog":1}`,
		`{"name":"talk","character":"kitie","scene":"home","dialog":2}`,
		`{"name":"move","character":"doggie","scene":"street"}`,
		`{"name":"move","character":"kitie","scene":"street"}`,
		`{"name":"pick","character":"doggie","item":"coin"}`,
		`{"name":"move","character":"doggie","scene":"shop"}`,
		`{"name":"buy","character":"doggie","item":"coin"}`,
		`{"name":"pick","character":"doggie","item":"ice_cream"}`,
		`{"name":"eat","character":"doggie","item":"ice_cream"}`,
		`{"name":"move","character":"doggie","scene":"street"}`,
		`{"name":"move","character":"kitie","scene":"park"}`,
		`{"name":"pick","character":"kitie","item":"doll"}`,
		`{"name":"hug","character":"kitie","item":"doll"}`,
		`{"name":"move","character":"kitie","scene":"street"}`,
		`{"name":"move","character":"kitie","scene":"home"}`,
		`{"name":"move","character":"doggie","scene":"home"}`,
	}
	for i, payload := range steps {
		require.False(t, s.Finished(w), "finished before step %d", i)
		parsed, err := s.Narrator().ParseEvent(w, []byte(payload))
		require.NoError(t, err, payload)
		require.Contains(t, bases(s.Narrator().AvailableEvents(w)), parsed.TranslationBase())
		_, err = narrator.Step(s.Narrator(), w, []byte(payload))
		require.NoError(t, err, payload)
	}

	assert.True(t, s.Finished(w))
	assert.True(t, w.Characters[Doggie].Ext.(*Flags).AteIceCream)
	assert.True(t, w.Characters[Kitie].Ext.(*Flags).HuggedDoll)
	assert.True(t, w.Items[Coin].State.IsUnassigned())
	assert.Equal(t, "Doggie and Kitie find the doll: the end", s.Description(w, "en-US"))
}

func TestHomeWaitsForTheDoll(t *testing.T) {
	s := New()
	w, err := s.Setup("")
	require.NoError(t, err)
	*w.Scenes[Home].Dialog = HomeLines
	w.Characters[Kitie].Scene = Street

	e, err := s.Narrator().ParseEvent(w, []byte(`{"name":"move","character":"kitie","scene":"home"}`))
	require.NoError(t, err)
	assert.False(t, e.CanBeTriggered(w))

	w.Items[Doll].State = world.Owned(Doggie)
	assert.True(t, e.CanBeTriggered(w))
}

func TestHug_CatOnly(t *testing.T) {
	s := New()
	w, err := s.Setup("")
	require.NoError(t, err)
	w.Items[Doll].State = world.Owned(Doggie)

	e, err := s.Narrator().ParseEvent(w, []byte(`{"name":"hug","character":"doggie","item":"doll"}`))
	require.NoError(t, err)
	assert.False(t, e.CanBeTriggered(w))
	assert.Equal(t, "Doggie cannot hug the doll now.", e.FailText(w, s.Messages()))
}

func TestParseEvent_Rejects(t *testing.T) {
	s := New()
	w, err := s.Setup("")
	require.NoError(t, err)

	tests := []struct {
		name      string
		payload   string
		expectErr error
	}{
		{"cake alias", `{"name":"bake","character":"kitie"}`, narrator.ErrUnknownEvent},
		{"buy with doll", `{"name":"buy","character":"kitie","item":"doll"}`, narrator.ErrMalformedEvent},
		{"eat the coin", `{"name":"eat","character":"kitie","item":"coin"}`, narrator.ErrMalformedEvent},
		{"hug without item", `{"name":"hug","character":"kitie"}`, narrator.ErrMalformedEvent},
		{"talk on the street", `{"name":"talk","character":"kitie","scene":"street","dialog":0}`, narrator.ErrMalformedEvent},
		{"kitchen does not exist", `{"name":"move","character":"kitie","scene":"kitchen"}`, narrator.ErrMalformedEvent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Narrator().ParseEvent(w, []byte(tt.payload))
			assert.ErrorIs(t, err, tt.expectErr)
		})
	}
}

func TestRandomWalks(t *testing.T) {
	s := New()
	for seed := uint64(1); seed <= 25; seed++ {
		narratortest.Walk(t, s, seed, 300)
	}
}

func TestDescription(t *testing.T) {
	s := New()
	w, err := s.Setup("cs")
	require.NoError(t, err)
	assert.Equal(t, "Jak pejsek s kočičkou hledali panenku: zatím 0 událostí", s.Description(w, w.Lang))
}
