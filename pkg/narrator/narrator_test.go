package narrator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/storyworld/pkg/conditionals"
	"github.com/jwebster45206/storyworld/pkg/event"
	"github.com/jwebster45206/storyworld/pkg/world"
)

func testWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.NewBuilder("").
		Scene("playground").
		Scene("garden").
		DialogScene("kitchen", 0).
		Character("kitie", "playground", nil, "cat").
		Character("doggie", "playground", nil, "dog").
		Item("sand_cake", world.InScene("playground"), "toy").
		Item("meat", world.InScene("garden"), "food").
		Build()
	require.NoError(t, err)
	return w
}

// toyNarrator offers picks in the playground and food-only gives.
type toyNarrator struct {
	registry *Registry
}

func newToyNarrator() *toyNarrator {
	n := &toyNarrator{}
	n.registry = NewRegistry().
		Register("pick", Bind(func(_ *world.World, d event.PickData) (*event.Event, error) {
			return event.NewPick("pick", d), nil
		})).
		Register("give_food", Bind(func(w *world.World, d event.GiveData) (*event.Event, error) {
			if !w.Items[d.Item].HasTag("food") {
				return nil, errors.New("not food")
			}
			return event.NewGive("give_food", d), nil
		})).
		Register("talk", Bind(func(_ *world.World, d event.TalkData) (*event.Event, error) {
			return event.NewTalk("talk", d), nil
		}))
	return n
}

func (n *toyNarrator) AvailableEvents(w *world.World) []*event.Event {
	var candidates []*event.Event
	for _, c := range w.CharacterNames() {
		candidates = append(candidates, event.NewPick("pick", event.PickData{Character: c, Item: "sand_cake"}))
	}
	return Offerable(w, candidates...)
}

func (n *toyNarrator) ParseEvent(w *world.World, payload []byte) (*event.Event, error) {
	return n.registry.Parse(w, payload)
}

func TestRegistry_Parse(t *testing.T) {
	n := newToyNarrator()

	tests := []struct {
		name      string
		payload   string
		expectErr error
		expected  string
	}{
		{name: "pick", payload: `{"name":"pick","character":"kitie","item":"sand_cake"}`, expected: "pick-kitie-sand_cake"},
		{name: "talk with zero dialog", payload: `{"name":"talk","character":"kitie","scene":"kitchen","dialog":0}`, expected: "talk-kitie-kitchen-0"},
		{name: "unknown alias", payload: `{"name":"fly","character":"kitie"}`, expectErr: ErrUnknownEvent},
		{name: "missing name", payload: `{"character":"kitie","item":"sand_cake"}`, expectErr: ErrMalformedEvent},
		{name: "name not a string", payload: `{"name":3}`, expectErr: ErrMalformedEvent},
		{name: "not json", payload: `pick`, expectErr: ErrMalformedEvent},
		{name: "unknown field", payload: `{"name":"pick","character":"kitie","item":"sand_cake","force":true}`, expectErr: ErrMalformedEvent},
		{name: "missing field", payload: `{"name":"pick","character":"kitie"}`, expectErr: ErrMalformedEvent},
		{name: "missing dialog", payload: `{"name":"talk","character":"kitie","scene":"kitchen"}`, expectErr: ErrMalformedEvent},
		{name: "null dialog", payload: `{"name":"talk","character":"kitie","scene":"kitchen","dialog":null}`, expectErr: ErrMalformedEvent},
		{name: "null character", payload: `{"name":"pick","character":null,"item":"sand_cake"}`, expectErr: ErrMalformedEvent},
		{name: "wrong field type", payload: `{"name":"talk","character":"kitie","scene":"kitchen","dialog":"one"}`, expectErr: ErrMalformedEvent},
		{name: "unknown character", payload: `{"name":"pick","character":"ghost","item":"sand_cake"}`, expectErr: ErrMalformedEvent},
		{name: "factory rejects", payload: `{"name":"give_food","from_character":"kitie","to_character":"doggie","item":"sand_cake"}`, expectErr: ErrMalformedEvent},
		{name: "factory accepts", payload: `{"name":"give_food","from_character":"kitie","to_character":"doggie","item":"meat"}`, expected: "give_food-kitie-doggie-meat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testWorld(t)
			e, err := n.ParseEvent(w, []byte(tt.payload))
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				assert.Nil(t, e)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, e.TranslationBase())
		})
	}
}

func TestRegistry_ParseKeepsNotFound(t *testing.T) {
	w := testWorld(t)
	_, err := newToyNarrator().ParseEvent(w, []byte(`{"name":"pick","character":"kitie","item":"ghost_item"}`))
	var nf *world.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, world.KindItem, nf.Kind)
}

func TestRegistry_DuplicateAliasPanics(t *testing.T) {
	r := NewRegistry().Register("pick", nil)
	assert.Panics(t, func() { r.Register("pick", nil) })
	assert.Equal(t, []string{"pick"}, r.Aliases())
}

func TestOfferable(t *testing.T) {
	w := testWorld(t)
	offered := Offerable(w,
		event.NewPick("pick", event.PickData{Character: "kitie", Item: "sand_cake"}),
		event.NewPick("pick", event.PickData{Character: "kitie", Item: "meat"}),
		nil,
		event.NewVoid("wave", event.VoidData{Character: "kitie"}, event.WithCondition(conditionals.HasItem("ghost", "meat"))),
	)
	require.Len(t, offered, 1)
	assert.Equal(t, "pick-kitie-sand_cake", offered[0].TranslationBase())
}

func TestStepAndReplay(t *testing.T) {
	n := newToyNarrator()
	w := testWorld(t)

	available := n.AvailableEvents(w)
	require.Len(t, available, 2)

	e, err := Step(n, w, []byte(`{"name":"pick","character":"kitie","item":"sand_cake"}`))
	require.NoError(t, err)
	assert.Equal(t, "pick", e.Name())
	assert.Equal(t, world.Owned("kitie"), w.Items["sand_cake"].State)
	assert.Empty(t, n.AvailableEvents(w))

	e, err = Step(n, w, []byte(`{"name":"pick","character":"doggie","item":"sand_cake"}`))
	assert.ErrorIs(t, err, event.ErrCannotTrigger)
	require.NotNil(t, e)
	assert.Equal(t, uint64(1), w.EventCount)

	w = testWorld(t)
	err = Replay(n, w,
		[]byte(`{"name":"talk","character":"kitie","scene":"kitchen","dialog":0}`),
		[]byte(`{"name":"talk","character":"kitie","scene":"kitchen","dialog":1}`),
	)
	// kitie is not in the kitchen, so the first talk is refused
	assert.ErrorIs(t, err, event.ErrCannotTrigger)
	assert.ErrorContains(t, err, "replay event 0")

	w.Characters["kitie"].Scene = "kitchen"
	require.NoError(t, Replay(n, w,
		[]byte(`{"name":"talk","character":"kitie","scene":"kitchen","dialog":0}`),
		[]byte(`{"name":"talk","character":"kitie","scene":"kitchen","dialog":1}`),
	))
	assert.Equal(t, 2, *w.Scenes["kitchen"].Dialog)
	assert.Equal(t, uint64(2), w.EventCount)
}
