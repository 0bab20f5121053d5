package doll

import (
	"github.com/jwebster45206/storyworld/pkg/event"
	"github.com/jwebster45206/storyworld/pkg/narrator"
	"github.com/jwebster45206/storyworld/pkg/world"
)

// exits lists the destinations offered from each scene.
var exits = map[string][]string{
	Home:   {Street},
	Street: {Home, Shop, Park},
	Shop:   {Street},
	Park:   {Street},
}

type Narrator struct {
	registry *narrator.Registry
}

var _ narrator.Narrator = (*Narrator)(nil)

func NewNarrator() *Narrator {
	return &Narrator{registry: newRegistry()}
}

func (n *Narrator) ParseEvent(w *world.World, payload []byte) (*event.Event, error) {
	return n.registry.Parse(w, payload)
}

// AvailableEvents: at home the chat comes first; afterwards every character
// may pick up what lies around, use what it carries and walk on.
func (n *Narrator) AvailableEvents(w *world.World) []*event.Event {
	var candidates []*event.Event
	add := func(e *event.Event, err error) {
		if err == nil {
			candidates = append(candidates, e)
		}
	}

	for _, name := range w.CharacterNames() {
		c := w.Characters[name]
		if c.Scene == "" {
			continue
		}
		if dialog := w.Scenes[Home].Dialog; c.Scene == Home && dialog != nil && *dialog < HomeLines {
			add(talk(w, event.TalkData{Character: name, Scene: Home, Dialog: *dialog}))
			continue
		}

		for _, item := range w.ItemsInState(world.InScene(c.Scene)) {
			add(pick(w, event.PickData{Character: name, Item: item}))
		}
		for _, item := range w.ItemsInState(world.Owned(name)) {
			add(buy(w, event.UseItemData{Character: name, Item: item}))
			add(eat(w, event.VoidData{Character: name, Item: item}))
			add(hug(w, event.VoidData{Character: name, Item: item}))
			for _, to := range w.CharactersInScene(c.Scene) {
				if to != name {
					add(give(w, event.GiveData{FromCharacter: name, ToCharacter: to, Item: item}))
				}
			}
		}
		for _, scene := range exits[c.Scene] {
			add(move(w, event.MoveData{Character: name, Scene: scene}))
		}
	}
	return narrator.Offerable(w, candidates...)
}
