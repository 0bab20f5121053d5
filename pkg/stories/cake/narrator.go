package cake

import (
	"github.com/jwebster45206/storyworld/pkg/event"
	"github.com/jwebster45206/storyworld/pkg/narrator"
	"github.com/jwebster45206/storyworld/pkg/world"
)

// Narrator offers the cake story's events.
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

// AvailableEvents dispatches on each character's scene to collect
// candidates, then keeps the ones whose guard holds. The order is stable:
// characters by name, then the candidate order of their scene.
func (n *Narrator) AvailableEvents(w *world.World) []*event.Event {
	var candidates []*event.Event
	for _, name := range w.CharacterNames() {
		c := w.Characters[name]
		cs := &candidateSet{w: w, character: name, other: other(name)}

		switch c.Scene {
		case Playground:
			cs.picks(pick, Playground)
			cs.add(giveSandCake(w, event.GiveData{FromCharacter: name, ToCharacter: cs.other, Item: SandCake}))
			cs.moves(Kitchen)
		case Kitchen:
			if dialog := w.Scenes[Kitchen].Dialog; dialog != nil && *dialog < KitchenLines {
				cs.add(talk(w, event.TalkData{Character: name, Scene: Kitchen, Dialog: *dialog}))
				break
			}
			cs.picks(pickIngredient, Kitchen)
			cs.picks(pick, Kitchen)
			cs.owned(func(item string) {
				cs.add(addIngredient(w, event.UseItemData{Character: name, Item: item}))
			})
			cs.add(bake(w, event.VoidData{Character: name}))
			cs.food()
			cs.moves(Garden, ChildrenGarden)
		case Garden:
			cs.picks(pickIngredient, Garden)
			cs.picks(pick, Garden)
			cs.food()
			cs.moves(Kitchen, ChildrenGarden)
		case ChildrenGarden:
			cs.add(serveCake(w, event.VoidData{Character: name, Item: Cake}))
			cs.food()
		}
		candidates = append(candidates, cs.events...)
	}
	return narrator.Offerable(w, candidates...)
}

func other(character string) string {
	if character == Kitie {
		return Doggie
	}
	return Kitie
}

type candidateSet struct {
	w         *world.World
	character string
	other     string
	events    []*event.Event
}

// add keeps e unless its factory rejected the binding.
func (cs *candidateSet) add(e *event.Event, err error) {
	if err == nil {
		cs.events = append(cs.events, e)
	}
}

func (cs *candidateSet) picks(factory func(*world.World, event.PickData) (*event.Event, error), scene string) {
	for _, item := range cs.w.ItemsInState(world.InScene(scene)) {
		cs.add(factory(cs.w, event.PickData{Character: cs.character, Item: item}))
	}
}

func (cs *candidateSet) owned(f func(item string)) {
	for _, item := range cs.w.ItemsInState(world.Owned(cs.character)) {
		f(item)
	}
}

// food offers eating and sharing whatever the character carries.
func (cs *candidateSet) food() {
	cs.owned(func(item string) {
		cs.add(eat(cs.w, event.VoidData{Character: cs.character, Item: item}))
		cs.add(give(cs.w, event.GiveData{FromCharacter: cs.character, ToCharacter: cs.other, Item: item}))
	})
}

func (cs *candidateSet) moves(scenes ...string) {
	for _, scene := range scenes {
		cs.add(move(cs.w, event.MoveData{Character: cs.character, Scene: scene}))
	}
}
