package cake

import (
	"fmt"

	"github.com/jwebster45206/storyworld/pkg/changes"
	"github.com/jwebster45206/storyworld/pkg/conditionals"
	"github.com/jwebster45206/storyworld/pkg/event"
	"github.com/jwebster45206/storyworld/pkg/narrator"
	"github.com/jwebster45206/storyworld/pkg/world"
)

// Wire aliases.
const (
	AliasPick           = "pick"
	AliasPickIngredient = "pick_ingredient"
	AliasGiveSandCake   = "give_sand_cake"
	AliasGive           = "give"
	AliasAddIngredient  = "add_ingredient"
	AliasMove           = "move"
	AliasTalk           = "talk"
	AliasBake           = "bake"
	AliasEat            = "eat"
	AliasServeCake      = "serve_cake"
)

// Every factory below is used both by the narrator when it offers events and
// by the registry when it parses them, so an offered event and its parsed
// dump always carry the same guard.

func pick(w *world.World, d event.PickData) (*event.Event, error) {
	item, err := w.Item(d.Item)
	if err != nil {
		return nil, err
	}
	if !item.HasTag(TagToy, TagFood, TagCake) {
		return nil, fmt.Errorf("%s cannot be picked with %s", d.Item, AliasPick)
	}
	return event.NewPick(AliasPick, d), nil
}

func pickIngredient(w *world.World, d event.PickData) (*event.Event, error) {
	item, err := w.Item(d.Item)
	if err != nil {
		return nil, err
	}
	if !item.HasTag(TagIngredient) {
		return nil, fmt.Errorf("%s is not an ingredient", d.Item)
	}
	return event.NewPick(AliasPickIngredient, d), nil
}

// giveSandCake: the receiver pretends to eat the sand cake, which is gone
// afterwards.
func giveSandCake(_ *world.World, d event.GiveData) (*event.Event, error) {
	if d.Item != SandCake {
		return nil, fmt.Errorf("%s is not the sand cake", d.Item)
	}
	return event.NewGive(AliasGiveSandCake, d,
		event.WithUpdate(changes.Sequence(
			changes.AssignItem(SandCake, world.Unassigned()),
			changes.UpdateExtension(d.ToCharacter, func(f *Flags) { f.SandCakeLast = true }),
		)),
	), nil
}

func give(w *world.World, d event.GiveData) (*event.Event, error) {
	item, err := w.Item(d.Item)
	if err != nil {
		return nil, err
	}
	if !item.HasTag(TagFood) {
		return nil, fmt.Errorf("%s is not food", d.Item)
	}
	return event.NewGive(AliasGive, d), nil
}

func addIngredient(w *world.World, d event.UseItemData) (*event.Event, error) {
	item, err := w.Item(d.Item)
	if err != nil {
		return nil, err
	}
	if !item.HasTag(TagIngredient) {
		return nil, fmt.Errorf("%s is not an ingredient", d.Item)
	}
	return event.NewUseItem(AliasAddIngredient, d,
		event.WithExtraCondition(conditionals.CharacterInScene(d.Character, Kitchen)),
	), nil
}

type route struct {
	from, to string
	guard    conditionals.Condition
}

var (
	dialogOver = conditionals.SceneDialog(Kitchen, KitchenLines)

	cakeBaked = conditionals.Or(
		conditionals.ItemInState(Cake, world.Owned(Kitie)),
		conditionals.ItemInState(Cake, world.Owned(Doggie)),
		conditionals.ItemInState(Cake, world.InScene(ChildrenGarden)),
	)

	toChildrenGarden = conditionals.And(
		dialogOver,
		conditionals.AllItemsWithTagInState([]string{TagBatch1}, world.Unassigned()),
		cakeBaked,
	)

	routes = []route{
		{Playground, Kitchen, conditionals.ItemInState(SandCake, world.Unassigned())},
		{Kitchen, Garden, dialogOver},
		{Garden, Kitchen, dialogOver},
		{Kitchen, ChildrenGarden, toChildrenGarden},
		{Garden, ChildrenGarden, toChildrenGarden},
	}
)

// move follows the route table: the character must stand at a route's start
// and the route's guard must hold.
func move(_ *world.World, d event.MoveData) (*event.Event, error) {
	var legs []conditionals.Condition
	for _, r := range routes {
		if r.to == d.Scene {
			legs = append(legs, conditionals.And(conditionals.CharacterInScene(d.Character, r.from), r.guard))
		}
	}
	if len(legs) == 0 {
		return nil, fmt.Errorf("no route leads to %s", d.Scene)
	}
	return event.NewMove(AliasMove, d, event.WithExtraCondition(conditionals.Or(legs...))), nil
}

// speaker returns the tag of the character saying the kitchen line.
func speaker(line int) string {
	if line%2 == 0 {
		return TagCat
	}
	return TagDog
}

// talk says one kitchen line; both friends must be in the kitchen. The last
// line brings out the flour and milk and sends them for an egg.
func talk(_ *world.World, d event.TalkData) (*event.Event, error) {
	if d.Scene != Kitchen {
		return nil, fmt.Errorf("nobody talks in %s", d.Scene)
	}
	if d.Dialog >= KitchenLines {
		return nil, fmt.Errorf("kitchen has no line %d", d.Dialog)
	}
	opts := []event.Option{
		event.WithRoles(speaker(d.Dialog)),
		event.WithExtraCondition(conditionals.SameScene([]string{Kitie, Doggie}, nil)),
	}
	if d.Dialog == KitchenLines-1 {
		opts = append(opts, event.WithExtraChange(changes.Sequence(
			changes.AssignItem(Flour, world.InScene(Kitchen)),
			changes.AssignItem(Milk, world.InScene(Kitchen)),
			changes.AssignItem(Egg, world.InScene(Garden)),
		)))
	}
	return event.NewTalk(AliasTalk, d, opts...), nil
}

func bake(_ *world.World, d event.VoidData) (*event.Event, error) {
	if d.Item != "" {
		return nil, fmt.Errorf("%s takes no item", AliasBake)
	}
	return event.NewVoid(AliasBake, d,
		event.WithExtraCondition(conditionals.And(
			conditionals.CharacterInScene(d.Character, Kitchen),
			dialogOver,
			conditionals.AllItemsWithTagInState([]string{TagBatch1}, world.Unassigned()),
			conditionals.ItemInState(Cake, world.Unassigned()),
		)),
		event.WithUpdate(changes.AssignItem(Cake, world.InScene(Kitchen))),
	), nil
}

// eat: the dog eats meat, the cat eats fish.
func eat(_ *world.World, d event.VoidData) (*event.Event, error) {
	var (
		role string
		mark func(*Flags)
	)
	switch d.Item {
	case Meat:
		role, mark = TagDog, func(f *Flags) { f.ConsumedMeat = true }
	case Fish:
		role, mark = TagCat, func(f *Flags) { f.ConsumedFish = true }
	default:
		return nil, fmt.Errorf("%q cannot be eaten", d.Item)
	}
	return event.NewVoid(AliasEat, d,
		event.WithRoles(role),
		event.WithUpdate(changes.Sequence(
			changes.AssignItem(d.Item, world.Unassigned()),
			changes.UpdateExtension(d.Character, mark),
		)),
	), nil
}

func serveCake(_ *world.World, d event.VoidData) (*event.Event, error) {
	if d.Item != Cake {
		return nil, fmt.Errorf("only the cake can be served")
	}
	return event.NewVoid(AliasServeCake, d,
		event.WithExtraCondition(conditionals.CharacterInScene(d.Character, ChildrenGarden)),
		event.WithUpdate(changes.AssignItem(Cake, world.InScene(ChildrenGarden))),
	), nil
}

func newRegistry() *narrator.Registry {
	return narrator.NewRegistry().
		Register(AliasPick, narrator.Bind(pick)).
		Register(AliasPickIngredient, narrator.Bind(pickIngredient)).
		Register(AliasGiveSandCake, narrator.Bind(giveSandCake)).
		Register(AliasGive, narrator.Bind(give)).
		Register(AliasAddIngredient, narrator.Bind(addIngredient)).
		Register(AliasMove, narrator.Bind(move)).
		Register(AliasTalk, narrator.Bind(talk)).
		Register(AliasBake, narrator.Bind(bake)).
		Register(AliasEat, narrator.Bind(eat)).
		Register(AliasServeCake, narrator.Bind(serveCake))
}
