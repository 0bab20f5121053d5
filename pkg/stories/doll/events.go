package doll

import (
	"fmt"

	"github.com/jwebster45206/storyworld/pkg/changes"
	"github.com/jwebster45206/storyworld/pkg/conditionals"
	"github.com/jwebster45206/storyworld/pkg/event"
	"github.com/jwebster45206/storyworld/pkg/narrator"
	"github.com/jwebster45206/storyworld/pkg/world"
)

const (
	AliasTalk = "talk"
	AliasMove = "move"
	AliasPick = "pick"
	AliasBuy  = "buy"
	AliasGive = "give"
	AliasEat  = "eat"
	AliasHug  = "hug"
)

var (
	chatOver  = conditionals.SceneDialog(Home, HomeLines)
	dollFound = conditionals.Not(conditionals.ItemInState(Doll, world.InScene(Park)))
	anywhere  = conditionals.Always()
)

// routes maps a destination to its legal starting scenes and guards.
var routes = map[string][]struct {
	from  string
	guard conditionals.Condition
}{
	Street: {{Home, chatOver}, {Shop, anywhere}, {Park, anywhere}},
	Shop:   {{Street, anywhere}},
	Park:   {{Street, anywhere}},
	Home:   {{Street, dollFound}},
}

func talk(_ *world.World, d event.TalkData) (*event.Event, error) {
	if d.Scene != Home {
		return nil, fmt.Errorf("nobody talks in %s", d.Scene)
	}
	if d.Dialog >= HomeLines {
		return nil, fmt.Errorf("home has no line %d", d.Dialog)
	}
	role := TagCat
	if d.Dialog%2 == 1 {
		role = TagDog
	}
	return event.NewTalk(AliasTalk, d,
		event.WithRoles(role),
		event.WithExtraCondition(conditionals.SameScene([]string{Kitie, Doggie}, nil)),
	), nil
}

func move(_ *world.World, d event.MoveData) (*event.Event, error) {
	legs := routes[d.Scene]
	if len(legs) == 0 {
		return nil, fmt.Errorf("no route leads to %s", d.Scene)
	}
	conds := make([]conditionals.Condition, 0, len(legs))
	for _, leg := range legs {
		conds = append(conds, conditionals.And(conditionals.CharacterInScene(d.Character, leg.from), leg.guard))
	}
	return event.NewMove(AliasMove, d, event.WithExtraCondition(conditionals.Or(conds...))), nil
}

func pick(_ *world.World, d event.PickData) (*event.Event, error) {
	return event.NewPick(AliasPick, d), nil
}

// buy spends the coin in the shop on an ice cream.
func buy(_ *world.World, d event.UseItemData) (*event.Event, error) {
	if d.Item != Coin {
		return nil, fmt.Errorf("%s is not money", d.Item)
	}
	return event.NewUseItem(AliasBuy, d,
		event.WithExtraCondition(conditionals.CharacterInScene(d.Character, Shop)),
		event.WithExtraChange(changes.AssignItem(IceCream, world.InScene(Shop))),
	), nil
}

func give(_ *world.World, d event.GiveData) (*event.Event, error) {
	return event.NewGive(AliasGive, d), nil
}

func eat(_ *world.World, d event.VoidData) (*event.Event, error) {
	if d.Item != IceCream {
		return nil, fmt.Errorf("%q cannot be eaten", d.Item)
	}
	return event.NewVoid(AliasEat, d,
		event.WithUpdate(changes.Sequence(
			changes.AssignItem(IceCream, world.Unassigned()),
			changes.UpdateExtension(d.Character, func(f *Flags) { f.AteIceCream = true }),
		)),
	), nil
}

// hug: only Kitie cuddles the doll.
func hug(_ *world.World, d event.VoidData) (*event.Event, error) {
	if d.Item != Doll {
		return nil, fmt.Errorf("%q cannot be hugged", d.Item)
	}
	return event.NewVoid(AliasHug, d,
		event.WithRoles(TagCat),
		event.WithUpdate(changes.UpdateExtension(d.Character, func(f *Flags) { f.HuggedDoll = true })),
	), nil
}

func newRegistry() *narrator.Registry {
	return narrator.NewRegistry().
		Register(AliasTalk, narrator.Bind(talk)).
		Register(AliasMove, narrator.Bind(move)).
		Register(AliasPick, narrator.Bind(pick)).
		Register(AliasBuy, narrator.Bind(buy)).
		Register(AliasGive, narrator.Bind(give)).
		Register(AliasEat, narrator.Bind(eat)).
		Register(AliasHug, narrator.Bind(hug))
}
