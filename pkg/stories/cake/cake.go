// Package cake is the story "Doggie and Kitie bake a cake": the two friends
// leave the playground, talk their way through the kitchen, gather the
// ingredients, bake the cake and serve it in the children's garden.
package cake

import (
	"embed"
	"strconv"

	"github.com/jwebster45206/storyworld/pkg/catalog"
	"github.com/jwebster45206/storyworld/pkg/conditionals"
	"github.com/jwebster45206/storyworld/pkg/event"
	"github.com/jwebster45206/storyworld/pkg/narrator"
	"github.com/jwebster45206/storyworld/pkg/world"
)

// Name identifies the story in storage and on the API.
const Name = "cake"

// Characters.
const (
	Kitie  = "kitie"
	Doggie = "doggie"
)

// Scenes.
const (
	Playground     = "playground"
	Kitchen        = "kitchen"
	Garden         = "garden"
	ChildrenGarden = "children_garden"
)

// Items.
const (
	SandCake = "sand_cake"
	Flour    = "flour"
	Milk     = "milk"
	Egg      = "egg"
	Fish     = "fish"
	Meat     = "meat"
	Cake     = "cake"
)

// Tags.
const (
	TagCat        = "cat"
	TagDog        = "dog"
	TagToy        = "toy"
	TagIngredient = "ingredient"
	TagBatch1     = "batch1"
	TagFood       = "food"
	TagCake       = "cake"
)

// KitchenLines is the number of canned lines of the kitchen dialog.
// Kitie says the even lines, Doggie the odd ones.
const KitchenLines = 6

// Flags is the story state carried by each character.
type Flags struct {
	SandCakeLast bool `json:"sand_cake_last"`
	ConsumedMeat bool `json:"consumed_meat"`
	ConsumedFish bool `json:"consumed_fish"`
}

func (f *Flags) Clone() world.Extension {
	c := *f
	return &c
}

//go:embed locales/*/*.yaml
var localesFS embed.FS

var messages = catalog.MustLoad(localesFS)

// Story implements narrator.Story.
type Story struct {
	narrator *Narrator
}

var _ narrator.Story = (*Story)(nil)

func New() *Story {
	return &Story{narrator: NewNarrator()}
}

func (s *Story) Name() string {
	return Name
}

// Setup builds the opening world: both friends and the sand cake in the
// playground, the cake ingredients still in the pantry.
func (s *Story) Setup(lang string) (*world.World, error) {
	return world.NewBuilder(messages.Match(lang)).
		Scene(Playground).
		DialogScene(Kitchen, 0).
		Scene(Garden).
		Scene(ChildrenGarden).
		Character(Kitie, Playground, &Flags{}, TagCat).
		Character(Doggie, Playground, &Flags{}, TagDog).
		Item(SandCake, world.InScene(Playground), TagToy).
		Item(Flour, world.Unassigned(), TagIngredient, TagBatch1).
		Item(Milk, world.Unassigned(), TagIngredient, TagBatch1).
		Item(Egg, world.Unassigned(), TagIngredient, TagBatch1).
		Item(Fish, world.InScene(Kitchen), TagFood).
		Item(Meat, world.InScene(Garden), TagFood).
		Item(Cake, world.Unassigned(), TagCake).
		Build()
}

func (s *Story) Narrator() narrator.Narrator {
	return s.narrator
}

var finished = conditionals.And(
	conditionals.CharacterInScene(Kitie, ChildrenGarden),
	conditionals.CharacterInScene(Doggie, ChildrenGarden),
	conditionals.ItemInState(Cake, world.InScene(ChildrenGarden)),
)

// Finished holds once both friends are in the children's garden with the
// cake served there.
func (s *Story) Finished(w *world.World) bool {
	return finished.Holds(w)
}

func (s *Story) Messages() event.Messages {
	return messages
}

func (s *Story) Description(w *world.World, lang string) string {
	key := "story-progress"
	if s.Finished(w) {
		key = "story-finished"
	}
	return messages.Message(key, lang, map[string]string{
		"title":  messages.Message("story-title", lang, nil),
		"events": strconv.FormatUint(w.EventCount, 10),
	})
}
