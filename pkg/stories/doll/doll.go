// Package doll is the story "Doggie and Kitie find the doll": after a chat at
// home the friends buy an ice cream in town and bring Kitie's lost doll back
// from the park.
package doll

import (
	"embed"
	"strconv"

	"github.com/jwebster45206/storyworld/pkg/catalog"
	"github.com/jwebster45206/storyworld/pkg/conditionals"
	"github.com/jwebster45206/storyworld/pkg/event"
	"github.com/jwebster45206/storyworld/pkg/narrator"
	"github.com/jwebster45206/storyworld/pkg/world"
)

const Name = "doll"

const (
	Kitie  = "kitie"
	Doggie = "doggie"

	Home   = "home"
	Street = "street"
	Shop   = "shop"
	Park   = "park"

	Coin     = "coin"
	Doll     = "doll"
	IceCream = "ice_cream"

	TagCat   = "cat"
	TagDog   = "dog"
	TagMoney = "money"
	TagToy   = "toy"
	TagFood  = "food"
)

// HomeLines is the length of the dialog at home.
const HomeLines = 3

// Flags is the story state carried by each character.
type Flags struct {
	HuggedDoll  bool `json:"hugged_doll"`
	AteIceCream bool `json:"ate_ice_cream"`
}

func (f *Flags) Clone() world.Extension {
	c := *f
	return &c
}

//go:embed locales/*/*.yaml
var localesFS embed.FS

var messages = catalog.MustLoad(localesFS)

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

func (s *Story) Setup(lang string) (*world.World, error) {
	return world.NewBuilder(messages.Match(lang)).
		DialogScene(Home, 0).
		Scene(Street).
		Scene(Shop).
		Scene(Park).
		Character(Kitie, Home, &Flags{}, TagCat).
		Character(Doggie, Home, &Flags{}, TagDog).
		Item(Coin, world.InScene(Street), TagMoney).
		Item(Doll, world.InScene(Park), TagToy).
		Item(IceCream, world.Unassigned(), TagFood).
		Build()
}

func (s *Story) Narrator() narrator.Narrator {
	return s.narrator
}

var finished = conditionals.And(
	conditionals.CharacterInScene(Kitie, Home),
	conditionals.CharacterInScene(Doggie, Home),
	conditionals.HasItem(Kitie, Doll),
	conditionals.New(conditionals.CheckFunc(func(w *world.World) (bool, error) {
		c, err := w.Character(Kitie)
		if err != nil {
			return false, err
		}
		f, ok := c.Ext.(*Flags)
		return ok && f.HuggedDoll, nil
	})),
)

// Finished holds once both friends are back home and Kitie, holding the
// doll, has hugged it.
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
