package conditionals

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/storyworld/pkg/world"
)

type sameScene struct {
	characters []string
	items      []string
}

// SameScene holds when every named character and item is placed in a scene
// (characters via their scene, items via InScene) and they all share it.
// Any unplaced entity makes the check false.
func SameScene(characters, items []string) Condition {
	return New(sameScene{characters: characters, items: items})
}

func (c sameScene) Check(w *world.World) (bool, error) {
	scenes := map[string]struct{}{}
	for _, name := range c.characters {
		ch, err := w.Character(name)
		if err != nil {
			return false, err
		}
		if ch.Scene == "" {
			return false, nil
		}
		scenes[ch.Scene] = struct{}{}
	}
	for _, name := range c.items {
		item, err := w.Item(name)
		if err != nil {
			return false, err
		}
		scene, ok := item.State.Scene()
		if !ok {
			return false, nil
		}
		scenes[scene] = struct{}{}
	}
	return len(scenes) < 2, nil
}

func (c sameScene) String() string {
	return fmt.Sprintf("same_scene(%s | %s)", strings.Join(c.characters, ","), strings.Join(c.items, ","))
}

type itemInState struct {
	item  string
	state world.ItemState
}

// ItemInState holds when the item is exactly in state.
func ItemInState(item string, state world.ItemState) Condition {
	return New(itemInState{item: item, state: state})
}

// HasItem holds when the item is Owned by the character.
func HasItem(character, item string) Condition {
	return New(hasItem{character: character, item: item})
}

type hasItem struct {
	character string
	item      string
}

func (c hasItem) Check(w *world.World) (bool, error) {
	if _, err := w.Character(c.character); err != nil {
		return false, err
	}
	return itemInState{item: c.item, state: world.Owned(c.character)}.Check(w)
}

func (c hasItem) String() string {
	return fmt.Sprintf("has_item(%s, %s)", c.character, c.item)
}

func (c itemInState) Check(w *world.World) (bool, error) {
	item, err := w.Item(c.item)
	if err != nil {
		return false, err
	}
	return item.State == c.state, nil
}

func (c itemInState) String() string {
	return fmt.Sprintf("item_in_state(%s, %s)", c.item, c.state)
}

type characterInScene struct {
	character string
	scene     string
}

// CharacterInScene holds when the character's scene equals scene exactly.
// An empty scene matches an unplaced character.
func CharacterInScene(character, scene string) Condition {
	return New(characterInScene{character: character, scene: scene})
}

func (c characterInScene) Check(w *world.World) (bool, error) {
	ch, err := w.Character(c.character)
	if err != nil {
		return false, err
	}
	return ch.Scene == c.scene, nil
}

func (c characterInScene) String() string {
	return fmt.Sprintf("character_in_scene(%s, %s)", c.character, c.scene)
}

// CanGive holds when from owns the item and shares a scene with to.
func CanGive(from, to, item string) Condition {
	return And(HasItem(from, item), SameScene([]string{from, to}, nil))
}

type allItemsWithTagInState struct {
	tags  []string
	state world.ItemState
}

// AllItemsWithTagInState holds when every item whose tag set intersects tags
// is in state. It holds vacuously when no item carries any of the tags.
func AllItemsWithTagInState(tags []string, state world.ItemState) Condition {
	return New(allItemsWithTagInState{tags: tags, state: state})
}

func (c allItemsWithTagInState) Check(w *world.World) (bool, error) {
	for _, item := range w.Items {
		if item.HasTag(c.tags...) && item.State != c.state {
			return false, nil
		}
	}
	return true, nil
}

func (c allItemsWithTagInState) String() string {
	return fmt.Sprintf("all_items_with_tag_in_state(%s, %s)", strings.Join(c.tags, ","), c.state)
}

type sceneDialog struct {
	scene string
	index int
}

// SceneDialog holds when the scene's dialog cursor equals index.
// It fails with world.ErrNoDialog for scenes without a cursor.
func SceneDialog(scene string, index int) Condition {
	return New(sceneDialog{scene: scene, index: index})
}

func (c sceneDialog) Check(w *world.World) (bool, error) {
	s, err := w.Scene(c.scene)
	if err != nil {
		return false, err
	}
	if !s.HasDialog() {
		return false, fmt.Errorf("%s: %w", c.scene, world.ErrNoDialog)
	}
	return *s.Dialog == c.index, nil
}

func (c sceneDialog) String() string {
	return fmt.Sprintf("scene_dialog(%s, %d)", c.scene, c.index)
}

type characterHasTag struct {
	character string
	tags      []string
}

// CharacterHasTag holds when the character carries at least one of tags.
func CharacterHasTag(character string, tags ...string) Condition {
	return New(characterHasTag{character: character, tags: tags})
}

func (c characterHasTag) Check(w *world.World) (bool, error) {
	ch, err := w.Character(c.character)
	if err != nil {
		return false, err
	}
	return ch.HasTag(c.tags...), nil
}

func (c characterHasTag) String() string {
	return fmt.Sprintf("character_has_tag(%s, %s)", c.character, strings.Join(c.tags, ","))
}
