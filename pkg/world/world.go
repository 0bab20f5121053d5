package world

import (
	"reflect"
	"slices"
	"sort"

	"github.com/google/uuid"
)

// DefaultLang is used when a story is set up without a language.
const DefaultLang = "en-US"

// Extension carries story-specific character state (flags, counters) that the
// generic engine does not interpret. Implementations must be pointers to
// JSON-serializable structs; their fields are dumped next to "scene".
type Extension interface {
	Clone() Extension
}

// Character is a story protagonist.
type Character struct {
	Name  string    // Unique within the world
	Scene string    // Current scene, "" when not placed
	Tags  []string  // Capability tags, e.g. "cat", "dog"
	Ext   Extension // Story-defined state, may be nil
}

// HasTag reports whether the character carries at least one of tags.
func (c *Character) HasTag(tags ...string) bool {
	for _, tag := range tags {
		if slices.Contains(c.Tags, tag) {
			return true
		}
	}
	return false
}

func (c *Character) clone() *Character {
	out := &Character{
		Name:  c.Name,
		Scene: c.Scene,
		Tags:  slices.Clone(c.Tags),
	}
	if c.Ext != nil {
		out.Ext = c.Ext.Clone()
	}
	return out
}

// Item is a story object. Its tags are static and used for group queries.
type Item struct {
	Name  string
	State ItemState
	Tags  []string
}

// HasTag reports whether the item carries at least one of tags.
func (i *Item) HasTag(tags ...string) bool {
	for _, tag := range tags {
		if slices.Contains(i.Tags, tag) {
			return true
		}
	}
	return false
}

func (i *Item) clone() *Item {
	return &Item{Name: i.Name, State: i.State, Tags: slices.Clone(i.Tags)}
}

// Scene is a place characters move between. Dialog is the index of the next
// canned line for scenes that support sequential dialog, nil otherwise.
type Scene struct {
	Name   string
	Dialog *int
}

// HasDialog reports whether the scene carries a dialog cursor.
func (s *Scene) HasDialog() bool {
	return s.Dialog != nil
}

func (s *Scene) clone() *Scene {
	out := &Scene{Name: s.Name}
	if s.Dialog != nil {
		d := *s.Dialog
		out.Dialog = &d
	}
	return out
}

// World is the full mutable state of one story instance.
// It is not safe for concurrent use; callers own a loaded world exclusively.
type World struct {
	ID         uuid.UUID
	Lang       string
	EventCount uint64
	Characters map[string]*Character
	Items      map[string]*Item
	Scenes     map[string]*Scene
}

// Character returns the named character.
func (w *World) Character(name string) (*Character, error) {
	c, ok := w.Characters[name]
	if !ok {
		return nil, &NotFoundError{Kind: KindCharacter, Name: name}
	}
	return c, nil
}

// Item returns the named item.
func (w *World) Item(name string) (*Item, error) {
	i, ok := w.Items[name]
	if !ok {
		return nil, &NotFoundError{Kind: KindItem, Name: name}
	}
	return i, nil
}

// Scene returns the named scene.
func (w *World) Scene(name string) (*Scene, error) {
	s, ok := w.Scenes[name]
	if !ok {
		return nil, &NotFoundError{Kind: KindScene, Name: name}
	}
	return s, nil
}

// CharacterNames returns all character names in sorted order.
func (w *World) CharacterNames() []string {
	return sortedKeys(w.Characters)
}

// ItemNames returns all item names in sorted order.
func (w *World) ItemNames() []string {
	return sortedKeys(w.Items)
}

// SceneNames returns all scene names in sorted order.
func (w *World) SceneNames() []string {
	return sortedKeys(w.Scenes)
}

// ItemsWithTags returns the sorted names of items whose tag set intersects tags.
func (w *World) ItemsWithTags(tags ...string) []string {
	var names []string
	for name, item := range w.Items {
		if item.HasTag(tags...) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ItemsInState returns the sorted names of items currently in state.
func (w *World) ItemsInState(state ItemState) []string {
	var names []string
	for name, item := range w.Items {
		if item.State == state {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// CharactersInScene returns the sorted names of characters placed in scene.
func (w *World) CharactersInScene(scene string) []string {
	var names []string
	for name, c := range w.Characters {
		if c.Scene == scene {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ValidateState checks that the character or scene referenced by state exists.
func (w *World) ValidateState(state ItemState) error {
	if owner, ok := state.Owner(); ok {
		if _, err := w.Character(owner); err != nil {
			return err
		}
	}
	if scene, ok := state.Scene(); ok {
		if _, err := w.Scene(scene); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the world, story extensions included.
func (w *World) Clone() *World {
	out := &World{
		ID:         w.ID,
		Lang:       w.Lang,
		EventCount: w.EventCount,
		Characters: make(map[string]*Character, len(w.Characters)),
		Items:      make(map[string]*Item, len(w.Items)),
		Scenes:     make(map[string]*Scene, len(w.Scenes)),
	}
	for name, c := range w.Characters {
		out.Characters[name] = c.clone()
	}
	for name, i := range w.Items {
		out.Items[name] = i.clone()
	}
	for name, s := range w.Scenes {
		out.Scenes[name] = s.clone()
	}
	return out
}

// Equal reports structural equality over characters, items, scenes and the
// event counter. Identity and language are not compared.
func Equal(a, b *World) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.EventCount != b.EventCount ||
		len(a.Characters) != len(b.Characters) ||
		len(a.Items) != len(b.Items) ||
		len(a.Scenes) != len(b.Scenes) {
		return false
	}

	for name, ca := range a.Characters {
		cb, ok := b.Characters[name]
		if !ok || ca.Scene != cb.Scene || !slices.Equal(ca.Tags, cb.Tags) || !reflect.DeepEqual(ca.Ext, cb.Ext) {
			return false
		}
	}
	for name, ia := range a.Items {
		ib, ok := b.Items[name]
		if !ok || ia.State != ib.State || !slices.Equal(ia.Tags, ib.Tags) {
			return false
		}
	}
	for name, sa := range a.Scenes {
		sb, ok := b.Scenes[name]
		if !ok || sa.HasDialog() != sb.HasDialog() {
			return false
		}
		if sa.HasDialog() && *sa.Dialog != *sb.Dialog {
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
