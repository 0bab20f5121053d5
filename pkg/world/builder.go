package world

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Builder registers the static entities of a story and produces a fresh World.
type Builder struct {
	lang       string
	characters []*Character
	items      []*Item
	scenes     []*Scene
}

// NewBuilder starts a world in the given language ("" means DefaultLang).
func NewBuilder(lang string) *Builder {
	if lang == "" {
		lang = DefaultLang
	}
	return &Builder{lang: lang}
}

// Character registers a character placed in scene ("" for not placed).
func (b *Builder) Character(name, scene string, ext Extension, tags ...string) *Builder {
	b.characters = append(b.characters, &Character{
		Name:  name,
		Scene: scene,
		Tags:  slices.Clone(tags),
		Ext:   ext,
	})
	return b
}

// Item registers an item in its initial state.
func (b *Builder) Item(name string, state ItemState, tags ...string) *Builder {
	b.items = append(b.items, &Item{Name: name, State: state, Tags: slices.Clone(tags)})
	return b
}

// Scene registers a scene without a dialog cursor.
func (b *Builder) Scene(name string) *Builder {
	b.scenes = append(b.scenes, &Scene{Name: name})
	return b
}

// DialogScene registers a scene whose dialog cursor starts at dialog.
func (b *Builder) DialogScene(name string, dialog int) *Builder {
	d := dialog
	b.scenes = append(b.scenes, &Scene{Name: name, Dialog: &d})
	return b
}

// Build validates the registered entities and returns the world.
// Names must be non-empty and unique per kind, and every character scene
// and item state must reference a registered entity.
func (b *Builder) Build() (*World, error) {
	w := &World{
		ID:         uuid.New(),
		Lang:       b.lang,
		Characters: make(map[string]*Character, len(b.characters)),
		Items:      make(map[string]*Item, len(b.items)),
		Scenes:     make(map[string]*Scene, len(b.scenes)),
	}

	var errs []error
	for _, s := range b.scenes {
		if err := checkName(KindScene, s.Name, w.Scenes); err != nil {
			errs = append(errs, err)
			continue
		}
		w.Scenes[s.Name] = s.clone()
	}
	for _, c := range b.characters {
		if err := checkName(KindCharacter, c.Name, w.Characters); err != nil {
			errs = append(errs, err)
			continue
		}
		w.Characters[c.Name] = c.clone()
	}
	for _, i := range b.items {
		if err := checkName(KindItem, i.Name, w.Items); err != nil {
			errs = append(errs, err)
			continue
		}
		w.Items[i.Name] = i.clone()
	}

	for _, c := range w.Characters {
		if c.Scene == "" {
			continue
		}
		if _, err := w.Scene(c.Scene); err != nil {
			errs = append(errs, fmt.Errorf("character %s: %w", c.Name, err))
		}
	}
	for _, i := range w.Items {
		if err := w.ValidateState(i.State); err != nil {
			errs = append(errs, fmt.Errorf("item %s: %w", i.Name, err))
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("build world: %w", errors.Join(errs...))
	}
	return w, nil
}

func checkName[V any](kind EntityKind, name string, existing map[string]V) error {
	if name == "" {
		return fmt.Errorf("%s name cannot be empty", kind)
	}
	if _, dup := existing[name]; dup {
		return fmt.Errorf("duplicate %s: %s", kind, name)
	}
	return nil
}
