// Package changes holds the validated world mutations applied when events trigger.
// Changes run only after their event's condition held, but they still
// re-validate every name they touch and report a *world.NotFoundError rather
// than panic when a story definition references an unknown entity.
package changes

import (
	"fmt"

	"github.com/jwebster45206/storyworld/pkg/world"
)

// Change mutates the world.
type Change interface {
	Apply(w *world.World) error
}

// Func adapts a function to the Change interface.
type Func func(w *world.World) error

func (f Func) Apply(w *world.World) error {
	return f(w)
}

// None leaves the world untouched.
func None() Change {
	return Func(func(*world.World) error { return nil })
}

type sequence []Change

// Sequence applies changes in order and stops at the first error.
// Callers needing all-or-nothing semantics apply it to a clone.
func Sequence(cs ...Change) Change {
	return sequence(cs)
}

func (s sequence) Apply(w *world.World) error {
	for _, c := range s {
		if c == nil {
			continue
		}
		if err := c.Apply(w); err != nil {
			return err
		}
	}
	return nil
}

// AssignItem rewrites the item's state. A character or scene referenced by
// state must exist.
func AssignItem(item string, state world.ItemState) Change {
	return Func(func(w *world.World) error {
		i, err := w.Item(item)
		if err != nil {
			return fmt.Errorf("assign item: %w", err)
		}
		if err := w.ValidateState(state); err != nil {
			return fmt.Errorf("assign item %s: %w", item, err)
		}
		i.State = state
		return nil
	})
}

// MoveCharacter sets the character's scene; "" removes it from every scene.
func MoveCharacter(character, scene string) Change {
	return Func(func(w *world.World) error {
		c, err := w.Character(character)
		if err != nil {
			return fmt.Errorf("move character: %w", err)
		}
		if scene != "" {
			if _, err := w.Scene(scene); err != nil {
				return fmt.Errorf("move character %s: %w", character, err)
			}
		}
		c.Scene = scene
		return nil
	})
}

// NextSceneDialog advances the scene's dialog cursor by exactly one.
// Running past the last line is left to the story author.
func NextSceneDialog(scene string) Change {
	return Func(func(w *world.World) error {
		s, err := w.Scene(scene)
		if err != nil {
			return fmt.Errorf("next dialog: %w", err)
		}
		if !s.HasDialog() {
			return fmt.Errorf("next dialog %s: %w", scene, world.ErrNoDialog)
		}
		*s.Dialog++
		return nil
	})
}

// UpdateExtension mutates the story extension of a character. It fails when
// the character has no extension of type T.
func UpdateExtension[T world.Extension](character string, update func(T)) Change {
	return Func(func(w *world.World) error {
		c, err := w.Character(character)
		if err != nil {
			return fmt.Errorf("update extension: %w", err)
		}
		ext, ok := c.Ext.(T)
		if !ok {
			return fmt.Errorf("update extension %s: unexpected extension type %T", character, c.Ext)
		}
		update(ext)
		return nil
	})
}
