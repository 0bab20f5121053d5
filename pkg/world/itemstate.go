package world

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StateKind enumerates the mutually exclusive places an item can be.
type StateKind int

const (
	StateUnassigned StateKind = iota
	StateOwned
	StateInScene
)

func (k StateKind) String() string {
	switch k {
	case StateOwned:
		return "Owned"
	case StateInScene:
		return "InScene"
	default:
		return "Unassigned"
	}
}

// ItemState is the current placement of an item. Values are built with
// Unassigned, Owned or InScene, so exactly one variant holds at any time.
// The zero value is Unassigned.
type ItemState struct {
	kind StateKind
	ref  string // character name for Owned, scene name for InScene
}

// Unassigned is the state of an item nobody holds and no scene contains
// (not yet introduced, or consumed).
func Unassigned() ItemState {
	return ItemState{}
}

// Owned is the state of an item carried by a character.
func Owned(character string) ItemState {
	return ItemState{kind: StateOwned, ref: character}
}

// InScene is the state of an item lying in a scene.
func InScene(scene string) ItemState {
	return ItemState{kind: StateInScene, ref: scene}
}

func (s ItemState) Kind() StateKind {
	return s.kind
}

// Owner returns the owning character when the item is Owned.
func (s ItemState) Owner() (string, bool) {
	if s.kind != StateOwned {
		return "", false
	}
	return s.ref, true
}

// Scene returns the scene when the item is InScene.
func (s ItemState) Scene() (string, bool) {
	if s.kind != StateInScene {
		return "", false
	}
	return s.ref, true
}

func (s ItemState) IsUnassigned() bool {
	return s.kind == StateUnassigned
}

func (s ItemState) String() string {
	if s.kind == StateUnassigned {
		return s.kind.String()
	}
	return fmt.Sprintf("%s(%s)", s.kind, s.ref)
}

// MarshalJSON encodes the state in tagged-enum form:
// {"Unassigned": null}, {"Owned": "<character>"} or {"InScene": "<scene>"}.
func (s ItemState) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case StateOwned, StateInScene:
		return json.Marshal(map[string]string{s.kind.String(): s.ref})
	default:
		return []byte(`{"Unassigned":null}`), nil
	}
}

// UnmarshalJSON accepts only the tagged-enum form with exactly one variant.
func (s *ItemState) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("item state: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("item state: expected exactly one variant, got %d", len(raw))
	}

	for key, value := range raw {
		switch key {
		case "Unassigned":
			if !bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
				return fmt.Errorf("item state: Unassigned takes no value, got %s", string(value))
			}
			*s = Unassigned()
		case "Owned", "InScene":
			var name string
			if err := json.Unmarshal(value, &name); err != nil {
				return fmt.Errorf("item state: %s: %w", key, err)
			}
			if name == "" {
				return fmt.Errorf("item state: %s requires a name", key)
			}
			if key == "Owned" {
				*s = Owned(name)
			} else {
				*s = InScene(name)
			}
		default:
			return fmt.Errorf("item state: unknown variant %q", key)
		}
	}
	return nil
}
