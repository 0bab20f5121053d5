package event

import (
	"fmt"
	"strconv"

	"github.com/jwebster45206/storyworld/pkg/world"
)

// Kind is the generic event variant. Stories expose variants on the wire
// under their own aliases (e.g. "pick_ingredient" is a pick).
type Kind string

const (
	KindPick    Kind = "pick"
	KindGive    Kind = "give"
	KindUseItem Kind = "use_item"
	KindMove    Kind = "move"
	KindVoid    Kind = "void"
	KindTalk    Kind = "talk"
)

// Data is the serializable payload of an event. It is a closed sum type:
// only the *Data structs in this package implement it, so a type switch over
// Data is exhaustive.
type Data interface {
	Kind() Kind
	// Initiator is the character performing the event.
	Initiator() string
	// Validate checks that every referenced entity exists in w.
	Validate(w *world.World) error

	refs() []ref
}

type ref struct {
	field string
	kind  world.EntityKind
	name  string
}

// PickData: a character takes an item from its current scene.
type PickData struct {
	Character string `json:"character"`
	Item      string `json:"item"`
}

func (d PickData) Kind() Kind                    { return KindPick }
func (d PickData) Initiator() string             { return d.Character }
func (d PickData) Validate(w *world.World) error { return validateRefs(w, d.refs()) }
func (d PickData) refs() []ref {
	return []ref{
		{field: "character", kind: world.KindCharacter, name: d.Character},
		{field: "item", kind: world.KindItem, name: d.Item},
	}
}

// GiveData: ownership of an item passes between two colocated characters.
type GiveData struct {
	FromCharacter string `json:"from_character"`
	ToCharacter   string `json:"to_character"`
	Item          string `json:"item"`
}

func (d GiveData) Kind() Kind        { return KindGive }
func (d GiveData) Initiator() string { return d.FromCharacter }
func (d GiveData) Validate(w *world.World) error {
	if d.FromCharacter == d.ToCharacter {
		return fmt.Errorf("give: %s cannot give to itself", d.FromCharacter)
	}
	return validateRefs(w, d.refs())
}
func (d GiveData) refs() []ref {
	return []ref{
		{field: "from_character", kind: world.KindCharacter, name: d.FromCharacter},
		{field: "to_character", kind: world.KindCharacter, name: d.ToCharacter},
		{field: "item", kind: world.KindItem, name: d.Item},
	}
}

// UseItemData: a character uses up or transforms an owned item.
type UseItemData struct {
	Character string `json:"character"`
	Item      string `json:"item"`
}

func (d UseItemData) Kind() Kind                    { return KindUseItem }
func (d UseItemData) Initiator() string             { return d.Character }
func (d UseItemData) Validate(w *world.World) error { return validateRefs(w, d.refs()) }
func (d UseItemData) refs() []ref {
	return []ref{
		{field: "character", kind: world.KindCharacter, name: d.Character},
		{field: "item", kind: world.KindItem, name: d.Item},
	}
}

// MoveData: a character goes to another scene.
type MoveData struct {
	Character string `json:"character"`
	Scene     string `json:"scene"`
}

func (d MoveData) Kind() Kind                    { return KindMove }
func (d MoveData) Initiator() string             { return d.Character }
func (d MoveData) Validate(w *world.World) error { return validateRefs(w, d.refs()) }
func (d MoveData) refs() []ref {
	return []ref{
		{field: "character", kind: world.KindCharacter, name: d.Character},
		{field: "scene", kind: world.KindScene, name: d.Scene},
	}
}

// VoidData: a parametrized story action, optionally tied to an item.
type VoidData struct {
	Character string `json:"character"`
	Item      string `json:"item,omitempty"`
}

func (d VoidData) Kind() Kind                    { return KindVoid }
func (d VoidData) Initiator() string             { return d.Character }
func (d VoidData) Validate(w *world.World) error { return validateRefs(w, d.refs()) }
func (d VoidData) refs() []ref {
	refs := []ref{{field: "character", kind: world.KindCharacter, name: d.Character}}
	if d.Item != "" {
		refs = append(refs, ref{field: "item", kind: world.KindItem, name: d.Item})
	}
	return refs
}

// TalkData: a character says the scene's dialog line at index Dialog.
type TalkData struct {
	Character string `json:"character"`
	Scene     string `json:"scene"`
	Dialog    int    `json:"dialog"`
}

func (d TalkData) Kind() Kind        { return KindTalk }
func (d TalkData) Initiator() string { return d.Character }
func (d TalkData) Validate(w *world.World) error {
	if d.Dialog < 0 {
		return fmt.Errorf("talk: negative dialog index %d", d.Dialog)
	}
	return validateRefs(w, d.refs())
}
func (d TalkData) refs() []ref {
	return []ref{
		{field: "character", kind: world.KindCharacter, name: d.Character},
		{field: "scene", kind: world.KindScene, name: d.Scene},
	}
}

func validateRefs(w *world.World, refs []ref) error {
	for _, r := range refs {
		if r.name == "" {
			return fmt.Errorf("%s is required", r.field)
		}
		var err error
		switch r.kind {
		case world.KindCharacter:
			_, err = w.Character(r.name)
		case world.KindItem:
			_, err = w.Item(r.name)
		case world.KindScene:
			_, err = w.Scene(r.name)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", r.field, err)
		}
	}
	return nil
}

// baseFields lists the values that make up the translation base, in field order.
func baseFields(d Data) []string {
	refs := d.refs()
	fields := make([]string, 0, len(refs)+1)
	for _, r := range refs {
		fields = append(fields, r.name)
	}
	if talk, ok := d.(TalkData); ok {
		fields = append(fields, strconv.Itoa(talk.Dialog))
	}
	return fields
}
