// Package event implements guarded world transitions: an Event binds a
// condition, a world update and three text producers to a typed payload.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jwebster45206/storyworld/pkg/changes"
	"github.com/jwebster45206/storyworld/pkg/conditionals"
	"github.com/jwebster45206/storyworld/pkg/world"
)

// ErrCannotTrigger is returned by Trigger when the event's condition does not hold.
var ErrCannotTrigger = errors.New("event cannot be triggered")

// Event is one triggerable story transition.
// Events reference entities by name only and may outlive a world reload.
type Event struct {
	name      string
	data      Data
	roles     []string
	condition conditionals.Condition
	update    changes.Change
	texts     Texts
}

// Option customizes an event at construction time.
type Option func(*Event)

// WithCondition replaces the kind's default condition.
func WithCondition(c conditionals.Condition) Option {
	return func(e *Event) { e.condition = c }
}

// WithExtraCondition ANDs c after the current condition.
func WithExtraCondition(c conditionals.Condition) Option {
	return func(e *Event) { e.condition = conditionals.And(e.condition, c) }
}

// WithUpdate replaces the kind's default world update.
func WithUpdate(c changes.Change) Option {
	return func(e *Event) { e.update = c }
}

// WithExtraChange appends c after the current world update.
func WithExtraChange(c changes.Change) Option {
	return func(e *Event) { e.update = changes.Sequence(e.update, c) }
}

// WithRoles restricts the event to initiators carrying at least one of roles.
func WithRoles(roles ...string) Option {
	return func(e *Event) { e.roles = slices.Clone(roles) }
}

// WithTexts overrides every non-nil producer in t.
func WithTexts(t Texts) Option {
	return func(e *Event) {
		if t.Action != nil {
			e.texts.Action = t.Action
		}
		if t.Success != nil {
			e.texts.Success = t.Success
		}
		if t.Fail != nil {
			e.texts.Fail = t.Fail
		}
	}
}

func WithActionText(p TextProducer) Option  { return WithTexts(Texts{Action: p}) }
func WithSuccessText(p TextProducer) Option { return WithTexts(Texts{Success: p}) }
func WithFailText(p TextProducer) Option    { return WithTexts(Texts{Fail: p}) }

func newEvent(name string, data Data, cond conditionals.Condition, update changes.Change, opts []Option) *Event {
	e := &Event{
		name:      name,
		data:      data,
		condition: cond,
		update:    update,
		texts:     DefaultTexts(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewPick: the character takes an item lying in its scene.
func NewPick(name string, d PickData, opts ...Option) *Event {
	return newEvent(name, d,
		conditionals.SameScene([]string{d.Character}, []string{d.Item}),
		changes.AssignItem(d.Item, world.Owned(d.Character)),
		opts)
}

// NewGive: the item passes from one colocated character to the other.
func NewGive(name string, d GiveData, opts ...Option) *Event {
	return newEvent(name, d,
		conditionals.CanGive(d.FromCharacter, d.ToCharacter, d.Item),
		changes.AssignItem(d.Item, world.Owned(d.ToCharacter)),
		opts)
}

// NewUseItem: the character uses up an owned item.
func NewUseItem(name string, d UseItemData, opts ...Option) *Event {
	return newEvent(name, d,
		conditionals.HasItem(d.Character, d.Item),
		changes.AssignItem(d.Item, world.Unassigned()),
		opts)
}

// NewMove: the character goes to a scene it is not already in.
func NewMove(name string, d MoveData, opts ...Option) *Event {
	return newEvent(name, d,
		conditionals.Not(conditionals.CharacterInScene(d.Character, d.Scene)),
		changes.MoveCharacter(d.Character, d.Scene),
		opts)
}

// NewVoid: a story action with no default effect. With an item set the
// character must own it.
func NewVoid(name string, d VoidData, opts ...Option) *Event {
	cond := conditionals.Always()
	if d.Item != "" {
		cond = conditionals.HasItem(d.Character, d.Item)
	}
	return newEvent(name, d, cond, changes.None(), opts)
}

// NewTalk: the character in the scene says the line at the dialog cursor,
// advancing it.
func NewTalk(name string, d TalkData, opts ...Option) *Event {
	return newEvent(name, d,
		conditionals.And(
			conditionals.SceneDialog(d.Scene, d.Dialog),
			conditionals.CharacterInScene(d.Character, d.Scene),
		),
		changes.NextSceneDialog(d.Scene),
		opts)
}

func (e *Event) Name() string {
	return e.name
}

func (e *Event) Kind() Kind {
	return e.data.Kind()
}

func (e *Event) Data() Data {
	return e.data
}

func (e *Event) Initiator() string {
	return e.data.Initiator()
}

func (e *Event) Roles() []string {
	return slices.Clone(e.roles)
}

// Item returns the item the event targets, if any.
func (e *Event) Item() (string, bool) {
	switch d := e.data.(type) {
	case PickData:
		return d.Item, true
	case GiveData:
		return d.Item, true
	case UseItemData:
		return d.Item, true
	case VoidData:
		return d.Item, d.Item != ""
	default:
		return "", false
	}
}

// Scene returns the scene the event targets, if any.
func (e *Event) Scene() (string, bool) {
	switch d := e.data.(type) {
	case MoveData:
		return d.Scene, true
	case TalkData:
		return d.Scene, true
	default:
		return "", false
	}
}

// Condition returns the full guard, roles included.
func (e *Event) Condition() conditionals.Condition {
	if len(e.roles) == 0 {
		return e.condition
	}
	return conditionals.And(conditionals.CharacterHasTag(e.Initiator(), e.roles...), e.condition)
}

// Check evaluates the guard, reporting definition errors.
func (e *Event) Check(w *world.World) (bool, error) {
	return e.Condition().Evaluate(w)
}

// CanBeTriggered reports whether the guard holds. Errors count as false.
func (e *Event) CanBeTriggered(w *world.World) bool {
	ok, err := e.Check(w)
	return err == nil && ok
}

// Trigger re-checks the guard, applies the world update and increments the
// event counter. It returns ErrCannotTrigger when the guard does not hold.
// The update runs on a copy, so a failing change leaves w untouched.
func (e *Event) Trigger(w *world.World) error {
	ok, err := e.Check(w)
	if err != nil {
		return fmt.Errorf("event %s: %w", e.name, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrCannotTrigger, e.name)
	}

	next := w.Clone()
	if err := e.update.Apply(next); err != nil {
		return fmt.Errorf("trigger %s: %w", e.name, err)
	}
	next.EventCount++
	*w = *next
	return nil
}

// TranslationBase is the message-catalog key prefix for this event: the
// name followed by the payload fields, joined by "-".
func (e *Event) TranslationBase() string {
	return strings.Join(append([]string{e.name}, baseFields(e.data)...), "-")
}

// MarshalJSON dumps the event in wire form: {"name": ..., <data fields>}.
func (e *Event) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(e.data)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	name, err := json.Marshal(e.name)
	if err != nil {
		return nil, err
	}
	fields["name"] = name
	return json.Marshal(fields)
}

func (e *Event) String() string {
	return e.TranslationBase()
}
