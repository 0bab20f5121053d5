package narrator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/jwebster45206/storyworld/pkg/event"
	"github.com/jwebster45206/storyworld/pkg/world"
)

// Factory rebuilds an event from its wire payload. Factories return an
// error for payloads that decode but do not fit the alias, e.g. giving an
// item that is not food under a food-only alias.
type Factory func(w *world.World, payload []byte) (*event.Event, error)

// Registry maps wire aliases to factories. Stories build one at init time
// and use Parse as their ParseEvent.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds a factory for alias. Registering an alias twice panics,
// since it is a story definition bug.
func (r *Registry) Register(alias string, f Factory) *Registry {
	if _, exists := r.factories[alias]; exists {
		panic(fmt.Sprintf("narrator: alias %q registered twice", alias))
	}
	r.factories[alias] = f
	return r
}

// Aliases returns the registered aliases in sorted order.
func (r *Registry) Aliases() []string {
	out := make([]string, 0, len(r.factories))
	for alias := range r.factories {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

type envelope struct {
	Name string `json:"name"`
}

// Parse decodes the {"name": alias, ...fields} envelope and dispatches to the
// alias' factory. The result is never a partial event: either a fully
// validated event or ErrUnknownEvent / ErrMalformedEvent.
func (r *Registry) Parse(w *world.World, payload []byte) (*event.Event, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrMalformedEvent)
	}

	f, ok := r.factories[env.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, env.Name)
	}
	e, err := f(w, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedEvent, env.Name, err)
	}
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedEvent, env.Name)
	}
	return e, nil
}

// Decode strictly decodes the data fields of a payload into T. The "name"
// key is ignored, unknown keys are rejected and every field without
// omitempty must be present and not null. Referenced entities are validated
// against w.
func Decode[T event.Data](w *world.World, payload []byte) (T, error) {
	var data T

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return data, err
	}
	if fields == nil {
		return data, fmt.Errorf("expected an object")
	}
	delete(fields, "name")

	for _, key := range requiredKeys(reflect.TypeOf(data)) {
		v, ok := fields[key]
		if !ok || string(bytes.TrimSpace(v)) == "null" {
			return data, fmt.Errorf("%s is required", key)
		}
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return data, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&data); err != nil {
		return data, err
	}

	if err := data.Validate(w); err != nil {
		return data, err
	}
	return data, nil
}

func requiredKeys(t reflect.Type) []string {
	if t.Kind() != reflect.Struct {
		return nil
	}
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" || strings.Contains(opts, "omitempty") {
			continue
		}
		keys = append(keys, name)
	}
	return keys
}

// Bind adapts a typed constructor into a Factory that decodes T first.
func Bind[T event.Data](build func(w *world.World, d T) (*event.Event, error)) Factory {
	return func(w *world.World, payload []byte) (*event.Event, error) {
		d, err := Decode[T](w, payload)
		if err != nil {
			return nil, err
		}
		return build(w, d)
	}
}
