package world

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type dumpDoc struct {
	ID         uuid.UUID                  `json:"id"`
	Lang       string                     `json:"lang"`
	Characters map[string]json.RawMessage `json:"characters"`
	Items      map[string]itemDoc         `json:"items"`
	Scenes     map[string]sceneDoc        `json:"scenes"`
	EventCount uint64                     `json:"event_count"`
}

// loadDoc mirrors dumpDoc with optional top-level fields.
type loadDoc struct {
	ID         *uuid.UUID                 `json:"id,omitempty"`
	Lang       *string                    `json:"lang,omitempty"`
	Characters map[string]json.RawMessage `json:"characters"`
	Items      map[string]json.RawMessage `json:"items"`
	Scenes     map[string]json.RawMessage `json:"scenes"`
	EventCount *uint64                    `json:"event_count,omitempty"`
}

type itemDoc struct {
	Name  string     `json:"name"`
	State *ItemState `json:"state"`
}

type sceneDoc struct {
	Name   string `json:"name"`
	Dialog *int   `json:"dialog,omitempty"`
}

// Dump serializes the world for persistence and network sync.
func (w *World) Dump() ([]byte, error) {
	doc := dumpDoc{
		ID:         w.ID,
		Lang:       w.Lang,
		Characters: make(map[string]json.RawMessage, len(w.Characters)),
		Items:      make(map[string]itemDoc, len(w.Items)),
		Scenes:     make(map[string]sceneDoc, len(w.Scenes)),
		EventCount: w.EventCount,
	}

	for name, c := range w.Characters {
		raw, err := dumpCharacter(c)
		if err != nil {
			return nil, fmt.Errorf("dump character %s: %w", name, err)
		}
		doc.Characters[name] = raw
	}
	for name, i := range w.Items {
		state := i.State
		doc.Items[name] = itemDoc{Name: name, State: &state}
	}
	for name, s := range w.Scenes {
		sd := sceneDoc{Name: name}
		if s.Dialog != nil {
			d := *s.Dialog
			sd.Dialog = &d
		}
		doc.Scenes[name] = sd
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal world: %w", err)
	}
	return data, nil
}

func dumpCharacter(c *Character) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if c.Ext != nil {
		ext, err := json.Marshal(c.Ext)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(ext, &fields); err != nil {
			return nil, fmt.Errorf("extension must encode as an object: %w", err)
		}
	}

	name, _ := json.Marshal(c.Name)
	fields["name"] = name
	if c.Scene == "" {
		fields["scene"] = json.RawMessage("null")
	} else {
		scene, _ := json.Marshal(c.Scene)
		fields["scene"] = scene
	}
	return json.Marshal(fields)
}

// Load applies a dump onto this world. Every entity key and every reference
// must already exist in the world's static maps, otherwise Load fails with a
// *NotFoundError naming the missing entity. Load is all-or-nothing: the dump
// is applied to a copy which replaces the world only on success. Entities
// absent from the dump keep their current state.
func (w *World) Load(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return fmt.Errorf("failed to decode world: expected an object")
	}
	var doc loadDoc
	if err := decodeStrict(data, &doc); err != nil {
		return fmt.Errorf("failed to decode world: %w", err)
	}

	next := w.Clone()

	for name, raw := range doc.Characters {
		c, err := next.Character(name)
		if err != nil {
			return err
		}
		if err := next.loadCharacter(c, raw); err != nil {
			return fmt.Errorf("load character %s: %w", name, err)
		}
	}

	for name, raw := range doc.Items {
		i, err := next.Item(name)
		if err != nil {
			return err
		}
		var id itemDoc
		if err := decodeStrict(raw, &id); err != nil {
			return fmt.Errorf("load item %s: %w", name, err)
		}
		if id.Name != "" && id.Name != name {
			return fmt.Errorf("load item %s: name mismatch %q", name, id.Name)
		}
		if id.State == nil {
			return fmt.Errorf("load item %s: missing state", name)
		}
		if err := next.ValidateState(*id.State); err != nil {
			return err
		}
		i.State = *id.State
	}

	for name, raw := range doc.Scenes {
		s, err := next.Scene(name)
		if err != nil {
			return err
		}
		var sd sceneDoc
		if err := decodeStrict(raw, &sd); err != nil {
			return fmt.Errorf("load scene %s: %w", name, err)
		}
		if sd.Name != "" && sd.Name != name {
			return fmt.Errorf("load scene %s: name mismatch %q", name, sd.Name)
		}
		if sd.Dialog != nil {
			if !s.HasDialog() {
				return fmt.Errorf("load scene %s: %w", name, ErrNoDialog)
			}
			if *sd.Dialog < 0 {
				return fmt.Errorf("load scene %s: negative dialog %d", name, *sd.Dialog)
			}
			d := *sd.Dialog
			s.Dialog = &d
		}
	}

	if doc.ID != nil {
		next.ID = *doc.ID
	}
	if doc.Lang != nil && *doc.Lang != "" {
		next.Lang = *doc.Lang
	}
	if doc.EventCount != nil {
		next.EventCount = *doc.EventCount
	}

	*w = *next
	return nil
}

func (w *World) loadCharacter(c *Character, raw json.RawMessage) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("expected an object")
	}

	if rawName, ok := fields["name"]; ok {
		var name string
		if err := json.Unmarshal(rawName, &name); err != nil {
			return fmt.Errorf("name: %w", err)
		}
		if name != c.Name {
			return fmt.Errorf("name mismatch %q", name)
		}
	}

	if rawScene, ok := fields["scene"]; ok {
		var scene *string
		if err := json.Unmarshal(rawScene, &scene); err != nil {
			return fmt.Errorf("scene: %w", err)
		}
		if scene == nil || *scene == "" {
			c.Scene = ""
		} else {
			if _, err := w.Scene(*scene); err != nil {
				return err
			}
			c.Scene = *scene
		}
	}

	delete(fields, "name")
	delete(fields, "scene")
	if c.Ext == nil {
		for key := range fields {
			return fmt.Errorf("unknown field %q", key)
		}
		return nil
	}
	rest, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	ext := c.Ext.Clone()
	if err := decodeStrict(rest, ext); err != nil {
		return fmt.Errorf("extension: %w", err)
	}
	c.Ext = ext
	return nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected trailing data")
	}
	return nil
}
