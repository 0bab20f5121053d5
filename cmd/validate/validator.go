package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/storyworld/pkg/event"
	"github.com/jwebster45206/storyworld/pkg/narrator"
	"github.com/jwebster45206/storyworld/pkg/stories"
	"github.com/jwebster45206/storyworld/pkg/world"
)

// WorldValidator checks a world dump against a bundled story and optionally
// replays recorded events on it. Problems are collected, not returned one by one.
type WorldValidator struct {
	out    io.Writer
	errors []string
}

func (v *WorldValidator) validateFile(storyName, filename, eventsFile string) error {
	fmt.Fprintf(v.out, "Validating %s against story %s...\n", filename, storyName)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("world file must have .json extension: %s", baseName)
	}

	s, err := stories.Get(storyName)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	v.errors = nil

	w, err := s.Setup("")
	if err != nil {
		return fmt.Errorf("setup %s: %w", storyName, err)
	}
	if err := w.Load(data); err != nil {
		return fmt.Errorf("file %s does not load into story %s: %w", filename, storyName, err)
	}

	v.validateWorld(w)

	if eventsFile != "" {
		payloads, err := readEvents(eventsFile)
		if err != nil {
			return err
		}
		v.replay(s, w, payloads)
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	v.report(s, w)
	return nil
}

// validateWorld checks naming. Load has already rejected every dangling
// reference.
func (v *WorldValidator) validateWorld(w *world.World) {
	for _, name := range w.CharacterNames() {
		v.validateIDFormat("character", name)
	}
	for _, name := range w.SceneNames() {
		v.validateIDFormat("scene", name)
	}
	for _, name := range w.ItemNames() {
		v.validateIDFormat("item", name)
	}
}

// replay triggers payloads in order. A rejected event stops the replay,
// since every later event was recorded against the state it would have made.
func (v *WorldValidator) replay(s narrator.Story, w *world.World, payloads []json.RawMessage) {
	for i, payload := range payloads {
		e, err := s.Narrator().ParseEvent(w, payload)
		if err != nil {
			v.addError(fmt.Sprintf("event %d: %v", i+1, err))
			return
		}
		if err := e.Trigger(w); err != nil {
			if errors.Is(err, event.ErrCannotTrigger) {
				v.addError(fmt.Sprintf("event %d (%s) cannot be triggered: %s", i+1, e, e.FailText(w, s.Messages())))
			} else {
				v.addError(fmt.Sprintf("event %d: %v", i+1, err))
			}
			return
		}
		fmt.Fprintf(v.out, "  %d. %s\n", i+1, e.SuccessText(w, s.Messages()))
	}
}

func (v *WorldValidator) report(s narrator.Story, w *world.World) {
	fmt.Fprintf(v.out, "%s\n", s.Description(w, w.Lang))
	if s.Finished(w) {
		fmt.Fprintln(v.out, "The story is finished.")
		return
	}
	offered := s.Narrator().AvailableEvents(w)
	fmt.Fprintf(v.out, "%d events available:\n", len(offered))
	for _, e := range offered {
		fmt.Fprintf(v.out, "  - %s\n", e.ActionText(w, s.Messages()))
	}
}

func readEvents(filename string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	var payloads []json.RawMessage
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, fmt.Errorf("file %s must hold a JSON array of events: %w", filename, err)
	}
	return payloads, nil
}

func (v *WorldValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}
	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *WorldValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}
