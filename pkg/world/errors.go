package world

import (
	"errors"
	"fmt"
)

// EntityKind names the map an entity lives in.
type EntityKind string

const (
	KindCharacter EntityKind = "character"
	KindItem      EntityKind = "item"
	KindScene     EntityKind = "scene"
)

// ErrNoDialog is returned when a dialog operation targets a scene without a dialog cursor.
var ErrNoDialog = errors.New("scene has no dialog")

// NotFoundError reports a reference to an entity that is not registered in the world.
// It always indicates a story definition bug or untrusted input naming unknown entities.
type NotFoundError struct {
	Kind EntityKind
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// IsNotFound reports whether err wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
