// Package stories lists the bundled stories.
package stories

import (
	"errors"
	"fmt"

	"github.com/jwebster45206/storyworld/pkg/narrator"
	"github.com/jwebster45206/storyworld/pkg/stories/cake"
	"github.com/jwebster45206/storyworld/pkg/stories/doll"
)

// ErrUnknownStory is returned by Get for names no bundled story uses.
var ErrUnknownStory = errors.New("unknown story")

var bundled = []narrator.Story{
	cake.New(),
	doll.New(),
}

// All returns the bundled stories in display order.
func All() []narrator.Story {
	out := make([]narrator.Story, len(bundled))
	copy(out, bundled)
	return out
}

// Get returns the story called name.
func Get(name string) (narrator.Story, error) {
	for _, s := range bundled {
		if s.Name() == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownStory, name)
}

// Names returns the bundled story names in display order.
func Names() []string {
	names := make([]string, len(bundled))
	for i, s := range bundled {
		names[i] = s.Name()
	}
	return names
}
