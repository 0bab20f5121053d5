package event

import (
	"strconv"
	"strings"

	"github.com/jwebster45206/storyworld/pkg/world"
)

// Messages is the message-catalog collaborator. Message returns the
// localized text for key, or key itself when the catalog has no entry.
type Messages interface {
	Message(key, lang string, args map[string]string) string
}

// KeyMessages is a Messages that knows no entries; every lookup yields its key.
type KeyMessages struct{}

func (KeyMessages) Message(key, _ string, _ map[string]string) string {
	return key
}

// TextProducer renders one of the event's texts.
type TextProducer func(e *Event, w *world.World, m Messages) string

// Texts groups the producers for the text shown before triggering (Action),
// after a successful trigger (Success) and when the guard does not hold (Fail).
type Texts struct {
	Action  TextProducer
	Success TextProducer
	Fail    TextProducer
}

// Text suffixes appended to the translation base.
const (
	SuffixAction  = "action"
	SuffixSuccess = "success"
	SuffixFail    = "fail"
)

// DefaultTexts looks up "<translation base>-<suffix>" for each text.
func DefaultTexts() Texts {
	return Texts{
		Action:  CatalogText(SuffixAction),
		Success: CatalogText(SuffixSuccess),
		Fail:    CatalogText(SuffixFail),
	}
}

// CatalogText produces text from the catalog entry for the event's
// translation base and suffix, see Lookup.
func CatalogText(suffix string) TextProducer {
	return func(e *Event, w *world.World, m Messages) string {
		return Lookup(m, w.Lang, e.TranslationBase(), suffix, e.TextArgs(w, m))
	}
}

// Lookup resolves "<base>-<suffix>", dropping trailing "-" segments of base
// until the catalog has an entry. With base "pick-kitie-sand_cake" it tries
// "pick-kitie-sand_cake-<suffix>", "pick-kitie-<suffix>", "pick-<suffix>".
// When nothing matches the shortest key is returned.
func Lookup(m Messages, lang, base, suffix string, args map[string]string) string {
	if m == nil {
		m = KeyMessages{}
	}
	parts := strings.Split(base, "-")
	for n := len(parts); n >= 1; n-- {
		key := strings.Join(parts[:n], "-") + "-" + suffix
		if msg := m.Message(key, lang, args); msg != key {
			return msg
		}
	}
	return parts[0] + "-" + suffix
}

// ActionText is shown when the event is offered.
func (e *Event) ActionText(w *world.World, m Messages) string {
	return e.texts.Action(e, w, m)
}

// SuccessText is shown after a successful trigger.
func (e *Event) SuccessText(w *world.World, m Messages) string {
	return e.texts.Success(e, w, m)
}

// FailText is shown when the event is requested while its guard does not hold.
func (e *Event) FailText(w *world.World, m Messages) string {
	return e.texts.Fail(e, w, m)
}

// TextArgs returns the message arguments for the event: every payload field
// with its localized entity name (catalog key "<kind>-<name>") plus the raw
// name under "<field>_id".
func (e *Event) TextArgs(w *world.World, m Messages) map[string]string {
	if m == nil {
		m = KeyMessages{}
	}
	lang := world.DefaultLang
	if w != nil && w.Lang != "" {
		lang = w.Lang
	}

	args := map[string]string{"event": e.name}
	for _, r := range e.data.refs() {
		key := string(r.kind) + "-" + r.name
		localized := m.Message(key, lang, nil)
		if localized == key {
			localized = r.name
		}
		args[r.field] = localized
		args[r.field+"_id"] = r.name
	}
	if talk, ok := e.data.(TalkData); ok {
		args["dialog"] = strconv.Itoa(talk.Dialog)
	}
	return args
}
