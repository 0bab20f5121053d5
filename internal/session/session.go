// Package session runs story turns against persisted worlds.
//
// A turn loads the world, parses and checks the requested event, triggers it,
// stores the new dump and announces the change. Turns on the same world are
// serialized by a Locker.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jwebster45206/storyworld/internal/services/events"
	"github.com/jwebster45206/storyworld/pkg/event"
	"github.com/jwebster45206/storyworld/pkg/narrator"
	"github.com/jwebster45206/storyworld/pkg/storage"
	"github.com/jwebster45206/storyworld/pkg/stories"
	"github.com/jwebster45206/storyworld/pkg/world"
)

// ErrNotFound is returned for world ids without a stored record.
var ErrNotFound = errors.New("world not found")

// Publisher announces world changes. Failures are logged, never returned to
// the player: the world is already saved when publishing happens.
type Publisher interface {
	PublishTriggered(ctx context.Context, worldID uuid.UUID, t events.Triggered) error
	PublishReset(ctx context.Context, worldID uuid.UUID) error
	PublishDeleted(ctx context.Context, worldID uuid.UUID) error
}

// NopPublisher drops every message.
type NopPublisher struct{}

func (NopPublisher) PublishTriggered(context.Context, uuid.UUID, events.Triggered) error { return nil }
func (NopPublisher) PublishReset(context.Context, uuid.UUID) error                       { return nil }
func (NopPublisher) PublishDeleted(context.Context, uuid.UUID) error                     { return nil }

// Snapshot is the public view of a stored world.
type Snapshot struct {
	ID          uuid.UUID       `json:"id"`
	Story       string          `json:"story"`
	Lang        string          `json:"lang"`
	EventCount  uint64          `json:"event_count"`
	Finished    bool            `json:"finished"`
	Description string          `json:"description"`
	World       json.RawMessage `json:"world"`
}

// Offer is one event the narrator currently proposes.
type Offer struct {
	Event json.RawMessage `json:"event"`
	Text  string          `json:"text"`
}

// Outcome reports a turn. Triggered is false when the event's guard did not
// hold; Text is then the fail text and the world is unchanged.
type Outcome struct {
	Triggered bool            `json:"triggered"`
	Event     json.RawMessage `json:"event"`
	Text      string          `json:"text"`
	Snapshot  Snapshot        `json:"snapshot"`
}

// StoryInfo describes a bundled story.
type StoryInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

type Runner struct {
	store       storage.Storage
	publisher   Publisher
	locker      Locker
	logger      *slog.Logger
	defaultLang string
}

type Option func(*Runner)

// WithPublisher sets where world changes are announced.
func WithPublisher(p Publisher) Option {
	return func(r *Runner) { r.publisher = p }
}

// WithLocker replaces the in-process world lock.
func WithLocker(l Locker) Option {
	return func(r *Runner) { r.locker = l }
}

// WithDefaultLang sets the language of worlds created without one.
func WithDefaultLang(lang string) Option {
	return func(r *Runner) { r.defaultLang = lang }
}

func NewRunner(store storage.Storage, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		store:     store,
		publisher: NopPublisher{},
		locker:    NewLocalLocker(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stories lists the bundled stories with titles in lang.
func (r *Runner) Stories(lang string) []StoryInfo {
	if lang == "" {
		lang = r.defaultLang
	}
	all := stories.All()
	out := make([]StoryInfo, 0, len(all))
	for _, s := range all {
		out = append(out, StoryInfo{
			Name:  s.Name(),
			Title: s.Messages().Message("story-title", lang, nil),
		})
	}
	return out
}

// Create sets up a fresh world of the named story and stores it.
func (r *Runner) Create(ctx context.Context, storyName, lang string) (*Snapshot, error) {
	s, err := stories.Get(storyName)
	if err != nil {
		return nil, err
	}
	if lang == "" {
		lang = r.defaultLang
	}
	w, err := s.Setup(lang)
	if err != nil {
		return nil, fmt.Errorf("setup %s: %w", storyName, err)
	}
	if err := r.save(ctx, s, w); err != nil {
		return nil, err
	}
	r.logger.Info("World created", "world_id", w.ID, "story", storyName, "lang", w.Lang)
	return snapshot(s, w)
}

// Get returns the stored world.
func (r *Runner) Get(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	s, w, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return snapshot(s, w)
}

// Available returns the events the narrator offers on the stored world.
func (r *Runner) Available(ctx context.Context, id uuid.UUID) ([]Offer, error) {
	s, w, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	offered := s.Narrator().AvailableEvents(w)
	out := make([]Offer, 0, len(offered))
	for _, e := range offered {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("dump event %s: %w", e, err)
		}
		out = append(out, Offer{Event: data, Text: e.ActionText(w, s.Messages())})
	}
	return out, nil
}

// Trigger parses payload as an event of the world's story and triggers it.
// Parse failures wrap narrator.ErrUnknownEvent or narrator.ErrMalformedEvent.
// A guard that does not hold is not an error: the outcome carries the fail
// text and nothing is saved.
func (r *Runner) Trigger(ctx context.Context, id uuid.UUID, payload []byte) (*Outcome, error) {
	unlock, err := r.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, w, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	log := r.logger.With("world_id", id, "story", s.Name())

	e, err := s.Narrator().ParseEvent(w, payload)
	if err != nil {
		log.Debug("Rejected event payload", "error", err)
		return nil, err
	}
	dump, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("dump event %s: %w", e, err)
	}

	if err := e.Trigger(w); err != nil {
		if !errors.Is(err, event.ErrCannotTrigger) {
			log.Error("Event failed", "event", e.String(), "error", err)
			return nil, fmt.Errorf("trigger %s: %w", e, err)
		}
		snap, err := snapshot(s, w)
		if err != nil {
			return nil, err
		}
		return &Outcome{Event: dump, Text: e.FailText(w, s.Messages()), Snapshot: *snap}, nil
	}

	if err := r.save(ctx, s, w); err != nil {
		return nil, err
	}
	text := e.SuccessText(w, s.Messages())
	log.Info("Event triggered", "event", e.String(), "event_count", w.EventCount)

	if err := r.publisher.PublishTriggered(ctx, id, events.Triggered{Event: dump, EventCount: w.EventCount, Text: text}); err != nil {
		log.Warn("Failed to publish triggered event", "error", err)
	}

	snap, err := snapshot(s, w)
	if err != nil {
		return nil, err
	}
	return &Outcome{Triggered: true, Event: dump, Text: text, Snapshot: *snap}, nil
}

// Reset replaces the stored world with a fresh setup of its story, keeping
// the id and language.
func (r *Runner) Reset(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	unlock, err := r.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, old, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	w, err := s.Setup(old.Lang)
	if err != nil {
		return nil, fmt.Errorf("setup %s: %w", s.Name(), err)
	}
	w.ID = id
	if err := r.save(ctx, s, w); err != nil {
		return nil, err
	}
	r.logger.Info("World reset", "world_id", id, "story", s.Name())

	if err := r.publisher.PublishReset(ctx, id); err != nil {
		r.logger.Warn("Failed to publish reset", "world_id", id, "error", err)
	}
	return snapshot(s, w)
}

// Delete removes the stored world.
func (r *Runner) Delete(ctx context.Context, id uuid.UUID) error {
	unlock, err := r.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	rec, err := r.store.LoadWorld(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load world: %w", err)
	}
	if rec == nil {
		return ErrNotFound
	}
	if err := r.store.DeleteWorld(ctx, id); err != nil {
		return err
	}
	r.logger.Info("World deleted", "world_id", id)

	if err := r.publisher.PublishDeleted(ctx, id); err != nil {
		r.logger.Warn("Failed to publish delete", "world_id", id, "error", err)
	}
	return nil
}

// load rebuilds the stored world on a fresh setup of its story.
func (r *Runner) load(ctx context.Context, id uuid.UUID) (narrator.Story, *world.World, error) {
	rec, err := r.store.LoadWorld(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load world: %w", err)
	}
	if rec == nil {
		return nil, nil, ErrNotFound
	}
	s, err := stories.Get(rec.Story)
	if err != nil {
		return nil, nil, fmt.Errorf("world %s: %w", id, err)
	}
	w, err := s.Setup("")
	if err != nil {
		return nil, nil, fmt.Errorf("setup %s: %w", rec.Story, err)
	}
	if err := w.Load(rec.World); err != nil {
		return nil, nil, fmt.Errorf("world %s: %w", id, err)
	}
	w.ID = id
	return s, w, nil
}

func (r *Runner) save(ctx context.Context, s narrator.Story, w *world.World) error {
	data, err := w.Dump()
	if err != nil {
		return fmt.Errorf("dump world: %w", err)
	}
	return r.store.SaveWorld(ctx, w.ID, &storage.Record{Story: s.Name(), World: data})
}

func snapshot(s narrator.Story, w *world.World) (*Snapshot, error) {
	data, err := w.Dump()
	if err != nil {
		return nil, fmt.Errorf("dump world: %w", err)
	}
	return &Snapshot{
		ID:          w.ID,
		Story:       s.Name(),
		Lang:        w.Lang,
		EventCount:  w.EventCount,
		Finished:    s.Finished(w),
		Description: s.Description(w, w.Lang),
		World:       data,
	}, nil
}
