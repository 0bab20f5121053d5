package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/jwebster45206/storyworld/internal/session"
	"github.com/jwebster45206/storyworld/pkg/storage"
)

// Backend plays one world at a time, either in-process or through the API.
type Backend interface {
	Stories(lang string) ([]session.StoryInfo, error)
	Create(story, lang string) (*session.Snapshot, error)
	Available() ([]session.Offer, error)
	Trigger(event json.RawMessage) (*session.Outcome, error)
	Reset() (*session.Snapshot, error)
}

// localBackend runs the session protocol against in-memory storage.
type localBackend struct {
	runner *session.Runner
	world  uuid.UUID
}

func newLocalBackend(logger *slog.Logger) *localBackend {
	return &localBackend{runner: session.NewRunner(storage.NewMockStorage(), logger)}
}

func (b *localBackend) Stories(lang string) ([]session.StoryInfo, error) {
	return b.runner.Stories(lang), nil
}

func (b *localBackend) Create(story, lang string) (*session.Snapshot, error) {
	snap, err := b.runner.Create(context.Background(), story, lang)
	if err != nil {
		return nil, err
	}
	b.world = snap.ID
	return snap, nil
}

func (b *localBackend) Available() ([]session.Offer, error) {
	return b.runner.Available(context.Background(), b.world)
}

func (b *localBackend) Trigger(event json.RawMessage) (*session.Outcome, error) {
	return b.runner.Trigger(context.Background(), b.world, event)
}

func (b *localBackend) Reset() (*session.Snapshot, error) {
	return b.runner.Reset(context.Background(), b.world)
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// remoteBackend talks to a running API server.
type remoteBackend struct {
	client  *http.Client
	baseURL string
	world   uuid.UUID
}

func newRemoteBackend(client *http.Client, baseURL string) *remoteBackend {
	return &remoteBackend{client: client, baseURL: baseURL}
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func (b *remoteBackend) Stories(lang string) ([]session.StoryInfo, error) {
	var resp struct {
		Stories []session.StoryInfo `json:"stories"`
	}
	if err := b.do(http.MethodGet, "/v1/stories?lang="+url.QueryEscape(lang), nil, http.StatusOK, &resp); err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return resp.Stories, nil
}

func (b *remoteBackend) Create(story, lang string) (*session.Snapshot, error) {
	body, err := json.Marshal(map[string]string{"story": story, "lang": lang})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	var snap session.Snapshot
	if err := b.do(http.MethodPost, "/v1/worlds", body, http.StatusCreated, &snap); err != nil {
		return nil, fmt.Errorf("failed to create world: %w", err)
	}
	b.world = snap.ID
	return &snap, nil
}

func (b *remoteBackend) Available() ([]session.Offer, error) {
	var resp struct {
		Events []session.Offer `json:"events"`
	}
	if err := b.do(http.MethodGet, b.worldPath("/events"), nil, http.StatusOK, &resp); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return resp.Events, nil
}

func (b *remoteBackend) Trigger(event json.RawMessage) (*session.Outcome, error) {
	var out session.Outcome
	if err := b.do(http.MethodPost, b.worldPath("/events"), event, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("failed to trigger event: %w", err)
	}
	return &out, nil
}

func (b *remoteBackend) Reset() (*session.Snapshot, error) {
	var snap session.Snapshot
	if err := b.do(http.MethodPost, b.worldPath("/reset"), nil, http.StatusOK, &snap); err != nil {
		return nil, fmt.Errorf("failed to reset world: %w", err)
	}
	return &snap, nil
}

func (b *remoteBackend) worldPath(suffix string) string {
	return "/v1/worlds/" + b.world.String() + suffix
}

func (b *remoteBackend) do(method, path string, body []byte, want int, out any) error {
	req, err := http.NewRequest(method, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != want {
		var errorResp ErrorResponse
		if err := json.Unmarshal(data, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
		}
		return errors.New(errorResp.Error)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
