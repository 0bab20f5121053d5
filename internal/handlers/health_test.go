package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jwebster45206/storyworld/internal/session"
	"github.com/jwebster45206/storyworld/pkg/storage"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name              string
		storageErr        error
		broadcastErr      error
		expectedStatus    int
		expectedHealth    string
		expectedStorage   string
		expectedBroadcast string
	}{
		{"all healthy", nil, nil, http.StatusOK, "healthy", "healthy", "healthy"},
		{"unhealthy storage", errors.New("connection failed"), nil, http.StatusServiceUnavailable, "degraded", "unhealthy", "healthy"},
		{"unhealthy broadcast", nil, errors.New("redis down"), http.StatusServiceUnavailable, "degraded", "healthy", "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMockStorage()
			store.SetPingError(tt.storageErr)
			handler := NewHealthHandler(store, testLogger()).
				WithComponent("broadcast", pingFunc(func(context.Context) error { return tt.broadcastErr }))

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
			if rr.Header().Get("Content-Type") != "application/json" {
				t.Errorf("Expected Content-Type application/json, got %s", rr.Header().Get("Content-Type"))
			}

			var response HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if response.Status != tt.expectedHealth {
				t.Errorf("Expected status %s, got %s", tt.expectedHealth, response.Status)
			}
			if response.Service != "storyworld" {
				t.Errorf("Expected service storyworld, got %s", response.Service)
			}
			if got := response.Components["storage"]; got != tt.expectedStorage {
				t.Errorf("Expected storage %s, got %s", tt.expectedStorage, got)
			}
			if got := response.Components["broadcast"]; got != tt.expectedBroadcast {
				t.Errorf("Expected broadcast %s, got %s", tt.expectedBroadcast, got)
			}
		})
	}
}

func TestStoriesHandler(t *testing.T) {
	runner := session.NewRunner(storage.NewMockStorage(), testLogger(), session.WithDefaultLang("en-US"))
	handler := NewStoriesHandler(runner, testLogger())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/stories?lang=cs", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var resp StoriesResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Stories) != 2 {
		t.Fatalf("Expected 2 stories, got %d", len(resp.Stories))
	}
	if resp.Stories[1].Name != "doll" || resp.Stories[1].Title != "Jak pejsek s kočičkou hledali panenku" {
		t.Errorf("Unexpected story %+v", resp.Stories[1])
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/stories", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rr.Code)
	}
}
