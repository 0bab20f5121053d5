package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/storyworld/internal/session"
	"github.com/jwebster45206/storyworld/pkg/world"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running storyworld API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
	LangOverride      string // If set, overrides the language for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite on a fresh world
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	lang := suite.Lang
	if r.LangOverride != "" {
		lang = r.LangOverride
	}
	snap, err := r.createWorld(ctx, suite.Story, lang)
	if err != nil {
		result.Error = fmt.Errorf("failed to create world: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.World = snap.ID

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.executeStep(ctx, snap.ID, step)
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// executeStep triggers one event (or resets) and checks expectations
func (r *Runner) executeStep(ctx context.Context, worldID uuid.UUID, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{
		StepName: step.Name,
	}
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var (
		snap    *session.Snapshot
		outcome *session.Outcome
		err     error
	)
	if step.IsReset() {
		result.IsReset = true
		result.Text = "[WORLD RESET]"
		snap, err = r.resetWorld(ctx, worldID)
	} else {
		var status int
		outcome, status, err = r.trigger(ctx, worldID, step.Event)
		if err == nil && status != http.StatusOK {
			if step.Expectations.Status == status {
				result.Success = true
				result.Duration = time.Since(start)
				return result
			}
			err = fmt.Errorf("trigger returned status %d", status)
		} else if err == nil && step.Expectations.Status != 0 {
			err = fmt.Errorf("expected status %d, got %d", step.Expectations.Status, status)
		}
		if outcome != nil {
			snap = &outcome.Snapshot
			result.Text = outcome.Text
		}
	}
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	var offers []session.Offer
	if step.Expectations.AvailableCount != nil || len(step.Expectations.AvailableInclude) > 0 {
		offers, err = r.available(ctx, worldID)
		if err != nil {
			result.Error = fmt.Errorf("failed to list events: %w", err)
			result.Duration = time.Since(start)
			return result
		}
	}

	if err := checkExpectations(step.Expectations, snap, outcome, offers); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

func (r *Runner) createWorld(ctx context.Context, story, lang string) (*session.Snapshot, error) {
	body, err := json.Marshal(map[string]string{"story": story, "lang": lang})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal create request: %w", err)
	}
	var snap session.Snapshot
	status, err := r.do(ctx, http.MethodPost, "/v1/worlds", body, &snap)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated {
		return nil, fmt.Errorf("create world returned %d", status)
	}
	return &snap, nil
}

func (r *Runner) resetWorld(ctx context.Context, id uuid.UUID) (*session.Snapshot, error) {
	var snap session.Snapshot
	status, err := r.do(ctx, http.MethodPost, "/v1/worlds/"+id.String()+"/reset", nil, &snap)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("reset world returned %d", status)
	}
	return &snap, nil
}

// trigger posts an event. A non-200 status is reported, not treated as an error.
func (r *Runner) trigger(ctx context.Context, id uuid.UUID, event json.RawMessage) (*session.Outcome, int, error) {
	var out session.Outcome
	status, err := r.do(ctx, http.MethodPost, "/v1/worlds/"+id.String()+"/events", event, &out)
	if err != nil || status != http.StatusOK {
		return nil, status, err
	}
	return &out, status, nil
}

func (r *Runner) available(ctx context.Context, id uuid.UUID) ([]session.Offer, error) {
	var resp struct {
		Events []session.Offer `json:"events"`
	}
	status, err := r.do(ctx, http.MethodGet, "/v1/worlds/"+id.String()+"/events", nil, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list events returned %d", status)
	}
	return resp.Events, nil
}

// do sends a request and decodes a 2xx body into out.
func (r *Runner) do(ctx context.Context, method, path string, body []byte, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute %s request: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

// worldView is the part of a world dump the expectations look at.
type worldView struct {
	Characters map[string]struct {
		Scene *string `json:"scene"`
	} `json:"characters"`
	Items map[string]struct {
		State world.ItemState `json:"state"`
	} `json:"items"`
	Scenes map[string]struct {
		Dialog *int `json:"dialog"`
	} `json:"scenes"`
}

// checkExpectations validates the test expectations against the world after the step
func checkExpectations(exp Expectations, snap *session.Snapshot, outcome *session.Outcome, offers []session.Offer) error {
	if exp.Triggered != nil {
		if outcome == nil {
			return fmt.Errorf("expected triggered to be %t, but no event was sent", *exp.Triggered)
		}
		if outcome.Triggered != *exp.Triggered {
			return fmt.Errorf("expected triggered to be %t, got %t (%s)", *exp.Triggered, outcome.Triggered, outcome.Text)
		}
	}

	if exp.EventCount != nil && snap.EventCount != *exp.EventCount {
		return fmt.Errorf("expected event_count to be %d, got %d", *exp.EventCount, snap.EventCount)
	}

	if exp.Finished != nil && snap.Finished != *exp.Finished {
		return fmt.Errorf("expected finished to be %t, got %t", *exp.Finished, snap.Finished)
	}

	if len(exp.CharacterScenes) > 0 || len(exp.ItemStates) > 0 || len(exp.SceneDialogs) > 0 {
		var view worldView
		if err := json.Unmarshal(snap.World, &view); err != nil {
			return fmt.Errorf("failed to decode world: %w", err)
		}

		for name, want := range exp.CharacterScenes {
			c, ok := view.Characters[name]
			if !ok {
				return fmt.Errorf("expected character %s to exist, but it doesn't", name)
			}
			got := ""
			if c.Scene != nil {
				got = *c.Scene
			}
			if got != want {
				return fmt.Errorf("expected character %s to be in %q, got %q", name, want, got)
			}
		}

		for name, want := range exp.ItemStates {
			item, ok := view.Items[name]
			if !ok {
				return fmt.Errorf("expected item %s to exist, but it doesn't", name)
			}
			if item.State.String() != want {
				return fmt.Errorf("expected item %s to be %s, got %s", name, want, item.State)
			}
		}

		for name, want := range exp.SceneDialogs {
			s, ok := view.Scenes[name]
			if !ok || s.Dialog == nil {
				return fmt.Errorf("expected scene %s to have a dialog cursor", name)
			}
			if *s.Dialog != want {
				return fmt.Errorf("expected scene %s dialog to be %d, got %d", name, want, *s.Dialog)
			}
		}
	}

	if exp.AvailableCount != nil && len(offers) != *exp.AvailableCount {
		return fmt.Errorf("expected %d available events, got %d", *exp.AvailableCount, len(offers))
	}
	if len(exp.AvailableInclude) > 0 {
		texts := make([]string, 0, len(offers))
		for _, o := range offers {
			texts = append(texts, o.Text)
		}
		for _, want := range exp.AvailableInclude {
			if !slices.Contains(texts, want) {
				return fmt.Errorf("expected available events to include %q, got %v", want, texts)
			}
		}
	}

	text := ""
	if outcome != nil {
		text = outcome.Text
	}
	lowerText := strings.ToLower(text)
	for _, want := range exp.TextContains {
		if !strings.Contains(lowerText, strings.ToLower(want)) {
			return fmt.Errorf("expected text to contain '%s', got %q", want, text)
		}
	}
	for _, unwanted := range exp.TextNotContains {
		if strings.Contains(lowerText, strings.ToLower(unwanted)) {
			return fmt.Errorf("expected text to NOT contain '%s', got %q", unwanted, text)
		}
	}

	if exp.TextRegex != "" {
		matched, err := regexp.MatchString(exp.TextRegex, text)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		if !matched {
			return fmt.Errorf("text didn't match regex pattern: %s", exp.TextRegex)
		}
	}

	return nil
}
