package runner

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Special event values that trigger non-event actions
const (
	ResetWorldEvent = "RESET_WORLD"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name  string     `json:"name"`
	Story string     `json:"story,omitempty"` // Used for regular tests
	Lang  string     `json:"lang,omitempty"`  // Used for regular tests
	Steps []TestStep `json:"steps,omitempty"` // Used for regular tests
	Cases []string   `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single event and its expected outcomes
// Use event: "RESET_WORLD" to reset the world to the story's opening state
type TestStep struct {
	Name         string          `json:"name,omitempty"`
	Event        json.RawMessage `json:"event"`
	Expectations Expectations    `json:"expect"`
}

// IsReset reports whether the step resets the world instead of triggering.
func (s TestStep) IsReset() bool {
	var name string
	return json.Unmarshal(s.Event, &name) == nil && name == ResetWorldEvent
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// Outcome of the trigger request
	Triggered *bool `json:"triggered,omitempty"`
	// Status is the expected HTTP status when the payload is rejected
	Status int `json:"status,omitempty"`

	// World properties
	EventCount       *uint64           `json:"event_count,omitempty"`
	Finished         *bool             `json:"finished,omitempty"`
	CharacterScenes  map[string]string `json:"character_scenes,omitempty"` // "" means not placed
	ItemStates       map[string]string `json:"item_states,omitempty"`      // e.g. "Owned(kitie)", "InScene(garden)", "Unassigned"
	SceneDialogs     map[string]int    `json:"scene_dialogs,omitempty"`
	AvailableCount   *int              `json:"available_count,omitempty"`
	AvailableInclude []string          `json:"available_include,omitempty"` // action texts

	// Narration checks
	TextContains    []string `json:"text_contains,omitempty"`
	TextNotContains []string `json:"text_not_contains,omitempty"`
	TextRegex       string   `json:"text_regex,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName string
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
	Text     string
	IsReset  bool // True if this was a RESET_WORLD step (should not count toward pass/fail metrics)
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	World    uuid.UUID // ID of the world used for this test
}
