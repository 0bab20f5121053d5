package world

import (
	"encoding/json"
	"testing"
)

func TestItemState_JSON(t *testing.T) {
	tests := []struct {
		name     string
		state    ItemState
		expected string
	}{
		{name: "unassigned", state: Unassigned(), expected: `{"Unassigned":null}`},
		{name: "owned", state: Owned("kitie"), expected: `{"Owned":"kitie"}`},
		{name: "in scene", state: InScene("playground"), expected: `{"InScene":"playground"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.state)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if string(data) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, string(data))
			}

			var decoded ItemState
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if decoded != tt.state {
				t.Errorf("Expected %v, got %v", tt.state, decoded)
			}
		})
	}
}

func TestItemState_UnmarshalRejects(t *testing.T) {
	payloads := []string{
		`null`,
		`{}`,
		`{"Unassigned":1}`,
		`{"Owned":""}`,
		`{"Owned":3}`,
		`{"Lost":"x"}`,
		`"Unassigned"`,
		`{"Owned":"kitie","InScene":"home"}`,
	}
	for _, p := range payloads {
		var s ItemState
		if err := json.Unmarshal([]byte(p), &s); err == nil {
			t.Errorf("Expected error for %s, got state %v", p, s)
		}
	}
}

func TestItemState_Exclusive(t *testing.T) {
	states := []ItemState{Unassigned(), Owned("kitie"), InScene("kitie")}
	for _, s := range states {
		held := 0
		if s.IsUnassigned() {
			held++
		}
		if _, ok := s.Owner(); ok {
			held++
		}
		if _, ok := s.Scene(); ok {
			held++
		}
		if held != 1 {
			t.Errorf("State %v satisfies %d variants", s, held)
		}
	}

	if Owned("kitie") == InScene("kitie") {
		t.Error("Owned and InScene with the same name must differ")
	}
	if got := Owned("kitie").String(); got != "Owned(kitie)" {
		t.Errorf("Unexpected string %q", got)
	}
}
