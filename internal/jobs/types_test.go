package jobs

import "testing"

func TestStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"not started to running", StatusNotStarted, StatusRunning, true},
		{"not started to cancelled", StatusNotStarted, StatusCancelled, true},
		{"not started to succeeded is illegal", StatusNotStarted, StatusSucceeded, false},
		{"running to succeeded", StatusRunning, StatusSucceeded, true},
		{"running to partially succeeded", StatusRunning, StatusPartiallySucceeded, true},
		{"running to failed", StatusRunning, StatusFailed, true},
		{"running to cancelled", StatusRunning, StatusCancelled, true},
		{"running back to not started is illegal", StatusRunning, StatusNotStarted, false},
		{"succeeded is terminal", StatusSucceeded, StatusRunning, false},
		{"failed is terminal", StatusFailed, StatusRunning, false},
		{"cancelled is terminal", StatusCancelled, StatusRunning, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.from.CanTransitionTo(tc.to)
			if got != tc.want {
				t.Fatalf("%s.CanTransitionTo(%s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	terminal := []Status{StatusSucceeded, StatusPartiallySucceeded, StatusFailed, StatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}

	nonTerminal := []Status{StatusNotStarted, StatusRunning}
	for _, s := range nonTerminal {
		if s.IsTerminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}
