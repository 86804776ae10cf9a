package rewire

import (
	"errors"
	"testing"
)

func TestStatusTracker_StartsIdle(t *testing.T) {
	var tracker statusTracker

	if tracker.status != StatusIdle {
		t.Errorf("Expected initial status idle, got %s", tracker.status)
	}
	if tracker.lastErr != nil {
		t.Errorf("Expected no initial error, got %v", tracker.lastErr)
	}
}

func TestStatusTracker_ValidTransitions(t *testing.T) {
	var tracker statusTracker

	if err := tracker.transition(StatusWaiting, nil); err != nil {
		t.Fatalf("Transition to waiting failed: %v", err)
	}
	if tracker.status != StatusWaiting {
		t.Errorf("Expected waiting, got %s", tracker.status)
	}

	if err := tracker.transition(StatusData, nil); err != nil {
		t.Fatalf("Transition to data failed: %v", err)
	}
	if tracker.status != StatusData || tracker.lastErr != nil {
		t.Errorf("Expected data with nil error, got %s / %v", tracker.status, tracker.lastErr)
	}

	cause := errors.New("boom")
	if err := tracker.transition(StatusError, cause); err != nil {
		t.Fatalf("Transition to error failed: %v", err)
	}
	if tracker.status != StatusError {
		t.Errorf("Expected error status, got %s", tracker.status)
	}
	if tracker.lastErr != cause {
		t.Errorf("Expected captured cause, got %v", tracker.lastErr)
	}

	// Re-entering data clears the captured error
	if err := tracker.transition(StatusData, nil); err != nil {
		t.Fatalf("Transition back to data failed: %v", err)
	}
	if tracker.lastErr != nil {
		t.Errorf("Expected error cleared on data, got %v", tracker.lastErr)
	}
}

func TestStatusTracker_ErrorRequiresCause(t *testing.T) {
	var tracker statusTracker

	err := tracker.transition(StatusError, nil)
	if err == nil {
		t.Fatal("Expected invalid transition for error without cause")
	}

	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected *InvalidTransitionError, got %T", err)
	}
	if tracker.status != StatusIdle {
		t.Errorf("Failed transition must not change status, got %s", tracker.status)
	}
}

func TestStatusTracker_NonErrorForbidsCause(t *testing.T) {
	var tracker statusTracker

	for _, target := range []AsyncStatus{StatusIdle, StatusWaiting, StatusData} {
		err := tracker.transition(target, errors.New("unexpected"))
		if err == nil {
			t.Errorf("Expected invalid transition for %s with cause", target)
		}
	}
}

func TestAsyncStatus_String(t *testing.T) {
	cases := map[AsyncStatus]string{
		StatusIdle:    "idle",
		StatusWaiting: "waiting",
		StatusData:    "data",
		StatusError:   "error",
	}

	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}
