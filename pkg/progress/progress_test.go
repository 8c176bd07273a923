package progress

import (
	"errors"
	"sync"
	"testing"
)

func TestNewTracker(t *testing.T) {
	tests := []struct {
		name  string
		label string
		total int
	}{
		{name: "standard tracker", label: "Scanning files", total: 100},
		{name: "zero total", label: "Empty task", total: 0},
		{name: "single item", label: "One file", total: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(tt.label, tt.total)

			if tracker == nil {
				t.Fatal("NewTracker() returned nil")
			}
			if tracker.bar == nil {
				t.Error("tracker.bar should not be nil")
			}
			if tracker.label != tt.label {
				t.Errorf("tracker.label = %q, want %q", tracker.label, tt.label)
			}
		})
	}
}

func TestTrackerTickConcurrent(t *testing.T) {
	tracker := NewTracker("Concurrent", 100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Tick()
		}()
	}
	wg.Wait()
	tracker.FinishSuccess()
}

func TestTrackerFinishError(t *testing.T) {
	tracker := NewTracker("Failing", 10)
	tracker.Tick()
	tracker.FinishError(errors.New("backend went away"))
}
