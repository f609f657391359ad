// README: Registry polling, cancellation, and concurrent-reader tests (run with -race).
package generation

import (
	"strings"
	"sync"
	"testing"
	"time"

	"wander/internal/types"
)

func pollUntilTerminal(t *testing.T, reg *Registry, jobID types.ID) Snapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := reg.Poll(jobID)
		if err != nil {
			t.Fatalf("poll: %v", err)
		}
		if snap.Stage.IsTerminal() {
			return snap
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal stage")
	return Snapshot{}
}

func TestStartAndPollToCompletion(t *testing.T) {
	reg := NewRegistry(NewOrchestrator(&fakePlanner{}, nil))

	jobID, err := reg.Start(Params{
		Destinations: []string{"London", "Brussels"},
		DaysPerCity:  []int{7, 7},
		TotalDays:    14,
		StartDate:    "2025-09-25",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	snap := pollUntilTerminal(t, reg, jobID)
	if snap.Stage != StageComplete {
		t.Fatalf("stage = %s (%s), want complete", snap.Stage, snap.Error)
	}
	if snap.Percent != 100 {
		t.Errorf("percent = %d, want 100", snap.Percent)
	}
	if snap.FinalItinerary == nil || len(snap.FinalItinerary.Days) != 14 {
		t.Fatalf("final itinerary missing or wrong length: %+v", snap.FinalItinerary)
	}
}

func TestFailedJobNamesCityAndCarriesNoItinerary(t *testing.T) {
	reg := NewRegistry(NewOrchestrator(&fakePlanner{failCity: "Brussels"}, nil))

	jobID, err := reg.Start(Params{
		Destinations: []string{"London", "Brussels"},
		DaysPerCity:  []int{7, 7},
		TotalDays:    14,
		StartDate:    "2025-09-25",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	snap := pollUntilTerminal(t, reg, jobID)
	if snap.Stage != StageError {
		t.Fatalf("stage = %s, want error", snap.Stage)
	}
	if !strings.Contains(snap.Error, "Brussels") {
		t.Errorf("error should name the failing city: %q", snap.Error)
	}
	if snap.FinalItinerary != nil {
		t.Error("failed job must not carry a final itinerary")
	}
}

func TestPollUnknownJob(t *testing.T) {
	reg := NewRegistry(NewOrchestrator(&fakePlanner{}, nil))
	if _, err := reg.Poll("nope"); err != ErrJobNotFound {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
	if err := reg.Cancel("nope"); err != ErrJobNotFound {
		t.Fatalf("cancel err = %v, want ErrJobNotFound", err)
	}
}

func TestStartRejectsBadParams(t *testing.T) {
	reg := NewRegistry(NewOrchestrator(&fakePlanner{}, nil))
	if _, err := reg.Start(Params{}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCancelRunningJob(t *testing.T) {
	// Slow city calls give us a window to cancel mid-pipeline.
	reg := NewRegistry(NewOrchestrator(&fakePlanner{callDelay: 200 * time.Millisecond}, nil))

	jobID, err := reg.Start(Params{
		Destinations: []string{"London", "Brussels", "Paris"},
		DaysPerCity:  []int{3, 3, 3},
		TotalDays:    9,
		StartDate:    "2025-09-25",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if err := reg.Cancel(jobID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	snap := pollUntilTerminal(t, reg, jobID)
	if snap.Stage != StageError {
		t.Fatalf("stage after cancel = %s, want error", snap.Stage)
	}
	if snap.Error != "generation cancelled" {
		t.Errorf("error = %q, want %q", snap.Error, "generation cancelled")
	}
	if snap.FinalItinerary != nil {
		t.Error("canceled job must not carry an itinerary")
	}

	// A second cancel reports the job already over.
	if err := reg.Cancel(jobID); err != ErrJobNotRunning {
		t.Fatalf("second cancel err = %v, want ErrJobNotRunning", err)
	}
}

func TestCancelFinishedJob(t *testing.T) {
	reg := NewRegistry(NewOrchestrator(&fakePlanner{}, nil))
	jobID, err := reg.Start(Params{
		Destinations: []string{"Lisbon"},
		DaysPerCity:  []int{2},
		TotalDays:    2,
		StartDate:    "2025-05-01",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	pollUntilTerminal(t, reg, jobID)

	if err := reg.Cancel(jobID); err != ErrJobNotRunning {
		t.Fatalf("cancel finished job err = %v, want ErrJobNotRunning", err)
	}
}

// Many pollers racing the single writer: run with -race. Every observed
// snapshot must be internally consistent and percentages must never move
// backwards for any single poller.
func TestConcurrentPollers(t *testing.T) {
	reg := NewRegistry(NewOrchestrator(&fakePlanner{callDelay: 5 * time.Millisecond}, nil))

	jobID, err := reg.Start(Params{
		Destinations: []string{"Rome", "Florence", "Venice", "Milan"},
		DaysPerCity:  []int{3, 3, 3, 3},
		TotalDays:    12,
		StartDate:    "2025-06-01",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	const pollers = 8
	var wg sync.WaitGroup
	errs := make(chan string, pollers)

	for i := 0; i < pollers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			last := -1
			for {
				snap, err := reg.Poll(jobID)
				if err != nil {
					errs <- err.Error()
					return
				}
				if snap.Percent < last {
					errs <- "percent went backwards"
					return
				}
				last = snap.Percent
				if snap.Stage == StageComplete {
					if snap.FinalItinerary == nil {
						errs <- "complete snapshot without itinerary"
					}
					return
				}
				if snap.Stage == StageError {
					errs <- "unexpected error stage: " + snap.Error
					return
				}
				time.Sleep(time.Millisecond)
			}
		}()
	}

	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
}
