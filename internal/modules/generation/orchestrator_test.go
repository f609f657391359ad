// README: Orchestrator pipeline tests with a scripted planner.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"wander/internal/ai"
	"wander/internal/types"
)

// fakePlanner scripts upstream behavior: per-city failures, short
// responses, and artificial latency.
type fakePlanner struct {
	mu         sync.Mutex
	cityCalls  []ai.CityRequest
	failCity   string
	shortCity  string // returns one day fewer than requested
	callDelay  time.Duration
	defaultDay string
}

func (f *fakePlanner) GenerateTripMetadata(_ context.Context, req ai.MetadataRequest) (*ai.TripMetadata, error) {
	start := req.StartDate
	if start == "" {
		start = f.defaultDay
	}
	if start == "" {
		start = "2025-09-25"
	}
	t, err := types.ParseDate(start)
	if err != nil {
		return nil, err
	}
	return &ai.TripMetadata{
		Title:        fmt.Sprintf("Trip to %s", strings.Join(req.Destinations, " and ")),
		Destinations: req.Destinations,
		StartDate:    start,
		EndDate:      types.FormatDate(types.AddDays(t, req.TotalDays-1)),
		TotalDays:    req.TotalDays,
		DaysPerCity:  req.DaysPerCity,
		CostEstimate: "$1000",
		Tips:         []string{"pack light"},
	}, nil
}

func (f *fakePlanner) GenerateCityItinerary(ctx context.Context, req ai.CityRequest) (*ai.CityItinerary, error) {
	if f.callDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.callDelay):
		}
	}

	f.mu.Lock()
	f.cityCalls = append(f.cityCalls, req)
	f.mu.Unlock()

	if req.City == f.failCity {
		return nil, errors.New("upstream exploded")
	}

	count := req.Days
	if req.City == f.shortCity && count > 1 {
		count--
	}

	start, err := types.ParseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	days := make([]ai.DayPlan, count)
	for d := 0; d < count; d++ {
		days[d] = ai.DayPlan{
			DayIndex: req.StartDayIndex + d,
			Date:     types.FormatDate(types.AddDays(start, d)),
			Title:    fmt.Sprintf("%s day %d", req.City, d+1),
			Activities: []ai.Activity{
				{Time: "09:00", Description: "morning walk", Category: "sightseeing", Venue: "Main Square"},
			},
		}
	}
	return &ai.CityItinerary{
		City:     req.City,
		StartDay: req.StartDayIndex,
		EndDay:   req.StartDayIndex + req.Days - 1,
		Days:     days,
	}, nil
}

func (f *fakePlanner) calls() []ai.CityRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ai.CityRequest(nil), f.cityCalls...)
}

func collectProgress() (ProgressFunc, *[]Snapshot) {
	var snaps []Snapshot
	return func(s Snapshot) { snaps = append(snaps, s) }, &snaps
}

func TestRunCarriesDatesAcrossCities(t *testing.T) {
	planner := &fakePlanner{}
	orch := NewOrchestrator(planner, nil)
	emit, _ := collectProgress()

	params := Params{
		Destinations: []string{"London", "Brussels"},
		DaysPerCity:  []int{7, 7},
		TotalDays:    14,
		StartDate:    "2025-09-25",
	}
	itinerary, err := orch.Run(context.Background(), "job1", params, emit)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	calls := planner.calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 city calls, got %d", len(calls))
	}
	if calls[0].City != "London" || calls[0].StartDayIndex != 1 || calls[0].StartDate != "2025-09-25" {
		t.Errorf("first call = %+v", calls[0])
	}
	// Brussels picks up exactly where London's allocation ends.
	if calls[1].City != "Brussels" || calls[1].StartDayIndex != 8 || calls[1].StartDate != "2025-10-02" {
		t.Errorf("second call = %+v", calls[1])
	}

	if len(itinerary.Days) != 14 {
		t.Fatalf("combined itinerary has %d days, want 14", len(itinerary.Days))
	}
	for i, d := range itinerary.Days {
		if d.DayIndex != i+1 {
			t.Fatalf("day %d has index %d: indices must be contiguous 1..14", i, d.DayIndex)
		}
	}
	if itinerary.EndDate != "2025-10-08" {
		t.Errorf("end date = %s, want 2025-10-08", itinerary.EndDate)
	}
}

func TestRunProgressIsMonotonicAndOrdered(t *testing.T) {
	planner := &fakePlanner{}
	orch := NewOrchestrator(planner, nil)
	emit, snaps := collectProgress()

	params := Params{
		Destinations: []string{"Rome", "Florence", "Venice"},
		DaysPerCity:  []int{4, 3, 3},
		TotalDays:    10,
		StartDate:    "2025-06-01",
	}
	if _, err := orch.Run(context.Background(), "job2", params, emit); err != nil {
		t.Fatalf("run: %v", err)
	}

	wantStages := []Stage{
		StageStarted, StageMetadataReady,
		StageGeneratingCity, StageGeneratingCity, StageGeneratingCity,
		StageCombining, StageComplete,
	}
	if len(*snaps) != len(wantStages) {
		t.Fatalf("got %d progress events, want %d", len(*snaps), len(wantStages))
	}
	last := -1
	for i, s := range *snaps {
		if s.Stage != wantStages[i] {
			t.Errorf("event %d stage = %s, want %s", i, s.Stage, wantStages[i])
		}
		if s.Percent < last {
			t.Errorf("percent went backwards at event %d: %d after %d", i, s.Percent, last)
		}
		last = s.Percent
	}
	final := (*snaps)[len(*snaps)-1]
	if final.Percent != 100 || final.FinalItinerary == nil {
		t.Fatalf("final event = %+v", final)
	}
}

func TestRunFailingCityAbortsAndNamesCity(t *testing.T) {
	planner := &fakePlanner{failCity: "Brussels"}
	orch := NewOrchestrator(planner, nil)
	emit, snaps := collectProgress()

	params := Params{
		Destinations: []string{"London", "Brussels"},
		DaysPerCity:  []int{7, 7},
		TotalDays:    14,
		StartDate:    "2025-09-25",
	}
	itinerary, err := orch.Run(context.Background(), "job3", params, emit)
	if err == nil {
		t.Fatal("expected an error")
	}
	if itinerary != nil {
		t.Fatal("no partial itinerary may be returned on failure")
	}
	if !strings.Contains(err.Error(), "Brussels") {
		t.Errorf("error should name the failing city: %v", err)
	}
	for _, s := range *snaps {
		if s.Stage == StageComplete || s.FinalItinerary != nil {
			t.Errorf("completion event emitted despite failure: %+v", s)
		}
	}
}

func TestRunDayCountMismatchIsNonFatal(t *testing.T) {
	planner := &fakePlanner{shortCity: "London"}
	orch := NewOrchestrator(planner, nil)
	emit, _ := collectProgress()

	params := Params{
		Destinations: []string{"London", "Brussels"},
		DaysPerCity:  []int{7, 7},
		TotalDays:    14,
		StartDate:    "2025-09-25",
	}
	itinerary, err := orch.Run(context.Background(), "job4", params, emit)
	if err != nil {
		t.Fatalf("mismatch must not fail the job: %v", err)
	}
	if len(itinerary.Days) != 13 {
		t.Fatalf("expected 13 days (one short), got %d", len(itinerary.Days))
	}
	// Brussels still starts at its planned slot even though London came back
	// short: advancement follows the allocation, not the actual day count.
	calls := planner.calls()
	if calls[1].StartDayIndex != 8 || calls[1].StartDate != "2025-10-02" {
		t.Errorf("second call = %+v", calls[1])
	}
}

type fixedEnricher struct{ addr string }

func (e fixedEnricher) Address(_ context.Context, venue, city string) (string, bool) {
	return e.addr, true
}

func TestRunEnrichesVenueAddresses(t *testing.T) {
	planner := &fakePlanner{}
	orch := NewOrchestrator(planner, fixedEnricher{addr: "1 Long Street"})
	emit, _ := collectProgress()

	params := Params{
		Destinations: []string{"Lisbon"},
		DaysPerCity:  []int{2},
		TotalDays:    2,
		StartDate:    "2025-05-01",
	}
	itinerary, err := orch.Run(context.Background(), "job5", params, emit)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, d := range itinerary.Days {
		for _, a := range d.Activities {
			if a.Venue != "" && a.Address != "1 Long Street" {
				t.Errorf("activity %q not enriched: address = %q", a.Venue, a.Address)
			}
		}
	}
}

func TestParamsValidate(t *testing.T) {
	valid := Params{
		Destinations: []string{"London", "Paris"},
		DaysPerCity:  []int{3, 2},
		TotalDays:    5,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}

	cases := []Params{
		{},
		{Destinations: []string{"London"}, DaysPerCity: []int{3}, TotalDays: 0},
		{Destinations: []string{"London"}, DaysPerCity: []int{3, 2}, TotalDays: 5},
		{Destinations: []string{"London", "Paris"}, DaysPerCity: []int{3, 3}, TotalDays: 5},
		{Destinations: []string{"London"}, DaysPerCity: []int{0}, TotalDays: 0},
		{Destinations: []string{"London"}, DaysPerCity: []int{3}, TotalDays: 3, StartDate: "soon"},
	}
	for i, p := range cases {
		if err := p.Validate(); err == nil {
			t.Errorf("case %d: expected validation error for %+v", i, p)
		}
	}
}
