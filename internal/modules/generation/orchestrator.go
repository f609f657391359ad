// README: Progressive orchestrator: metadata, then one stage per city, then combine.
package generation

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"wander/internal/ai"
	"wander/internal/types"
)

// ProgressFunc receives progress snapshots. Calls must not block the
// pipeline; the registry satisfies this with a buffered dispatch channel.
type ProgressFunc func(Snapshot)

// Enricher fills in venue addresses after a city's itinerary is generated.
// Optional; a nil enricher disables the step entirely.
type Enricher interface {
	Address(ctx context.Context, venue, city string) (string, bool)
}

// Orchestrator runs one generation pipeline per call. It holds no per-job
// state; everything lives in the arguments and return value.
type Orchestrator struct {
	planner  ai.Planner
	enricher Enricher
}

func NewOrchestrator(planner ai.Planner, enricher Enricher) *Orchestrator {
	return &Orchestrator{planner: planner, enricher: enricher}
}

// Progress percentages: metadata lands at 20, cities interpolate linearly
// up to 80, the combined result is 100.
const (
	percentMetadata  = 20
	percentCitiesEnd = 80
)

// Run executes the three-stage pipeline. Cities are generated strictly in
// order because each city's start date and day index depend on the
// cumulative days of all previous cities. The context is checked before
// every upstream call so cancellation takes effect at the next stage
// boundary.
func (o *Orchestrator) Run(ctx context.Context, jobID types.ID, p Params, emit ProgressFunc) (*Itinerary, error) {
	emit(Snapshot{JobID: jobID, Stage: StageStarted, Percent: 0, UpdatedAt: time.Now()})

	meta, err := o.planner.GenerateTripMetadata(ctx, ai.MetadataRequest{
		Destinations: p.Destinations,
		StartDate:    p.StartDate,
		DatePhrase:   p.DatePhrase,
		TotalDays:    p.TotalDays,
		DaysPerCity:  p.DaysPerCity,
		Travelers:    p.Travelers,
		Preferences:  p.Preferences,
	})
	if err != nil {
		return nil, fmt.Errorf("trip metadata: %w", err)
	}

	startDate := p.StartDate
	if startDate == "" {
		startDate = meta.StartDate
	}
	start, err := types.ParseDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("unusable start date %q: %w", startDate, err)
	}

	emit(Snapshot{JobID: jobID, Stage: StageMetadataReady, Percent: percentMetadata, UpdatedAt: time.Now()})

	var allDays []ai.DayPlan
	current := start
	dayIndex := 1
	total := len(p.Destinations)

	for i, city := range p.Destinations {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("canceled before generating %s: %w", city, err)
		}

		allocated := p.DaysPerCity[i]
		cityIt, err := o.planner.GenerateCityItinerary(ctx, ai.CityRequest{
			City:          city,
			Days:          allocated,
			StartDate:     types.FormatDate(current),
			StartDayIndex: dayIndex,
			Travelers:     p.Travelers,
			Preferences:   p.Preferences,
		})
		if err != nil {
			return nil, fmt.Errorf("generating itinerary for %s: %w", city, err)
		}
		if len(cityIt.Days) != allocated {
			// Non-fatal: a slightly short itinerary beats failing the job.
			log.Printf("job %s: %s returned %d days, expected %d",
				jobID, city, len(cityIt.Days), allocated)
		}

		o.enrich(ctx, city, cityIt)
		allDays = append(allDays, cityIt.Days...)

		// Advance by the allocated count regardless of what came back, so
		// later cities keep their planned dates and indices.
		current = types.AddDays(current, allocated)
		dayIndex += allocated

		percent := percentMetadata + (percentCitiesEnd-percentMetadata)*(i+1)/total
		emit(Snapshot{
			JobID:      jobID,
			Stage:      StageGeneratingCity,
			Percent:    percent,
			City:       city,
			CitiesDone: i + 1,
			CityData:   cityIt,
			UpdatedAt:  time.Now(),
		})
	}

	emit(Snapshot{JobID: jobID, Stage: StageCombining, Percent: percentCitiesEnd, UpdatedAt: time.Now()})

	itinerary := o.combine(jobID, p, meta, start, allDays)
	emit(Snapshot{
		JobID:          jobID,
		Stage:          StageComplete,
		Percent:        100,
		CitiesDone:     total,
		FinalItinerary: itinerary,
		UpdatedAt:      time.Now(),
	})
	return itinerary, nil
}

// combine merges all city day lists into one ordered trip.
func (o *Orchestrator) combine(jobID types.ID, p Params, meta *ai.TripMetadata, start time.Time, days []ai.DayPlan) *Itinerary {
	sort.Slice(days, func(i, j int) bool { return days[i].DayIndex < days[j].DayIndex })

	for i := range days {
		if days[i].Title == "" {
			days[i].Title = fmt.Sprintf("Day %d", days[i].DayIndex)
		}
	}

	// The indices should form 1..TotalDays exactly; a hole means an upstream
	// day-count mismatch already logged above.
	for i := range days {
		if days[i].DayIndex != i+1 {
			log.Printf("job %s: combined itinerary has %d days with a gap at index %d (expected %d)",
				jobID, len(days), days[i].DayIndex, i+1)
			break
		}
	}

	return &Itinerary{
		Title:        meta.Title,
		Destinations: p.Destinations,
		StartDate:    types.FormatDate(start),
		EndDate:      types.FormatDate(types.AddDays(start, p.TotalDays-1)),
		TotalDays:    p.TotalDays,
		CostEstimate: meta.CostEstimate,
		Tips:         meta.Tips,
		Days:         days,
	}
}

// enrich backfills missing venue addresses. Lookup failures are ignored;
// enrichment is never worth failing a job over.
func (o *Orchestrator) enrich(ctx context.Context, city string, it *ai.CityItinerary) {
	if o.enricher == nil {
		return
	}
	for di := range it.Days {
		for j := range it.Days[di].Activities {
			act := &it.Days[di].Activities[j]
			if act.Venue == "" || act.Address != "" {
				continue
			}
			if addr, ok := o.enricher.Address(ctx, act.Venue, city); ok {
				act.Address = addr
			}
		}
	}
}
