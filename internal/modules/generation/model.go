// README: Generation job model: stages, parameters, and poll snapshots.
package generation

import (
	"errors"
	"fmt"
	"time"

	"wander/internal/ai"
	"wander/internal/types"
)

// Stage is the orchestrator's position in the pipeline. Poll responses carry
// it verbatim.
type Stage string

const (
	StageStarted        Stage = "started"
	StageMetadataReady  Stage = "metadata_ready"
	StageGeneratingCity Stage = "generating_city"
	StageCombining      Stage = "combining"
	StageComplete       Stage = "complete"
	StageError          Stage = "error"
)

// IsTerminal reports whether pollers can stop once they observe the stage.
func (s Stage) IsTerminal() bool {
	return s == StageComplete || s == StageError
}

var (
	ErrJobNotFound   = errors.New("generation job not found")
	ErrJobNotRunning = errors.New("generation job is not running")
)

// Params is everything a generation run needs, finalized by the conversation
// before handoff. DaysPerCity is authoritative: the metadata stage may not
// reallocate it.
type Params struct {
	Destinations []string `json:"destinations"`
	DaysPerCity  []int    `json:"days_per_city"`
	TotalDays    int      `json:"total_days"`
	StartDate    string   `json:"start_date,omitempty"`
	DatePhrase   string   `json:"date_phrase,omitempty"`
	Travelers    string   `json:"travelers,omitempty"`
	Preferences  []string `json:"preferences,omitempty"`
	UserID       types.ID `json:"user_id,omitempty"`
}

func (p Params) Validate() error {
	if len(p.Destinations) == 0 {
		return errors.New("at least one destination is required")
	}
	if p.TotalDays < 1 {
		return errors.New("total days must be at least 1")
	}
	if len(p.DaysPerCity) != len(p.Destinations) {
		return fmt.Errorf("allocation has %d entries for %d destinations",
			len(p.DaysPerCity), len(p.Destinations))
	}
	sum := 0
	for _, d := range p.DaysPerCity {
		if d < 1 {
			return errors.New("each city needs at least one day")
		}
		sum += d
	}
	if sum != p.TotalDays {
		return fmt.Errorf("allocation sums to %d, expected %d", sum, p.TotalDays)
	}
	if p.StartDate != "" {
		if _, err := types.ParseDate(p.StartDate); err != nil {
			return fmt.Errorf("bad start date %q", p.StartDate)
		}
	}
	return nil
}

// Itinerary is the combined final result of one job.
type Itinerary struct {
	Title        string       `json:"title"`
	Destinations []string     `json:"destinations"`
	StartDate    string       `json:"start_date"`
	EndDate      string       `json:"end_date"`
	TotalDays    int          `json:"total_days"`
	CostEstimate string       `json:"cost_estimate,omitempty"`
	Tips         []string     `json:"tips,omitempty"`
	Days         []ai.DayPlan `json:"days"`
}

// Snapshot is one immutable observation of a job. The registry replaces the
// whole snapshot on every progress event, so pollers always see either the
// pre- or post-write version, never a half-updated one.
type Snapshot struct {
	JobID          types.ID          `json:"job_id"`
	Stage          Stage             `json:"stage"`
	Percent        int               `json:"percentage"`
	City           string            `json:"city,omitempty"`
	CitiesDone     int               `json:"cities_done"`
	CityData       *ai.CityItinerary `json:"city_data,omitempty"`
	FinalItinerary *Itinerary        `json:"final_itinerary,omitempty"`
	Error          string            `json:"error,omitempty"`
	UpdatedAt      time.Time         `json:"updated_at"`
}
