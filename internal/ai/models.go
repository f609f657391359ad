package ai

import (
	"wander/internal/types"
)

// MetadataRequest asks the model for trip-level metadata before any city is
// generated. Either StartDate (YYYY-MM-DD) or DatePhrase may be set; when only
// the phrase is present the model resolves it to concrete dates.
type MetadataRequest struct {
	Destinations []string
	StartDate    string
	DatePhrase   string
	TotalDays    int
	// DaysPerCity, when non-empty, is the caller's fixed allocation and the
	// model must not change it.
	DaysPerCity []int
	Travelers   string
	Preferences []string
}

// TripMetadata is the structured output of the metadata stage. Immutable once
// produced.
type TripMetadata struct {
	Title        string   `json:"title"`
	Destinations []string `json:"destinations"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	TotalDays    int      `json:"total_days"`
	DaysPerCity  []int    `json:"days_per_city"`
	CostEstimate string   `json:"cost_estimate,omitempty"`
	Tips         []string `json:"tips,omitempty"`
}

// Validate checks the response shape before it is allowed to drive the
// per-city pipeline. Shape mismatches become UpstreamError, never defaults.
func (m *TripMetadata) Validate() error {
	if m.Title == "" {
		return upstreamf("metadata", "missing title")
	}
	if len(m.Destinations) == 0 {
		return upstreamf("metadata", "missing destinations")
	}
	if m.TotalDays < 1 {
		return upstreamf("metadata", "total_days %d out of range", m.TotalDays)
	}
	if len(m.DaysPerCity) != len(m.Destinations) {
		return upstreamf("metadata", "days_per_city has %d entries for %d destinations",
			len(m.DaysPerCity), len(m.Destinations))
	}
	sum := 0
	for i, d := range m.DaysPerCity {
		if d < 1 {
			return upstreamf("metadata", "days_per_city[%d] = %d", i, d)
		}
		sum += d
	}
	if sum != m.TotalDays {
		return upstreamf("metadata", "days_per_city sums to %d, want %d", sum, m.TotalDays)
	}
	if m.StartDate == "" {
		return upstreamf("metadata", "missing start_date")
	}
	if _, err := types.ParseDate(m.StartDate); err != nil {
		return upstreamf("metadata", "bad start_date %q", m.StartDate)
	}
	return nil
}

// CityRequest asks the model for one destination's day-by-day plan. StartDate
// and StartDayIndex are the running position carried forward from the cities
// generated before this one.
type CityRequest struct {
	City          string
	Days          int
	StartDate     string
	StartDayIndex int
	Travelers     string
	Preferences   []string
}

type Activity struct {
	Time        string `json:"time"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Address     string `json:"address,omitempty"`
	Venue       string `json:"venue,omitempty"`
}

type DayPlan struct {
	DayIndex   int        `json:"day_index"`
	Date       string     `json:"date"`
	Title      string     `json:"title"`
	Activities []Activity `json:"activities"`
}

// CityItinerary is one destination's slice of the trip. StartDay and EndDay
// are absolute day indices within the whole trip (1-based, inclusive).
type CityItinerary struct {
	City     string    `json:"city"`
	StartDay int       `json:"start_day"`
	EndDay   int       `json:"end_day"`
	Days     []DayPlan `json:"days"`
}

// Validate checks shape only. A day count differing from the request is NOT a
// validation failure here; the orchestrator logs it and proceeds.
func (c *CityItinerary) Validate() error {
	if c.City == "" {
		return upstreamf("city", "missing city name")
	}
	if len(c.Days) == 0 {
		return upstreamf("city", "no days returned for %s", c.City)
	}
	for i, d := range c.Days {
		if d.Date == "" {
			return upstreamf("city", "%s day %d missing date", c.City, i+1)
		}
		if _, err := types.ParseDate(d.Date); err != nil {
			return upstreamf("city", "%s day %d bad date %q", c.City, i+1, d.Date)
		}
		if len(d.Activities) == 0 {
			return upstreamf("city", "%s day %d has no activities", c.City, i+1)
		}
	}
	return nil
}
