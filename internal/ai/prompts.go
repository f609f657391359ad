package ai

import (
	"fmt"
	"strings"
)

// buildMetadataPrompt constructs the instructions for the metadata stage.
// The exact output schema is embedded in the prompt; the model runs in JSON
// response mode so no surrounding prose is expected.
func buildMetadataPrompt(req MetadataRequest) string {
	var b strings.Builder

	b.WriteString("You are a travel planner. Produce trip-level metadata for a multi-city trip.\n\n")
	b.WriteString(fmt.Sprintf("Destinations in visiting order: %s\n", strings.Join(req.Destinations, ", ")))
	b.WriteString(fmt.Sprintf("Total trip length: %d days\n", req.TotalDays))

	switch {
	case req.StartDate != "":
		b.WriteString(fmt.Sprintf("Start date: %s\n", req.StartDate))
	case req.DatePhrase != "":
		b.WriteString(fmt.Sprintf("The traveler described the timing as %q. Resolve this to a concrete start date (YYYY-MM-DD).\n", req.DatePhrase))
	default:
		b.WriteString("No dates given. Pick a reasonable start date about one month out.\n")
	}
	if req.Travelers != "" {
		b.WriteString(fmt.Sprintf("Travelers: %s\n", req.Travelers))
	}
	if len(req.Preferences) > 0 {
		b.WriteString(fmt.Sprintf("Preferences: %s\n", strings.Join(req.Preferences, ", ")))
	}

	b.WriteString("\nCRITICAL REQUIREMENTS:\n")
	if len(req.DaysPerCity) > 0 {
		alloc := make([]string, len(req.DaysPerCity))
		for i, d := range req.DaysPerCity {
			alloc[i] = fmt.Sprintf("%d", d)
		}
		b.WriteString(fmt.Sprintf("1. days_per_city MUST be exactly [%s] in this order. Do not change it.\n", strings.Join(alloc, ", ")))
	} else {
		b.WriteString(fmt.Sprintf("1. days_per_city must have one entry per destination and sum to exactly %d.\n", req.TotalDays))
	}
	b.WriteString("2. destinations must be the list above, unchanged and in the same order.\n")
	b.WriteString(fmt.Sprintf("3. total_days must be exactly %d.\n", req.TotalDays))
	b.WriteString("4. end_date = start_date + total_days - 1.\n")
	b.WriteString("5. Return ONLY valid JSON, no extra text.\n\n")

	b.WriteString("Return JSON in this EXACT format:\n")
	b.WriteString(`{
  "title": "Two Weeks Through London and Brussels",
  "destinations": ["London", "Brussels"],
  "start_date": "2025-09-25",
  "end_date": "2025-10-08",
  "total_days": 14,
  "days_per_city": [7, 7],
  "cost_estimate": "$2500-3500 per person",
  "tips": ["Book Eurostar tickets early", "Carry a rain jacket"]
}`)

	return b.String()
}

// buildCityPrompt constructs the instructions for one city's stage.
func buildCityPrompt(req CityRequest) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Create a detailed %d-day itinerary for %s.\n\n", req.Days, req.City))
	b.WriteString(fmt.Sprintf("The first day is day %d of the overall trip and falls on %s.\n",
		req.StartDayIndex, req.StartDate))
	if req.Travelers != "" {
		b.WriteString(fmt.Sprintf("Travelers: %s\n", req.Travelers))
	}
	if len(req.Preferences) > 0 {
		b.WriteString(fmt.Sprintf("Preferences: %s\n", strings.Join(req.Preferences, ", ")))
	}

	b.WriteString("\nCRITICAL REQUIREMENTS:\n")
	b.WriteString(fmt.Sprintf("1. Generate exactly %d days of activities.\n", req.Days))
	b.WriteString(fmt.Sprintf("2. day_index values are absolute trip positions: %d through %d.\n",
		req.StartDayIndex, req.StartDayIndex+req.Days-1))
	b.WriteString(fmt.Sprintf("3. Dates are consecutive calendar days starting at %s.\n", req.StartDate))
	b.WriteString("4. Each day needs 3-5 activities with realistic times (e.g. 09:00, 14:30).\n")
	b.WriteString("5. Give each activity a category (sightseeing, food, culture, outdoors, shopping, nightlife).\n")
	b.WriteString("6. Include venue names and street addresses where you know them.\n")
	b.WriteString("7. Return ONLY valid JSON, no extra text.\n\n")

	b.WriteString("Return JSON in this EXACT format:\n")
	b.WriteString(fmt.Sprintf(`{
  "city": "%s",
  "start_day": %d,
  "end_day": %d,
  "days": [
    {
      "day_index": %d,
      "date": "%s",
      "title": "Arrival and Old Town",
      "activities": [
        {
          "time": "09:00",
          "description": "Walk the historic centre",
          "category": "sightseeing",
          "venue": "Old Town Square",
          "address": "Old Town Square 1"
        }
      ]
    }
  ]
}`, req.City, req.StartDayIndex, req.StartDayIndex+req.Days-1, req.StartDayIndex, req.StartDate))

	return b.String()
}
