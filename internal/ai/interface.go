package ai

import (
	"context"
)

// Planner defines the contract for the external text-completion capability.
// This interface allows swapping providers (Gemini, OpenAI, etc.) and lets
// tests script responses without network access.
type Planner interface {
	// GenerateTripMetadata produces trip-level metadata: title, confirmed
	// destination list, dates, and the per-city day allocation.
	GenerateTripMetadata(ctx context.Context, req MetadataRequest) (*TripMetadata, error)

	// GenerateCityItinerary produces one destination's day-by-day plan for
	// exactly req.Days days starting at req.StartDate / req.StartDayIndex.
	GenerateCityItinerary(ctx context.Context, req CityRequest) (*CityItinerary, error)
}
