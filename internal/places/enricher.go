// README: Venue address enrichment backed by the Google Places API.
package places

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"
)

// Enricher resolves venue names to street addresses. The cache and rate
// limiter are injected so callers own their lifecycle and tests can pass
// fresh instances.
type Enricher struct {
	client  *maps.Client
	cache   *Cache
	limiter *rate.Limiter
}

func NewEnricher(apiKey string, cache *Cache, limiter *rate.Limiter) (*Enricher, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Enricher{client: client, cache: cache, limiter: limiter}, nil
}

// Address looks up the street address for a venue in a city. Lookups are
// best effort: any failure (rate limit, API error, no results) returns
// ok=false and the caller keeps whatever it had.
func (e *Enricher) Address(ctx context.Context, venue, city string) (string, bool) {
	key := venue + "|" + city
	if addr, ok := e.cache.Get(key); ok {
		return addr, addr != ""
	}

	if e.limiter != nil {
		if !e.limiter.Allow() {
			return "", false
		}
	}

	resp, err := e.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query: fmt.Sprintf("%s, %s", venue, city),
	})
	if err != nil {
		log.Printf("places lookup for %q in %s failed: %v", venue, city, err)
		return "", false
	}
	if len(resp.Results) == 0 {
		// Cache the miss too, so repeated unknown venues cost one call.
		e.cache.Set(key, "")
		return "", false
	}

	addr := resp.Results[0].FormattedAddress
	e.cache.Set(key, addr)
	return addr, addr != ""
}
