// README: Multi-city extractor: recognizes a complete multi-destination plan in one message.
package conversation

import (
	"regexp"
	"strings"
)

// MultiCityPlan is a fully specified multi-destination trip recognized from a
// single message. Feeding it into CollectedData fills the destination and
// duration slots as if each had been individually confirmed.
type MultiCityPlan struct {
	Destinations []string
	DaysPerCity  []int
	TotalDays    int
}

var (
	// "3 days in London" / "2 weeks in Paris"
	cityDaysRe = regexp.MustCompile(`(?i)\b(\d+)\s*(days?|weeks?|nights?)\s+in\s+([a-zA-Z][a-zA-Z .'-]*?)(?:\s*(?:,|\band\b|\bthen\b|[.!?])|$)`)
	// "2 weeks, one week in each" style
	eachRe = regexp.MustCompile(`(?i)\b(?:one|a|1)\s+(day|week)\s+(?:in\s+)?each\b`)
	// "10 days across London, Paris and Rome"
	acrossRe = regexp.MustCompile(`(?i)\b(\d+)\s*(days?|weeks?)\s+(?:across|through|between|visiting|in)\s+(.+)$`)
	// standalone overall duration for the even-split pattern
	totalDurationRe = regexp.MustCompile(`(?i)\b(\d+)\s*(days?|weeks?)\b`)
)

// ExtractMultiCity tries each recognition pattern in priority order and
// returns the first full plan found. Patterns never combine; a message that
// matches none returns ok=false and falls through to slot-by-slot collection.
func ExtractMultiCity(text string) (MultiCityPlan, bool) {
	if plan, ok := extractExplicitPairs(text); ok {
		return plan, true
	}
	if plan, ok := extractPerCityEach(text); ok {
		return plan, true
	}
	if plan, ok := extractCitiesWithTotal(text); ok {
		return plan, true
	}
	if plan, ok := extractAcross(text); ok {
		return plan, true
	}
	return MultiCityPlan{}, false
}

// extractExplicitPairs handles "3 days in London then 2 days in Paris".
// A single pair is not a multi-city plan; it falls through so the ordinary
// slot flow handles it.
func extractExplicitPairs(text string) (MultiCityPlan, bool) {
	matches := cityDaysRe.FindAllStringSubmatch(text, -1)
	if len(matches) < 2 {
		return MultiCityPlan{}, false
	}

	var plan MultiCityPlan
	for _, m := range matches {
		days := atoi(m[1])
		if strings.HasPrefix(strings.ToLower(m[2]), "week") {
			days *= 7
		}
		if days < 1 {
			return MultiCityPlan{}, false
		}
		plan.Destinations = append(plan.Destinations, titleCase(m[3]))
		plan.DaysPerCity = append(plan.DaysPerCity, days)
		plan.TotalDays += days
	}
	return plan, true
}

// extractPerCityEach handles "one week in each" phrasings: the per-city
// quantity multiplied by the number of named cities gives the total.
func extractPerCityEach(text string) (MultiCityPlan, bool) {
	m := eachRe.FindStringSubmatch(text)
	if m == nil {
		return MultiCityPlan{}, false
	}
	cities := findKnownCities(text)
	if len(cities) < 2 {
		return MultiCityPlan{}, false
	}

	per := 1
	if strings.EqualFold(m[1], "week") {
		per = 7
	}
	plan := MultiCityPlan{Destinations: cities}
	for range cities {
		plan.DaysPerCity = append(plan.DaysPerCity, per)
		plan.TotalDays += per
	}
	return plan, true
}

// extractCitiesWithTotal handles known city names joined by "and"/commas plus
// a single overall duration, split evenly with the remainder given to the
// earliest cities.
func extractCitiesWithTotal(text string) (MultiCityPlan, bool) {
	cities := findKnownCities(text)
	if len(cities) < 2 {
		return MultiCityPlan{}, false
	}
	lower := strings.ToLower(text)
	if !strings.Contains(lower, " and ") && !strings.Contains(text, ",") {
		return MultiCityPlan{}, false
	}

	m := totalDurationRe.FindStringSubmatch(text)
	if m == nil {
		return MultiCityPlan{}, false
	}
	total := atoi(m[1])
	if strings.HasPrefix(strings.ToLower(m[2]), "week") {
		total *= 7
	}
	if total < len(cities) {
		return MultiCityPlan{}, false
	}

	return MultiCityPlan{
		Destinations: cities,
		DaysPerCity:  evenSplit(total, len(cities)),
		TotalDays:    total,
	}, true
}

// extractAcross handles "10 days across London, Paris, Rome".
func extractAcross(text string) (MultiCityPlan, bool) {
	m := acrossRe.FindStringSubmatch(text)
	if m == nil {
		return MultiCityPlan{}, false
	}
	total := atoi(m[1])
	if strings.HasPrefix(strings.ToLower(m[2]), "week") {
		total *= 7
	}

	cities := splitDestinations(m[3])
	if len(cities) < 2 || total < len(cities) {
		return MultiCityPlan{}, false
	}

	return MultiCityPlan{
		Destinations: cities,
		DaysPerCity:  evenSplit(total, len(cities)),
		TotalDays:    total,
	}, true
}

// evenSplit divides total days among n cities, handing the remainder out one
// extra day at a time starting from the first city. The result always sums
// to total.
func evenSplit(total, n int) []int {
	base := total / n
	rem := total % n
	out := make([]int, n)
	for i := range out {
		out[i] = base
		if i < rem {
			out[i]++
		}
	}
	return out
}

// findKnownCities scans the message for known city names in order of
// appearance. Multi-word names are checked before shorter ones by virtue of
// position-based scanning over the lowercase text.
func findKnownCities(text string) []string {
	lower := strings.ToLower(text)
	type hit struct {
		pos  int
		name string
	}
	var hits []hit
	for key, canonical := range knownCities {
		idx := strings.Index(lower, key)
		if idx < 0 {
			continue
		}
		// Reject substring matches inside larger words.
		if idx > 0 && isWordChar(lower[idx-1]) {
			continue
		}
		end := idx + len(key)
		if end < len(lower) && isWordChar(lower[end]) {
			continue
		}
		hits = append(hits, hit{pos: idx, name: canonical})
	}

	// Insertion sort by position; the hit list is tiny.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j-1].pos > hits[j].pos; j-- {
			hits[j-1], hits[j] = hits[j], hits[j-1]
		}
	}

	var out []string
	seen := map[string]bool{}
	for _, h := range hits {
		if !seen[h.name] {
			seen[h.name] = true
			out = append(out, h.name)
		}
	}
	return out
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
