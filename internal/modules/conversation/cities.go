package conversation

import "strings"

// knownCities maps lowercase names to canonical casing. Used by the
// multi-city extractor to spot destinations without explicit "N days in"
// phrasing, and by the destination analyzer for confidence scoring.
var knownCities = map[string]string{
	"london":         "London",
	"paris":          "Paris",
	"rome":           "Rome",
	"barcelona":      "Barcelona",
	"madrid":         "Madrid",
	"lisbon":         "Lisbon",
	"porto":          "Porto",
	"amsterdam":      "Amsterdam",
	"brussels":       "Brussels",
	"berlin":         "Berlin",
	"munich":         "Munich",
	"hamburg":        "Hamburg",
	"vienna":         "Vienna",
	"prague":         "Prague",
	"budapest":       "Budapest",
	"warsaw":         "Warsaw",
	"krakow":         "Krakow",
	"zurich":         "Zurich",
	"geneva":         "Geneva",
	"milan":          "Milan",
	"venice":         "Venice",
	"florence":       "Florence",
	"naples":         "Naples",
	"athens":         "Athens",
	"istanbul":       "Istanbul",
	"dublin":         "Dublin",
	"edinburgh":      "Edinburgh",
	"copenhagen":     "Copenhagen",
	"stockholm":      "Stockholm",
	"oslo":           "Oslo",
	"helsinki":       "Helsinki",
	"reykjavik":      "Reykjavik",
	"new york":       "New York",
	"los angeles":    "Los Angeles",
	"san francisco":  "San Francisco",
	"chicago":        "Chicago",
	"miami":          "Miami",
	"boston":         "Boston",
	"seattle":        "Seattle",
	"toronto":        "Toronto",
	"vancouver":      "Vancouver",
	"montreal":       "Montreal",
	"mexico city":    "Mexico City",
	"rio de janeiro": "Rio de Janeiro",
	"buenos aires":   "Buenos Aires",
	"lima":           "Lima",
	"tokyo":          "Tokyo",
	"kyoto":          "Kyoto",
	"osaka":          "Osaka",
	"seoul":          "Seoul",
	"beijing":        "Beijing",
	"shanghai":       "Shanghai",
	"hong kong":      "Hong Kong",
	"taipei":         "Taipei",
	"singapore":      "Singapore",
	"bangkok":        "Bangkok",
	"hanoi":          "Hanoi",
	"ho chi minh city": "Ho Chi Minh City",
	"bali":           "Bali",
	"delhi":          "Delhi",
	"mumbai":         "Mumbai",
	"dubai":          "Dubai",
	"tel aviv":       "Tel Aviv",
	"cairo":          "Cairo",
	"marrakech":      "Marrakech",
	"cape town":      "Cape Town",
	"nairobi":        "Nairobi",
	"sydney":         "Sydney",
	"melbourne":      "Melbourne",
	"auckland":       "Auckland",
}

// vagueRegions are place names too broad to plan a trip for; they trigger a
// clarification instead of being accepted as destinations.
var vagueRegions = map[string]bool{
	"europe":          true,
	"asia":            true,
	"africa":          true,
	"america":         true,
	"north america":   true,
	"south america":   true,
	"latin america":   true,
	"oceania":         true,
	"scandinavia":     true,
	"the balkans":     true,
	"the mediterranean": true,
	"the middle east": true,
	"middle east":     true,
	"the caribbean":   true,
	"caribbean":       true,
	"southeast asia":  true,
	"central america": true,
	"eastern europe":  true,
	"western europe":  true,
	"somewhere":       true,
	"anywhere":        true,
	"abroad":          true,
}

func canonicalCity(name string) (string, bool) {
	c, ok := knownCities[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

func isVagueRegion(name string) bool {
	return vagueRegions[strings.ToLower(strings.TrimSpace(name))]
}

// titleCase capitalizes each word of a place name without touching
// already-capitalized interior letters (e.g. "rio de janeiro" -> "Rio De Janeiro"
// only when no canonical entry exists).
func titleCase(name string) string {
	if c, ok := canonicalCity(name); ok {
		return c
	}
	words := strings.Fields(strings.TrimSpace(name))
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
