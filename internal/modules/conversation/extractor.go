// README: Slot extractor: classifies one free-text message against the slot being collected.
package conversation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"wander/internal/types"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Clarification reasons. The composer turns these into user-facing lines.
const (
	ReasonGreeting            = "greeting"
	ReasonHelpRequest         = "help_request"
	ReasonNotAPlace           = "not_a_place"
	ReasonTooVague            = "too_vague"
	ReasonTooManyDestinations = "too_many_destinations"
	ReasonUnrecognizedDate    = "unrecognized_date"
	ReasonVagueDuration       = "vague_duration"
	ReasonDurationTooShort    = "duration_too_short"
	ReasonAmbiguousReply      = "ambiguous_reply"

	// Advisory notes: the value is usable and merged, but a follow-up is
	// worth raising. These never block progress.
	NoteSeasonNeedsMonth = "season_needs_month"
	NoteLongDuration     = "long_duration"
)

// maxDestinations caps how many cities one trip may cover. Excess is flagged
// for clarification rather than silently truncated.
const maxDestinations = 5

// Result is the outcome of analyzing one message against one expected slot.
// NeedsClarification means the value is unusable and the state machine must
// stay put and re-ask; Note flags a usable value that deserves a follow-up.
type Result struct {
	Slot               Slot
	OK                 bool
	Confidence         Confidence
	NeedsClarification bool
	Reason             string
	Note               string

	Destinations  []string
	StartDate     string
	DatePhrase    string
	DurationDays  int
	Travelers     string
	TravelerCount int
	Preferences   []string
	Confirmed     bool
	Denied        bool
}

// Analyze classifies text against the expected slot. Pure function of its
// inputs; now anchors relative date resolution.
func Analyze(text string, slot Slot, now time.Time) Result {
	switch slot {
	case SlotDestination:
		return analyzeDestination(text)
	case SlotDates:
		return analyzeDates(text, now)
	case SlotDuration:
		return analyzeDuration(text)
	case SlotTravelers:
		return analyzeTravelers(text)
	case SlotPreferences:
		return analyzePreferences(text)
	case SlotConfirmation:
		return analyzeConfirmation(text)
	}
	return Result{Slot: slot, NeedsClarification: true, Reason: ReasonAmbiguousReply, Confidence: ConfidenceLow}
}

// ---- destination ----

var greetingWords = map[string]bool{
	"hello": true, "hi": true, "hey": true, "yo": true, "hiya": true,
	"good morning": true, "good afternoon": true, "good evening": true,
	"howdy": true, "greetings": true, "sup": true, "what's up": true,
}

var sentenceVerbs = []string{
	" want ", " wanna ", " like ", " need ", " go ", " going ", " get ",
	" plan ", " planning ", " take ", " book ", " looking ", " thinking ",
	" is ", " are ", " am ", " do ", " does ", " can ", " could ", " would ",
	" help ", " know ", " travel ", " visit ",
}

var destinationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:go to|going to|travel to|trip to|fly to|off to|visit|visiting|see)\s+([a-zA-Z][a-zA-Z .'-]*)`),
	// Capitalization required: "to Paris" names a place, "to go" does not.
	regexp.MustCompile(`\bto\s+([A-Z][a-zA-Z .'-]*)`),
	regexp.MustCompile(`\bin\s+([A-Z][a-zA-Z .'-]*)`),
}

func analyzeDestination(text string) Result {
	r := Result{Slot: SlotDestination, Confidence: ConfidenceLow}
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(strings.Trim(trimmed, " .,!?"))

	if greetingWords[lower] {
		r.NeedsClarification = true
		r.Reason = ReasonGreeting
		return r
	}
	if strings.Contains(lower, "help") || strings.Contains(lower, "what can you do") {
		r.NeedsClarification = true
		r.Reason = ReasonHelpRequest
		return r
	}
	// Bare yes/no answers are never place names.
	for _, w := range append(append([]string{}, positiveWords...), negativeWords...) {
		if lower == w {
			r.NeedsClarification = true
			r.Reason = ReasonNotAPlace
			return r
		}
	}

	candidate := trimmed
	matched := false
	for _, p := range destinationPatterns {
		if m := p.FindStringSubmatch(trimmed); m != nil {
			candidate = m[1]
			matched = true
			break
		}
	}

	// Without a recognized pattern, sentence-like input containing a verb is
	// not a place name.
	if !matched && containsVerb(lower) {
		r.NeedsClarification = true
		r.Reason = ReasonNotAPlace
		return r
	}

	dests := splitDestinations(candidate)
	if len(dests) == 0 {
		r.NeedsClarification = true
		r.Reason = ReasonNotAPlace
		return r
	}

	for _, d := range dests {
		if isVagueRegion(d) {
			r.NeedsClarification = true
			r.Reason = ReasonTooVague
			r.Destinations = dests
			return r
		}
	}

	if len(dests) > maxDestinations {
		r.NeedsClarification = true
		r.Reason = ReasonTooManyDestinations
		r.Destinations = dests
		return r
	}

	allKnown := true
	for _, d := range dests {
		if _, ok := canonicalCity(d); !ok {
			allKnown = false
			break
		}
	}

	r.OK = true
	r.Destinations = dests
	if allKnown {
		r.Confidence = ConfidenceHigh
	} else {
		r.Confidence = ConfidenceMedium
	}
	return r
}

func containsVerb(lower string) bool {
	padded := " " + lower + " "
	for _, v := range sentenceVerbs {
		if strings.Contains(padded, v) {
			return true
		}
	}
	return false
}

// trailingTripClauseRe strips a duration tail like "for a week" or "for 5
// days" that the greedy destination patterns drag along with the city name.
var trailingTripClauseRe = regexp.MustCompile(`(?i)\s+(?:for|in)\s+(?:(?:a|an|the)\s+)?(?:\d+\s*)?(?:days?|weeks?|nights?|fortnight|weekend|months?)\b.*$`)

// splitDestinations breaks a candidate phrase on "and", "then", and commas,
// normalizing casing per city.
func splitDestinations(candidate string) []string {
	candidate = strings.Trim(candidate, " .,!?")
	parts := regexp.MustCompile(`(?i)\s*(?:,|\band\b|\bthen\b)\s*`).Split(candidate, -1)
	var out []string
	for _, p := range parts {
		p = trailingTripClauseRe.ReplaceAllString(p, "")
		p = strings.Trim(p, " .,!?")
		if p == "" {
			continue
		}
		// A trailing qualifier like "for a week" is not a city, and neither
		// is anything starting with a digit.
		if regexp.MustCompile(`(?i)^(?:\d|for\b|about\b|around\b|during\b|next\b|this\b)`).MatchString(p) {
			continue
		}
		if len(p) < 2 || len(p) > 40 {
			continue
		}
		out = append(out, titleCase(p))
	}
	return out
}

// ---- dates ----

var (
	isoDateRe   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	monthDayRe  = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	dayMonthRe  = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
	seasonRe    = regexp.MustCompile(`(?i)\b(spring|summer|autumn|fall|winter)\b`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
}

// monthOrder fixes the scan order for the bare-month fallback so a message
// naming two months always resolves to the same one.
var monthOrder = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

func analyzeDates(text string, now time.Time) Result {
	r := Result{Slot: SlotDates, Confidence: ConfidenceLow}
	lower := strings.ToLower(strings.TrimSpace(text))

	// Explicit flexibility is a valid answer, not a failure.
	for _, kw := range []string{"flexible", "not sure", "don't know", "dont know", "anytime", "no dates", "skip"} {
		if strings.Contains(lower, kw) {
			r.OK = true
			r.Confidence = ConfidenceMedium
			r.DatePhrase = "flexible"
			return r
		}
	}

	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		if t, err := types.ParseDate(m[0]); err == nil {
			r.OK = true
			r.Confidence = ConfidenceHigh
			r.StartDate = types.FormatDate(t)
			return r
		}
	}

	if m := slashDateRe.FindStringSubmatch(text); m != nil {
		if t, err := time.Parse("2/1/2006", m[0]); err == nil {
			r.OK = true
			r.Confidence = ConfidenceMedium
			r.StartDate = types.FormatDate(t)
			return r
		}
	}

	if m := monthDayRe.FindStringSubmatch(lower); m != nil {
		r.OK = true
		r.Confidence = ConfidenceHigh
		r.StartDate = resolveMonthDay(monthsByName[m[1]], atoi(m[2]), now)
		return r
	}
	if m := dayMonthRe.FindStringSubmatch(lower); m != nil {
		r.OK = true
		r.Confidence = ConfidenceHigh
		r.StartDate = resolveMonthDay(monthsByName[m[2]], atoi(m[1]), now)
		return r
	}

	// Relative phrases resolve against now.
	switch {
	case strings.Contains(lower, "tomorrow"):
		r.OK = true
		r.Confidence = ConfidenceHigh
		r.StartDate = types.FormatDate(types.AddDays(now, 1))
		r.DatePhrase = "tomorrow"
		return r
	case strings.Contains(lower, "next week"):
		r.OK = true
		r.Confidence = ConfidenceMedium
		r.StartDate = types.FormatDate(types.AddDays(now, 7))
		r.DatePhrase = "next week"
		return r
	case strings.Contains(lower, "next month"):
		r.OK = true
		r.Confidence = ConfidenceMedium
		r.StartDate = types.FormatDate(now.AddDate(0, 1, 0))
		r.DatePhrase = "next month"
		return r
	case strings.Contains(lower, "weekend"):
		r.OK = true
		r.Confidence = ConfidenceMedium
		r.StartDate = types.FormatDate(upcomingSaturday(now))
		r.DatePhrase = "this weekend"
		return r
	}

	// A season is accepted but flagged: the itinerary wants a month at least.
	if m := seasonRe.FindStringSubmatch(lower); m != nil {
		r.OK = true
		r.Confidence = ConfidenceLow
		r.DatePhrase = strings.ToLower(m[1])
		r.Note = NoteSeasonNeedsMonth
		return r
	}

	// Named month alone ("in June") is usable as a phrase. Word-boundary
	// matching keeps "maybe" from reading as May.
	for _, name := range monthOrder {
		if containsWord(lower, name) {
			r.OK = true
			r.Confidence = ConfidenceMedium
			r.StartDate = resolveMonthDay(monthsByName[name], 1, now)
			r.DatePhrase = name
			return r
		}
	}

	r.NeedsClarification = true
	r.Reason = ReasonUnrecognizedDate
	return r
}

func resolveMonthDay(month time.Month, day int, now time.Time) string {
	if day < 1 || day > 31 {
		day = 1
	}
	t := time.Date(now.Year(), month, day, 0, 0, 0, 0, time.UTC)
	if t.Before(now.Truncate(24 * time.Hour)) {
		t = t.AddDate(1, 0, 0)
	}
	return types.FormatDate(t)
}

func upcomingSaturday(now time.Time) time.Time {
	days := (int(time.Saturday) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return types.AddDays(now, days)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// ---- duration ----

var (
	durationRe      = regexp.MustCompile(`(?i)\b(\d+)\s*(days?|weeks?|nights?)?\b`)
	vagueDurationRe = regexp.MustCompile(`(?i)\b(about|around|roughly|approximately|maybe|perhaps|ish|or so)\b`)
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

func analyzeDuration(text string) Result {
	r := Result{Slot: SlotDuration, Confidence: ConfidenceLow}
	lower := strings.ToLower(strings.TrimSpace(text))

	// "about 5 days" is rejected pending a specific number.
	if vagueDurationRe.MatchString(lower) {
		r.NeedsClarification = true
		r.Reason = ReasonVagueDuration
		return r
	}

	days := 0
	conf := ConfidenceHigh
	switch {
	case strings.Contains(lower, "fortnight"):
		days = 14
	case strings.Contains(lower, "weekend"):
		days = 2
	default:
		if m := durationRe.FindStringSubmatch(lower); m != nil {
			n := atoi(m[1])
			unit := m[2]
			if strings.HasPrefix(unit, "week") {
				days = n * 7
			} else {
				// Bare integers and "nights" both read as days.
				days = n
			}
		} else {
			for word, n := range numberWords {
				if strings.Contains(lower, word+" day") {
					days = n
					break
				}
				if strings.Contains(lower, word+" week") {
					days = n * 7
					break
				}
			}
			if days == 0 && (strings.Contains(lower, "a week") || lower == "week" || lower == "one week") {
				days = 7
			}
			conf = ConfidenceMedium
		}
	}

	if days == 0 {
		r.NeedsClarification = true
		r.Reason = ReasonVagueDuration
		return r
	}
	if days < 1 {
		r.NeedsClarification = true
		r.Reason = ReasonDurationTooShort
		return r
	}

	r.OK = true
	r.Confidence = conf
	r.DurationDays = days
	if days > 30 {
		r.Note = NoteLongDuration
	}
	return r
}

// ---- travelers ----

// analyzeTravelers never blocks: the slot is optional and uncertainty here
// must not stall the conversation, so NeedsClarification stays false even
// when nothing was recognized.
func analyzeTravelers(text string) Result {
	r := Result{Slot: SlotTravelers, Confidence: ConfidenceLow}
	lower := strings.ToLower(strings.TrimSpace(text))

	switch {
	case containsAny(lower, "solo", "alone", "just me", "myself", "by myself", "on my own"):
		r.OK = true
		r.Confidence = ConfidenceHigh
		r.Travelers = "solo"
		r.TravelerCount = 1
	case containsAny(lower, "couple", "partner", "wife", "husband", "girlfriend", "boyfriend", "two of us", "honeymoon", "my fiance"):
		r.OK = true
		r.Confidence = ConfidenceHigh
		r.Travelers = "couple"
		r.TravelerCount = 2
	case containsAny(lower, "family", "kids", "children", "my son", "my daughter", "parents"):
		r.OK = true
		r.Confidence = ConfidenceHigh
		r.Travelers = "family"
		if m := regexp.MustCompile(`\b(\d+)\b`).FindStringSubmatch(lower); m != nil {
			r.TravelerCount = atoi(m[1])
		}
	case containsAny(lower, "friends", "group", "colleagues", "mates", "coworkers"):
		r.OK = true
		r.Confidence = ConfidenceHigh
		r.Travelers = "group"
		if m := regexp.MustCompile(`\b(\d+)\b`).FindStringSubmatch(lower); m != nil {
			r.TravelerCount = atoi(m[1])
		}
	default:
		if m := regexp.MustCompile(`^\s*(\d+)\s*(?:people|persons|travelers|travellers|of us)?\s*$`).FindStringSubmatch(lower); m != nil {
			n := atoi(m[1])
			r.OK = true
			r.Confidence = ConfidenceMedium
			r.TravelerCount = n
			switch n {
			case 1:
				r.Travelers = "solo"
			case 2:
				r.Travelers = "couple"
			default:
				r.Travelers = "group"
			}
		}
	}
	return r
}

// ---- preferences ----

var preferenceKeywords = []struct {
	category string
	words    []string
}{
	{"museums", []string{"museum", "museums", "galleries", "gallery", "art"}},
	{"food", []string{"food", "restaurant", "restaurants", "culinary", "eating", "cuisine", "foodie", "street food"}},
	{"outdoors", []string{"hiking", "hike", "outdoors", "nature", "mountains", "national park"}},
	{"nightlife", []string{"nightlife", "bars", "clubs", "party"}},
	{"shopping", []string{"shopping", "markets", "boutiques"}},
	{"beach", []string{"beach", "beaches", "seaside", "coast"}},
	{"culture", []string{"history", "historical", "culture", "cultural", "architecture", "temples", "castles"}},
	{"photography", []string{"photography", "photo spots", "instagram"}},
	{"adventure", []string{"adventure", "adrenaline", "diving", "surfing", "climbing"}},
	{"relaxation", []string{"relax", "relaxing", "spa", "slow pace", "chill"}},
	{"budget", []string{"budget", "cheap", "affordable", "low cost", "backpacking"}},
	{"luxury", []string{"luxury", "luxurious", "5-star", "five star", "high-end", "upscale"}},
	{"mid-range", []string{"mid-range", "midrange", "moderate"}},
	{"vegetarian", []string{"vegetarian"}},
	{"vegan", []string{"vegan"}},
	{"halal", []string{"halal"}},
	{"kosher", []string{"kosher"}},
	{"gluten-free", []string{"gluten-free", "gluten free"}},
	{"coworking", []string{"coworking", "co-working", "remote work", "work remotely", "workation", "good wifi"}},
}

// analyzePreferences accumulates recognized keyword categories. An empty
// result is valid and non-blocking.
func analyzePreferences(text string) Result {
	r := Result{Slot: SlotPreferences, OK: true, Confidence: ConfidenceMedium}
	lower := strings.ToLower(text)

	seen := map[string]bool{}
	for _, pk := range preferenceKeywords {
		for _, w := range pk.words {
			if containsWord(lower, w) && !seen[pk.category] {
				seen[pk.category] = true
				r.Preferences = append(r.Preferences, pk.category)
				break
			}
		}
	}
	if len(r.Preferences) > 0 {
		r.Confidence = ConfidenceHigh
	}
	return r
}

// ---- confirmation ----

var positiveWords = []string{
	"yes", "yeah", "yep", "yup", "correct", "confirm", "confirmed", "sure",
	"sounds good", "looks good", "perfect", "go ahead", "let's go", "lets go",
	"ok", "okay", "right", "exactly", "do it",
}

var negativeWords = []string{
	"no", "nope", "nah", "wrong", "change", "not quite", "not really",
	"actually", "incorrect", "modify", "edit", "different",
}

func analyzeConfirmation(text string) Result {
	r := Result{Slot: SlotConfirmation, Confidence: ConfidenceHigh}
	lower := strings.ToLower(strings.Trim(strings.TrimSpace(text), " .,!?"))

	for _, w := range negativeWords {
		if lower == w || strings.HasPrefix(lower, w+" ") || strings.HasPrefix(lower, w+",") {
			r.OK = true
			r.Denied = true
			return r
		}
	}
	for _, w := range positiveWords {
		if lower == w || strings.HasPrefix(lower, w+" ") || strings.HasPrefix(lower, w+",") {
			r.OK = true
			r.Confirmed = true
			return r
		}
	}

	r.Confidence = ConfidenceLow
	r.NeedsClarification = true
	r.Reason = ReasonAmbiguousReply
	return r
}

// containsWord reports whether w occurs in s on word boundaries, so "art"
// does not match inside "particular". Multi-word phrases keep plain
// substring semantics.
func containsWord(s, w string) bool {
	for from := 0; ; {
		idx := strings.Index(s[from:], w)
		if idx < 0 {
			return false
		}
		start := from + idx
		end := start + len(w)
		leftOK := start == 0 || !isWordChar(s[start-1])
		rightOK := end == len(s) || !isWordChar(s[end])
		if leftOK && rightOK {
			return true
		}
		from = start + 1
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
