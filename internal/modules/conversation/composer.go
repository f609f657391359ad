// README: Prompt composer: turns slot requests and clarification reasons into outgoing text.
package conversation

import (
	"fmt"
	"math/rand"
	"strings"
)

// Composer produces outgoing conversational text. The random source is
// injected so tests can seed it and assert exact phrasing.
type Composer struct {
	rng *rand.Rand
}

func NewComposer(rng *rand.Rand) *Composer {
	return &Composer{rng: rng}
}

var questionVariants = map[Slot][]string{
	SlotDestination: {
		"Where would you like to go?",
		"Which city or cities are you thinking of visiting?",
		"What destination do you have in mind?",
	},
	SlotDates: {
		"When are you planning to travel? A date, a month, or \"flexible\" all work.",
		"Do you have travel dates in mind? Rough timing is fine.",
		"When would you like the trip to start?",
	},
	SlotDuration: {
		"How many days will the trip be?",
		"How long are you planning to stay?",
		"How many days do you have for this trip?",
	},
	SlotTravelers: {
		"Who's traveling? Solo, couple, family, or a group?",
		"How many people are going on this trip?",
	},
	SlotPreferences: {
		"Any interests I should plan around? Food, museums, hiking, nightlife...",
		"What kind of activities do you enjoy when traveling?",
	},
}

var clarificationLines = map[string][]string{
	ReasonGreeting: {
		"Hi there! I plan trips. Where would you like to go?",
		"Hello! Tell me a destination and I'll put an itinerary together.",
	},
	ReasonHelpRequest: {
		"I build day-by-day travel itineraries. Just tell me where you want to go and for how long.",
	},
	ReasonNotAPlace: {
		"I didn't catch a destination in that. Which city would you like to visit?",
		"Hmm, that doesn't look like a place name. Where do you want to go?",
	},
	ReasonTooVague: {
		"That's a pretty big area! Could you name a specific city or two?",
	},
	ReasonTooManyDestinations: {
		"That's a lot of ground to cover! I can plan up to 5 cities per trip. Which would you like to keep?",
	},
	ReasonUnrecognizedDate: {
		"I couldn't work out the dates from that. Try something like \"June 15\", \"next week\", or \"2025-09-25\".",
	},
	ReasonVagueDuration: {
		"I need a specific number of days to plan properly. How many exactly?",
	},
	ReasonDurationTooShort: {
		"The trip needs to be at least one day long. How many days did you mean?",
	},
	ReasonAmbiguousReply: {
		"Sorry, I didn't catch that. Is everything correct? A simple yes or no works.",
	},
}

var noteLines = map[string]string{
	NoteSeasonNeedsMonth: "Also, could you narrow the season down to a month? It helps with seasonal picks.",
	NoteLongDuration:     "That's a long trip! Just checking the day count is right.",
}

func (c *Composer) pick(variants []string) string {
	if len(variants) == 1 {
		return variants[0]
	}
	return variants[c.rng.Intn(len(variants))]
}

// Question returns the next question for a slot, optionally prefixed with an
// acknowledgement of what was just collected.
func (c *Composer) Question(slot Slot, data CollectedData) string {
	variants, ok := questionVariants[slot]
	if !ok {
		return "Could you tell me a bit more about the trip?"
	}
	q := c.pick(variants)

	if slot == SlotDates && len(data.Destinations) > 0 {
		return fmt.Sprintf("%s sounds great! %s", strings.Join(data.Destinations, " and "), q)
	}
	return q
}

// Clarification maps an extraction failure reason to a conversational line.
func (c *Composer) Clarification(reason string) string {
	lines, ok := clarificationLines[reason]
	if !ok {
		return c.pick(clarificationLines[ReasonAmbiguousReply])
	}
	return c.pick(lines)
}

// FollowUp returns the advisory line for a non-blocking note, or "".
func (c *Composer) FollowUp(note string) string {
	return noteLines[note]
}

// Confirmation summarizes the collected data and asks for a yes/no.
func (c *Composer) Confirmation(data CollectedData) string {
	var b strings.Builder
	b.WriteString("Here's what I have:\n")
	b.WriteString(fmt.Sprintf("- Destination: %s\n", strings.Join(data.Destinations, ", ")))

	switch {
	case data.StartDate != "":
		b.WriteString(fmt.Sprintf("- Start date: %s\n", data.StartDate))
	case data.DatePhrase != "":
		b.WriteString(fmt.Sprintf("- Timing: %s\n", data.DatePhrase))
	default:
		b.WriteString("- Timing: flexible\n")
	}

	b.WriteString(fmt.Sprintf("- Duration: %d days", data.DurationDays))
	if len(data.DaysPerCity) > 1 {
		parts := make([]string, len(data.DaysPerCity))
		for i, d := range data.DaysPerCity {
			parts[i] = fmt.Sprintf("%d in %s", d, data.Destinations[i])
		}
		b.WriteString(fmt.Sprintf(" (%s)", strings.Join(parts, ", ")))
	}
	b.WriteString("\n")

	if data.Travelers != "" {
		b.WriteString(fmt.Sprintf("- Travelers: %s", data.Travelers))
		if data.TravelerCount > 0 {
			b.WriteString(fmt.Sprintf(" (%d)", data.TravelerCount))
		}
		b.WriteString("\n")
	}
	if len(data.Preferences) > 0 {
		b.WriteString(fmt.Sprintf("- Interests: %s\n", strings.Join(data.Preferences, ", ")))
	}

	b.WriteString("\nShall I put the itinerary together?")
	return b.String()
}

// GenerationStarted is the line shown when the job kicks off.
func (c *Composer) GenerationStarted(data CollectedData) string {
	return fmt.Sprintf("On it! Building your %d-day itinerary for %s now. This takes a moment.",
		data.DurationDays, strings.Join(data.Destinations, " and "))
}

// ModifyPrompt asks what to change after a negative confirmation.
func (c *Composer) ModifyPrompt() string {
	return "No problem. What would you like to change? You can give me a new destination, dates, or duration."
}
