// README: Composer phrasing tests with a seeded random source.
package conversation

import (
	"math/rand"
	"strings"
	"testing"
)

func testComposer() *Composer {
	return NewComposer(rand.New(rand.NewSource(1)))
}

// Two composers with the same seed must produce identical phrasing, so the
// random source is genuinely the only source of variation.
func TestQuestionDeterministicWithSeed(t *testing.T) {
	a := NewComposer(rand.New(rand.NewSource(42)))
	b := NewComposer(rand.New(rand.NewSource(42)))
	for i := 0; i < 10; i++ {
		for _, slot := range []Slot{SlotDestination, SlotDates, SlotDuration, SlotTravelers, SlotPreferences} {
			qa := a.Question(slot, CollectedData{})
			qb := b.Question(slot, CollectedData{})
			if qa != qb {
				t.Fatalf("same seed diverged for %s: %q vs %q", slot, qa, qb)
			}
		}
	}
}

func TestQuestionVariantsBelongToPool(t *testing.T) {
	c := testComposer()
	for i := 0; i < 20; i++ {
		q := c.Question(SlotDestination, CollectedData{})
		found := false
		for _, v := range questionVariants[SlotDestination] {
			if q == v {
				found = true
			}
		}
		if !found {
			t.Fatalf("question %q not in variant pool", q)
		}
	}
}

func TestDatesQuestionAcknowledgesDestination(t *testing.T) {
	c := testComposer()
	q := c.Question(SlotDates, CollectedData{Destinations: []string{"London", "Brussels"}})
	if !strings.Contains(q, "London and Brussels") {
		t.Errorf("expected destination acknowledgement, got %q", q)
	}
}

func TestClarificationIsReasonSpecific(t *testing.T) {
	c := testComposer()
	cases := map[string]string{
		ReasonTooVague:            "specific city",
		ReasonTooManyDestinations: "5 cities",
		ReasonVagueDuration:       "specific number",
		ReasonUnrecognizedDate:    "dates",
	}
	for reason, want := range cases {
		line := c.Clarification(reason)
		if !strings.Contains(line, want) {
			t.Errorf("Clarification(%s) = %q, expected mention of %q", reason, line, want)
		}
	}
	// Unknown reasons fall back to a generic re-prompt rather than silence.
	if c.Clarification("some_future_reason") == "" {
		t.Error("unknown reason produced empty clarification")
	}
}

func TestConfirmationSummary(t *testing.T) {
	c := testComposer()
	data := CollectedData{
		Destinations: []string{"London", "Brussels"},
		StartDate:    "2025-09-25",
		DurationDays: 14,
		DaysPerCity:  []int{7, 7},
		Travelers:    "couple",
		Preferences:  []string{"food", "museums"},
	}
	summary := c.Confirmation(data)
	for _, want := range []string{
		"London, Brussels",
		"2025-09-25",
		"14 days",
		"7 in London",
		"7 in Brussels",
		"couple",
		"food, museums",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
	if !strings.Contains(summary, "?") {
		t.Errorf("summary should end asking for a yes/no:\n%s", summary)
	}
}

func TestFollowUpLines(t *testing.T) {
	c := testComposer()
	if c.FollowUp(NoteSeasonNeedsMonth) == "" {
		t.Error("season note should produce a follow-up line")
	}
	if c.FollowUp(NoteLongDuration) == "" {
		t.Error("long duration note should produce a follow-up line")
	}
	if c.FollowUp("") != "" {
		t.Error("empty note should produce no follow-up")
	}
}
