// README: Conversation aggregate: states, slots, collected data, and context serialization.
package conversation

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"wander/internal/types"
)

type State string

const (
	StateGreeting              State = "greeting"
	StateCollectingDestination State = "collecting_destination"
	StateCollectingDates       State = "collecting_dates"
	StateCollectingDuration    State = "collecting_duration"
	StateCollectingTravelers   State = "collecting_travelers"
	StateCollectingPreferences State = "collecting_preferences"
	StateConfirmingDetails     State = "confirming_details"
	StateGenerating            State = "generating"
	StateShowingItinerary      State = "showing_itinerary"
	StateAwaitingFeedback      State = "awaiting_feedback"
	StateModifying             State = "modifying"
)

// Slot names one piece of trip information the conversation collects.
type Slot string

const (
	SlotDestination  Slot = "destination"
	SlotDates        Slot = "dates"
	SlotDuration     Slot = "duration"
	SlotTravelers    Slot = "travelers"
	SlotPreferences  Slot = "preferences"
	SlotConfirmation Slot = "confirmation"
)

// slotPriority is the fixed order in which missing slots are filled.
var slotPriority = []Slot{SlotDestination, SlotDates, SlotDuration, SlotTravelers, SlotPreferences}

var collectingStates = map[Slot]State{
	SlotDestination: StateCollectingDestination,
	SlotDates:       StateCollectingDates,
	SlotDuration:    StateCollectingDuration,
	SlotTravelers:   StateCollectingTravelers,
	SlotPreferences: StateCollectingPreferences,
}

var expectedSlots = map[State]Slot{
	StateCollectingDestination: SlotDestination,
	StateCollectingDates:       SlotDates,
	StateCollectingDuration:    SlotDuration,
	StateCollectingTravelers:   SlotTravelers,
	StateCollectingPreferences: SlotPreferences,
	StateConfirmingDetails:     SlotConfirmation,
}

// AllowedTransitions represents the conversation flow (diagram) as code.
// Collecting states may be skipped forward when a slot is already filled
// (e.g. the opening message named the destination), hence the fan-out.
var AllowedTransitions = map[State][]State{
	StateGreeting: {StateCollectingDestination, StateCollectingDates, StateCollectingDuration,
		StateCollectingTravelers, StateCollectingPreferences, StateConfirmingDetails},
	StateCollectingDestination: {StateCollectingDates, StateCollectingDuration,
		StateCollectingTravelers, StateCollectingPreferences, StateConfirmingDetails},
	StateCollectingDates: {StateCollectingDuration, StateCollectingTravelers,
		StateCollectingPreferences, StateConfirmingDetails},
	StateCollectingDuration:    {StateCollectingTravelers, StateCollectingPreferences, StateConfirmingDetails},
	StateCollectingTravelers:   {StateCollectingPreferences, StateConfirmingDetails},
	StateCollectingPreferences: {StateConfirmingDetails},
	StateConfirmingDetails:     {StateGenerating, StateModifying},
	StateGenerating:            {StateShowingItinerary, StateConfirmingDetails},
	StateShowingItinerary:      {StateAwaitingFeedback},
	StateAwaitingFeedback:      {StateModifying},
	StateModifying: {StateCollectingDestination, StateCollectingDates, StateCollectingDuration,
		StateCollectingTravelers, StateCollectingPreferences, StateConfirmingDetails},
}

func CanTransition(from, to State) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// CollectedData holds everything the conversation has gathered. Every field
// is optional and absence is meaningful: a missing value is asked for, never
// defaulted. The *Set flags distinguish "slot answered with nothing" (valid
// for the optional slots) from "slot never asked".
type CollectedData struct {
	Destinations []string `json:"destinations,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	DatePhrase   string   `json:"date_phrase,omitempty"`
	DatesSet     bool     `json:"dates_set,omitempty"`

	DurationDays int   `json:"duration_days,omitempty"`
	DaysPerCity  []int `json:"days_per_city,omitempty"`

	Travelers     string `json:"travelers,omitempty"`
	TravelerCount int    `json:"traveler_count,omitempty"`
	TravelersSet  bool   `json:"travelers_set,omitempty"`

	Preferences    []string `json:"preferences,omitempty"`
	PreferencesSet bool     `json:"preferences_set,omitempty"`
}

// ReadyToGenerate reports whether generation may start. Destination and
// duration are the only hard requirements; travelers and preferences never
// block progress.
func (d CollectedData) ReadyToGenerate() bool {
	return len(d.Destinations) > 0 && d.DurationDays > 0
}

// MissingSlot scans the required slots in fixed priority order and returns
// the first one still missing.
func (d CollectedData) MissingSlot() (Slot, bool) {
	for _, slot := range slotPriority {
		switch slot {
		case SlotDestination:
			if len(d.Destinations) == 0 {
				return slot, true
			}
		case SlotDates:
			if !d.DatesSet && d.StartDate == "" && d.DatePhrase == "" {
				return slot, true
			}
		case SlotDuration:
			if d.DurationDays == 0 {
				return slot, true
			}
		case SlotTravelers:
			if !d.TravelersSet {
				return slot, true
			}
		case SlotPreferences:
			if !d.PreferencesSet {
				return slot, true
			}
		}
	}
	return "", false
}

type Message struct {
	Role string    `json:"role"` // "user" or "assistant"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Context owns one conversation's state. Mutated only by the Service;
// serializable to an opaque string so a stateless caller can carry it
// between requests.
type Context struct {
	SessionID   types.ID      `json:"session_id"`
	State       State         `json:"state"`
	Data        CollectedData `json:"data"`
	History     []Message     `json:"history"`
	PendingSlot Slot          `json:"pending_slot,omitempty"`
	JobID       types.ID      `json:"job_id,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func NewContext(now time.Time) *Context {
	return &Context{
		SessionID: types.ID(uuid.NewString()),
		State:     StateGreeting,
		UpdatedAt: now,
	}
}

func (c *Context) append(role, text string, at time.Time) {
	c.History = append(c.History, Message{Role: role, Text: text, At: at})
	c.UpdatedAt = at
}

var ErrBadContext = errors.New("malformed conversation context")

// Encode serializes the context to a single opaque string.
func (c *Context) Encode() (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeContext restores a context from its opaque string form. State,
// collected data, and message history (timestamps included) round-trip.
func DecodeContext(s string) (*Context, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrBadContext
	}
	var c Context
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, ErrBadContext
	}
	if c.SessionID == "" || c.State == "" {
		return nil, ErrBadContext
	}
	return &c, nil
}
