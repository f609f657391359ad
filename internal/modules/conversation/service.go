// README: Conversation service: the per-message state machine driving slot collection.
package conversation

import (
	"context"
	"errors"
	"log"
	"time"

	"wander/internal/types"
)

var ErrSessionNotFound = errors.New("conversation session not found")

// Store persists conversation contexts between turns. Implementations must
// treat the context as opaque; only the service mutates it.
type Store interface {
	Save(ctx context.Context, c *Context) error
	Get(ctx context.Context, id types.ID) (*Context, error)
	Delete(ctx context.Context, id types.ID) error
}

type ResponseKind string

const (
	ResponseQuestion        ResponseKind = "question"
	ResponseConfirmation    ResponseKind = "confirmation"
	ResponseStartGeneration ResponseKind = "start_generation"
	ResponseInfo            ResponseKind = "info"
)

// Response is the outgoing side of one conversation turn. Exactly one kind
// applies; StartGeneration carries the finalized collected data for the
// caller to hand to the generation registry.
type Response struct {
	Kind         ResponseKind  `json:"kind"`
	Text         string        `json:"text"`
	AwaitingSlot Slot          `json:"awaiting_slot,omitempty"`
	Data         CollectedData `json:"data,omitzero"`
}

// Service owns the conversation state machine. One instance serves all
// sessions; per-session state lives entirely in the Context.
type Service struct {
	store       Store
	composer    *Composer
	idleTimeout time.Duration
	now         func() time.Time
}

func NewService(store Store, composer *Composer, idleTimeout time.Duration) *Service {
	return &Service{
		store:       store,
		composer:    composer,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// ProcessMessage runs one turn. The caller identifies the session either by
// id (resolved against the store) or by the serialized context it carried
// from the previous response; with neither, a fresh session starts.
func (s *Service) ProcessMessage(ctx context.Context, sessionID types.ID, serialized, text string) (*Context, Response, error) {
	c, err := s.resolve(ctx, sessionID, serialized)
	if err != nil {
		return nil, Response{}, err
	}

	now := s.now()
	if s.idleTimeout > 0 && !c.UpdatedAt.IsZero() && now.Sub(c.UpdatedAt) > s.idleTimeout {
		log.Printf("session %s idle for %s, starting fresh", c.SessionID, now.Sub(c.UpdatedAt))
		c = NewContext(now)
	}

	c.append("user", text, now)
	resp := s.advance(c, text, now)
	c.append("assistant", resp.Text, now)

	if err := s.store.Save(ctx, c); err != nil {
		// The caller still holds the serialized context, so a store miss
		// degrades the session rather than losing it.
		log.Printf("failed to save session %s: %v", c.SessionID, err)
	}
	return c, resp, nil
}

func (s *Service) resolve(ctx context.Context, sessionID types.ID, serialized string) (*Context, error) {
	if serialized != "" {
		return DecodeContext(serialized)
	}
	if sessionID != "" {
		c, err := s.store.Get(ctx, sessionID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
	}
	return NewContext(s.now()), nil
}

// advance evaluates the transition rule for one message.
func (s *Service) advance(c *Context, text string, now time.Time) Response {
	switch c.State {
	case StateGreeting:
		return s.handleOpening(c, text, now)
	case StateCollectingDestination, StateCollectingDates, StateCollectingDuration,
		StateCollectingTravelers, StateCollectingPreferences:
		return s.handleCollecting(c, text, now)
	case StateConfirmingDetails:
		return s.handleConfirmation(c, text)
	case StateGenerating:
		return Response{Kind: ResponseInfo, Text: "Still working on your itinerary. Hang tight!"}
	case StateShowingItinerary, StateAwaitingFeedback:
		s.transition(c, StateAwaitingFeedback)
		return Response{
			Kind: ResponseInfo,
			Text: "Want to change anything about the itinerary? Tell me what to adjust.",
		}
	case StateModifying:
		return s.handleModifying(c, text, now)
	}
	return Response{Kind: ResponseInfo, Text: "Let's start over. Where would you like to go?"}
}

// handleOpening analyzes the first message opportunistically: a full
// multi-city plan short-circuits collection entirely, and a plain
// destination fills that slot before the first question is even asked.
func (s *Service) handleOpening(c *Context, text string, now time.Time) Response {
	if plan, ok := ExtractMultiCity(text); ok {
		applyPlan(&c.Data, plan)
		return s.askNext(c)
	}

	r := Analyze(text, SlotDestination, now)
	if r.NeedsClarification {
		s.transition(c, StateCollectingDestination)
		c.PendingSlot = SlotDestination
		return Response{
			Kind:         ResponseQuestion,
			Text:         s.composer.Clarification(r.Reason),
			AwaitingSlot: SlotDestination,
		}
	}
	s.merge(&c.Data, r)
	return s.askNextWithNote(c, r.Note)
}

func (s *Service) handleCollecting(c *Context, text string, now time.Time) Response {
	slot := expectedSlots[c.State]

	if slot == SlotDestination {
		if plan, ok := ExtractMultiCity(text); ok {
			applyPlan(&c.Data, plan)
			return s.askNext(c)
		}
	}

	r := Analyze(text, slot, now)
	if r.NeedsClarification {
		// Stay put and re-ask; the state machine never advances on a guess.
		return Response{
			Kind:         ResponseQuestion,
			Text:         s.composer.Clarification(r.Reason),
			AwaitingSlot: slot,
		}
	}
	s.merge(&c.Data, r)
	return s.askNextWithNote(c, r.Note)
}

func (s *Service) handleConfirmation(c *Context, text string) Response {
	r := analyzeConfirmation(text)
	switch {
	case r.Confirmed:
		if !c.Data.ReadyToGenerate() {
			// Confirmation without the hard slots means a state bug upstream;
			// fall back to asking instead of generating from nothing.
			return s.askNext(c)
		}
		s.finalize(&c.Data)
		s.transition(c, StateGenerating)
		return Response{
			Kind: ResponseStartGeneration,
			Text: s.composer.GenerationStarted(c.Data),
			Data: c.Data,
		}
	case r.Denied:
		s.transition(c, StateModifying)
		return Response{Kind: ResponseQuestion, Text: s.composer.ModifyPrompt()}
	default:
		return Response{
			Kind:         ResponseConfirmation,
			Text:         s.composer.Clarification(ReasonAmbiguousReply),
			AwaitingSlot: SlotConfirmation,
		}
	}
}

// handleModifying accepts a correction for any slot: the message is analyzed
// against each slot in priority order and the first clean extraction wins.
func (s *Service) handleModifying(c *Context, text string, now time.Time) Response {
	if plan, ok := ExtractMultiCity(text); ok {
		applyPlan(&c.Data, plan)
		return s.askNext(c)
	}

	for _, slot := range []Slot{SlotDestination, SlotDates, SlotDuration, SlotTravelers, SlotPreferences} {
		r := Analyze(text, slot, now)
		if r.OK && !r.NeedsClarification {
			// Optional slots match almost anything; only take them here when
			// they actually recognized something.
			if slot == SlotTravelers && r.Travelers == "" {
				continue
			}
			if slot == SlotPreferences && len(r.Preferences) == 0 {
				continue
			}
			s.merge(&c.Data, r)
			return s.askNextWithNote(c, r.Note)
		}
	}
	return Response{
		Kind: ResponseQuestion,
		Text: "I couldn't work out what to change from that. You can say something like \"make it 10 days\" or name a different city.",
	}
}

// askNext moves to the first still-missing slot, or to confirmation when
// everything needed is in place.
func (s *Service) askNext(c *Context) Response {
	if slot, missing := c.Data.MissingSlot(); missing {
		s.transition(c, collectingStates[slot])
		c.PendingSlot = slot
		return Response{
			Kind:         ResponseQuestion,
			Text:         s.composer.Question(slot, c.Data),
			AwaitingSlot: slot,
		}
	}

	s.transition(c, StateConfirmingDetails)
	c.PendingSlot = SlotConfirmation
	return Response{
		Kind:         ResponseConfirmation,
		Text:         s.composer.Confirmation(c.Data),
		AwaitingSlot: SlotConfirmation,
	}
}

// askNextWithNote prepends an advisory follow-up when the extractor accepted
// a value but flagged it.
func (s *Service) askNextWithNote(c *Context, note string) Response {
	resp := s.askNext(c)
	if note != "" {
		if line := s.composer.FollowUp(note); line != "" {
			resp.Text = line + " " + resp.Text
		}
	}
	return resp
}

// transition moves the context's state, logging (but tolerating) a move the
// transition table does not list.
func (s *Service) transition(c *Context, to State) {
	if c.State != to && !CanTransition(c.State, to) {
		log.Printf("session %s: unexpected transition %s -> %s", c.SessionID, c.State, to)
	}
	c.State = to
}

// merge folds one successful extraction into the collected data. Only
// explicit user input lands here; nothing is ever defaulted.
func (s *Service) merge(d *CollectedData, r Result) {
	switch r.Slot {
	case SlotDestination:
		d.Destinations = r.Destinations
		// A destination change invalidates any previous per-city split.
		if len(d.DaysPerCity) > 0 && len(d.DaysPerCity) != len(d.Destinations) {
			d.DaysPerCity = nil
		}
	case SlotDates:
		d.StartDate = r.StartDate
		d.DatePhrase = r.DatePhrase
		d.DatesSet = true
	case SlotDuration:
		d.DurationDays = r.DurationDays
		if len(d.DaysPerCity) > 0 && sum(d.DaysPerCity) != d.DurationDays {
			d.DaysPerCity = nil
		}
	case SlotTravelers:
		// The slot is optional: it counts as answered even when nothing was
		// recognized, so the conversation moves on.
		d.TravelersSet = true
		if r.Travelers != "" {
			d.Travelers = r.Travelers
		}
		if r.TravelerCount > 0 {
			d.TravelerCount = r.TravelerCount
		}
	case SlotPreferences:
		d.PreferencesSet = true
		for _, p := range r.Preferences {
			if !contains(d.Preferences, p) {
				d.Preferences = append(d.Preferences, p)
			}
		}
	}
}

// applyPlan fills the destination and duration slots from a recognized
// multi-city plan, as if each had been individually confirmed.
func applyPlan(d *CollectedData, plan MultiCityPlan) {
	d.Destinations = plan.Destinations
	d.DaysPerCity = plan.DaysPerCity
	d.DurationDays = plan.TotalDays
}

// finalize fills derived fields before generation starts. An even split is
// computed here only when a multi-destination trip never got an explicit
// allocation; single-city trips take the whole duration.
func (s *Service) finalize(d *CollectedData) {
	if len(d.DaysPerCity) != len(d.Destinations) {
		d.DaysPerCity = evenSplit(d.DurationDays, len(d.Destinations))
	}
	if d.StartDate != "" && d.EndDate == "" {
		if t, err := types.ParseDate(d.StartDate); err == nil {
			d.EndDate = types.FormatDate(types.AddDays(t, d.DurationDays-1))
		}
	}
}

// AttachJob records the generation job spawned for a session so later
// messages can poll it.
func (s *Service) AttachJob(ctx context.Context, c *Context, jobID types.ID) error {
	c.JobID = jobID
	return s.store.Save(ctx, c)
}

// HandleGenerationComplete moves a generating session forward once its job
// finishes. Called by the boundary layer after a terminal poll.
func (s *Service) HandleGenerationComplete(ctx context.Context, c *Context) error {
	if c.State != StateGenerating {
		return nil
	}
	s.transition(c, StateShowingItinerary)
	c.UpdatedAt = s.now()
	return s.store.Save(ctx, c)
}

// HandleGenerationFailed returns a generating session to confirmation so the
// user can retry or adjust.
func (s *Service) HandleGenerationFailed(ctx context.Context, c *Context) error {
	if c.State != StateGenerating {
		return nil
	}
	s.transition(c, StateConfirmingDetails)
	c.PendingSlot = SlotConfirmation
	c.JobID = ""
	c.UpdatedAt = s.now()
	return s.store.Save(ctx, c)
}

func sum(xs []int) int {
	t := 0
	for _, x := range xs {
		t += x
	}
	return t
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
