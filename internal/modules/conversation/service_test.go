// README: Conversation state machine flow tests with an in-memory store.
package conversation

import (
	"context"
	"encoding/json"
	"math/rand"
	"reflect"
	"sync"
	"testing"
	"time"

	"wander/internal/types"
)

type memStore struct {
	mu       sync.Mutex
	sessions map[types.ID]*Context
}

func newMemStore() *memStore {
	return &memStore{sessions: map[types.ID]*Context{}}
}

func (m *memStore) Save(_ context.Context, c *Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.sessions[c.SessionID] = &cp
	return nil
}

func (m *memStore) Get(_ context.Context, id types.ID) (*Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) Delete(_ context.Context, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func newTestService() *Service {
	return NewService(newMemStore(), NewComposer(rand.New(rand.NewSource(1))), 30*time.Minute)
}

// send runs one turn against an existing context via its serialized form.
func send(t *testing.T, svc *Service, c *Context, text string) (*Context, Response) {
	t.Helper()
	serialized := ""
	if c != nil {
		var err error
		serialized, err = c.Encode()
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	next, resp, err := svc.ProcessMessage(context.Background(), "", serialized, text)
	if err != nil {
		t.Fatalf("process %q: %v", text, err)
	}
	return next, resp
}

func TestGreetingStaysCollectingDestination(t *testing.T) {
	svc := newTestService()

	c, resp := send(t, svc, nil, "hello")
	if c.State != StateCollectingDestination {
		t.Fatalf("state = %s, want %s", c.State, StateCollectingDestination)
	}
	if resp.Kind != ResponseQuestion || resp.AwaitingSlot != SlotDestination {
		t.Fatalf("response = %+v, want destination question", resp)
	}

	c, resp = send(t, svc, c, "Paris")
	if c.State != StateCollectingDates {
		t.Fatalf("state after destination = %s, want %s", c.State, StateCollectingDates)
	}
	if !reflect.DeepEqual(c.Data.Destinations, []string{"Paris"}) {
		t.Fatalf("destinations = %v", c.Data.Destinations)
	}
	if resp.AwaitingSlot != SlotDates {
		t.Fatalf("awaiting = %s, want dates", resp.AwaitingSlot)
	}
}

func TestFullFlowToGeneration(t *testing.T) {
	svc := newTestService()

	c, _ := send(t, svc, nil, "I want to go to Paris")
	if c.State != StateCollectingDates {
		t.Fatalf("opening message should fill destination, state = %s", c.State)
	}

	c, _ = send(t, svc, c, "2025-09-25")
	if c.State != StateCollectingDuration {
		t.Fatalf("state = %s, want collecting_duration", c.State)
	}

	c, _ = send(t, svc, c, "5 days")
	if c.State != StateCollectingTravelers {
		t.Fatalf("state = %s, want collecting_travelers", c.State)
	}

	c, _ = send(t, svc, c, "just me")
	if c.State != StateCollectingPreferences {
		t.Fatalf("state = %s, want collecting_preferences", c.State)
	}

	c, resp := send(t, svc, c, "museums and food")
	if c.State != StateConfirmingDetails {
		t.Fatalf("state = %s, want confirming_details", c.State)
	}
	if resp.Kind != ResponseConfirmation {
		t.Fatalf("response kind = %s, want confirmation", resp.Kind)
	}

	c, resp = send(t, svc, c, "yes")
	if c.State != StateGenerating {
		t.Fatalf("state = %s, want generating", c.State)
	}
	if resp.Kind != ResponseStartGeneration {
		t.Fatalf("response kind = %s, want start_generation", resp.Kind)
	}
	if !resp.Data.ReadyToGenerate() {
		t.Fatalf("start signal with incomplete data: %+v", resp.Data)
	}
	if !reflect.DeepEqual(resp.Data.DaysPerCity, []int{5}) {
		t.Fatalf("single-city allocation = %v, want [5]", resp.Data.DaysPerCity)
	}
	if resp.Data.EndDate != "2025-09-29" {
		t.Fatalf("end date = %s, want 2025-09-29", resp.Data.EndDate)
	}
}

func TestMultiCityOpeningSkipsSlots(t *testing.T) {
	svc := newTestService()

	c, resp := send(t, svc, nil, "3 days in London then 2 days in Paris")
	if c.State != StateCollectingDates {
		t.Fatalf("state = %s, want collecting_dates", c.State)
	}
	if resp.AwaitingSlot != SlotDates {
		t.Fatalf("awaiting = %s, want dates", resp.AwaitingSlot)
	}
	if !reflect.DeepEqual(c.Data.Destinations, []string{"London", "Paris"}) {
		t.Fatalf("destinations = %v", c.Data.Destinations)
	}
	if !reflect.DeepEqual(c.Data.DaysPerCity, []int{3, 2}) {
		t.Fatalf("allocation = %v", c.Data.DaysPerCity)
	}
	if c.Data.DurationDays != 5 {
		t.Fatalf("duration = %d, want 5", c.Data.DurationDays)
	}
}

func TestClarificationNeverAdvances(t *testing.T) {
	svc := newTestService()

	c, _ := send(t, svc, nil, "hello")
	before := c.State

	c, resp := send(t, svc, c, "Europe")
	if c.State != before {
		t.Fatalf("vague input advanced state to %s", c.State)
	}
	if len(c.Data.Destinations) != 0 {
		t.Fatalf("vague input populated destinations: %v", c.Data.Destinations)
	}
	if resp.Kind != ResponseQuestion {
		t.Fatalf("response kind = %s, want question", resp.Kind)
	}
}

// Generation must never start without both destination and duration, no
// matter what the user replies along the way.
func TestNoStartGenerationWithoutRequiredSlots(t *testing.T) {
	svc := newTestService()

	var c *Context
	var resp Response
	for _, text := range []string{"hello", "yes", "ok", "sure", "yes please"} {
		c, resp = send(t, svc, c, text)
		if resp.Kind == ResponseStartGeneration {
			t.Fatalf("start signal emitted after %q with data %+v", text, c.Data)
		}
	}
}

func TestOptionalSlotsAdvanceOnUnrecognizedInput(t *testing.T) {
	svc := newTestService()

	c, _ := send(t, svc, nil, "Lisbon")
	c, _ = send(t, svc, c, "next week")
	c, _ = send(t, svc, c, "4 days")
	if c.State != StateCollectingTravelers {
		t.Fatalf("state = %s, want collecting_travelers", c.State)
	}

	// Unrecognizable traveler input still moves on.
	c, _ = send(t, svc, c, "whoever shows up")
	if c.State != StateCollectingPreferences {
		t.Fatalf("travelers uncertainty blocked progress, state = %s", c.State)
	}
	if c.Data.Travelers != "" {
		t.Fatalf("travelers guessed as %q from nothing", c.Data.Travelers)
	}

	c, _ = send(t, svc, c, "nothing in particular")
	if c.State != StateConfirmingDetails {
		t.Fatalf("empty preferences blocked progress, state = %s", c.State)
	}
}

func TestRejectionEntersModifying(t *testing.T) {
	svc := newTestService()

	c, _ := send(t, svc, nil, "4 days in Rome and 3 days in Florence")
	c, _ = send(t, svc, c, "flexible")
	c, _ = send(t, svc, c, "just me")
	c, _ = send(t, svc, c, "nothing in particular")
	if c.State != StateConfirmingDetails {
		t.Fatalf("state = %s, want confirming_details", c.State)
	}

	c, resp := send(t, svc, c, "no, change it")
	if c.State != StateModifying {
		t.Fatalf("state = %s, want modifying", c.State)
	}
	if resp.Kind != ResponseQuestion {
		t.Fatalf("response kind = %s", resp.Kind)
	}

	// A duration correction is picked up and we loop back to confirmation.
	c, resp = send(t, svc, c, "10 days")
	if c.Data.DurationDays != 10 {
		t.Fatalf("duration = %d, want 10", c.Data.DurationDays)
	}
	if c.State != StateConfirmingDetails {
		t.Fatalf("state = %s, want confirming_details", c.State)
	}
	if resp.Kind != ResponseConfirmation {
		t.Fatalf("response kind = %s, want confirmation", resp.Kind)
	}
	// The old 4/3 split no longer matches 10 days and must be recomputed.
	if !reflect.DeepEqual(c.Data.DaysPerCity, []int(nil)) && !reflect.DeepEqual(c.Data.DaysPerCity, []int{5, 5}) {
		t.Fatalf("stale allocation survived: %v", c.Data.DaysPerCity)
	}
}

func TestAmbiguousConfirmationReasks(t *testing.T) {
	svc := newTestService()

	c, _ := send(t, svc, nil, "3 days in London then 2 days in Paris")
	c, _ = send(t, svc, c, "flexible")
	c, _ = send(t, svc, c, "solo")
	c, _ = send(t, svc, c, "nothing special")
	if c.State != StateConfirmingDetails {
		t.Fatalf("state = %s", c.State)
	}

	c, resp := send(t, svc, c, "the weather looks nice")
	if c.State != StateConfirmingDetails {
		t.Fatalf("ambiguous reply moved state to %s", c.State)
	}
	if resp.Kind != ResponseConfirmation {
		t.Fatalf("response kind = %s, want re-ask confirmation", resp.Kind)
	}
}

func TestIdleTimeoutStartsFresh(t *testing.T) {
	svc := newTestService()
	base := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	c, _ := send(t, svc, nil, "Paris")
	oldSession := c.SessionID
	if len(c.Data.Destinations) == 0 {
		t.Fatal("destination not collected")
	}

	svc.now = func() time.Time { return base.Add(31 * time.Minute) }
	c, resp := send(t, svc, c, "5 days")
	if c.SessionID == oldSession {
		t.Fatal("expired session was reused")
	}
	if len(c.Data.Destinations) != 0 {
		t.Fatalf("stale data survived timeout: %v", c.Data.Destinations)
	}
	// "5 days" opens the fresh session and is not a destination.
	if resp.Kind != ResponseQuestion {
		t.Fatalf("response kind = %s", resp.Kind)
	}
}

func TestSessionResolvedFromStore(t *testing.T) {
	svc := newTestService()

	c, _ := send(t, svc, nil, "Paris")

	next, resp, err := svc.ProcessMessage(context.Background(), c.SessionID, "", "next week")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if next.SessionID != c.SessionID {
		t.Fatalf("store lookup created a new session")
	}
	if next.State != StateCollectingDuration {
		t.Fatalf("state = %s, want collecting_duration", next.State)
	}
	if resp.AwaitingSlot != SlotDuration {
		t.Fatalf("awaiting = %s", resp.AwaitingSlot)
	}
}

func TestGenerationCallbacks(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	c, _ := send(t, svc, nil, "3 days in London then 2 days in Paris")
	c, _ = send(t, svc, c, "flexible")
	c, _ = send(t, svc, c, "solo")
	c, _ = send(t, svc, c, "food")
	c, _ = send(t, svc, c, "yes")
	if c.State != StateGenerating {
		t.Fatalf("state = %s", c.State)
	}

	if err := svc.HandleGenerationComplete(ctx, c); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if c.State != StateShowingItinerary {
		t.Fatalf("state after completion = %s", c.State)
	}

	// Failure path on a second session returns to confirmation.
	d, _ := send(t, svc, nil, "3 days in London then 2 days in Paris")
	d, _ = send(t, svc, d, "flexible")
	d, _ = send(t, svc, d, "solo")
	d, _ = send(t, svc, d, "food")
	d, _ = send(t, svc, d, "yes")
	if err := svc.HandleGenerationFailed(ctx, d); err != nil {
		t.Fatalf("failed: %v", err)
	}
	if d.State != StateConfirmingDetails {
		t.Fatalf("state after failure = %s", d.State)
	}
}

// The start signal must keep its finalized parameters through JSON
// serialization; boundary callers read them off the wire.
func TestStartGenerationResponseSerializesData(t *testing.T) {
	svc := newTestService()

	c, _ := send(t, svc, nil, "3 days in London then 2 days in Paris")
	c, _ = send(t, svc, c, "2025-09-25")
	c, _ = send(t, svc, c, "just me")
	c, resp := send(t, svc, c, "food and museums")
	if resp.Kind != ResponseConfirmation {
		t.Fatalf("expected confirmation, got %+v", resp)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal confirmation: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal confirmation: %v", err)
	}
	if _, ok := fields["data"]; ok {
		t.Errorf("confirmation should not carry a data payload: %s", raw)
	}

	_, resp = send(t, svc, c, "yes")
	if resp.Kind != ResponseStartGeneration {
		t.Fatalf("expected start_generation, got %+v", resp)
	}
	raw, err = json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal start signal: %v", err)
	}
	var decoded struct {
		Data struct {
			Destinations []string `json:"destinations"`
			DaysPerCity  []int    `json:"days_per_city"`
			DurationDays int      `json:"duration_days"`
			StartDate    string   `json:"start_date"`
			EndDate      string   `json:"end_date"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal start signal: %v", err)
	}
	if !reflect.DeepEqual(decoded.Data.Destinations, []string{"London", "Paris"}) {
		t.Errorf("destinations = %v", decoded.Data.Destinations)
	}
	if !reflect.DeepEqual(decoded.Data.DaysPerCity, []int{3, 2}) {
		t.Errorf("allocation = %v", decoded.Data.DaysPerCity)
	}
	if decoded.Data.DurationDays != 5 {
		t.Errorf("duration = %d, want 5", decoded.Data.DurationDays)
	}
	if decoded.Data.StartDate != "2025-09-25" || decoded.Data.EndDate != "2025-09-29" {
		t.Errorf("dates = %q..%q", decoded.Data.StartDate, decoded.Data.EndDate)
	}
}
