// README: Terminal demo: chat through slot collection, then watch a job generate.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"golang.org/x/time/rate"

	"wander/internal/ai"
	"wander/internal/config"
	"wander/internal/modules/conversation"
	"wander/internal/modules/generation"
	"wander/internal/types"
)

// memStore keeps the single demo session in memory.
type memStore struct {
	sessions map[types.ID]*conversation.Context
}

func (m *memStore) Save(_ context.Context, c *conversation.Context) error {
	m.sessions[c.SessionID] = c
	return nil
}

func (m *memStore) Get(_ context.Context, id types.ID) (*conversation.Context, error) {
	c, ok := m.sessions[id]
	if !ok {
		return nil, conversation.ErrSessionNotFound
	}
	return c, nil
}

func (m *memStore) Delete(_ context.Context, id types.ID) error {
	delete(m.sessions, id)
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	limiter := rate.NewLimiter(rate.Limit(float64(cfg.AI.RequestsPerMinute)/60.0), 1)
	planner, err := ai.NewGeminiPlanner(ctx, cfg.AI.GeminiKey, cfg.AI.Model, float32(cfg.AI.Temperature), limiter)
	if err != nil {
		log.Fatalf("gemini init: %v", err)
	}
	defer planner.Close()

	store := &memStore{sessions: map[types.ID]*conversation.Context{}}
	composer := conversation.NewComposer(rand.New(rand.NewSource(time.Now().UnixNano())))
	convSvc := conversation.NewService(store, composer, cfg.Session.TTL)
	registry := generation.NewRegistry(generation.NewOrchestrator(planner, nil))

	fmt.Println("Tell me about your trip (ctrl-d to quit):")
	scanner := bufio.NewScanner(os.Stdin)
	serialized := ""

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		convCtx, resp, err := convSvc.ProcessMessage(ctx, "", serialized, scanner.Text())
		if err != nil {
			log.Fatalf("process: %v", err)
		}
		serialized, err = convCtx.Encode()
		if err != nil {
			log.Fatalf("encode: %v", err)
		}
		fmt.Println(resp.Text)

		if resp.Kind != conversation.ResponseStartGeneration {
			continue
		}

		jobID, err := registry.Start(generation.Params{
			Destinations: resp.Data.Destinations,
			DaysPerCity:  resp.Data.DaysPerCity,
			TotalDays:    resp.Data.DurationDays,
			StartDate:    resp.Data.StartDate,
			DatePhrase:   resp.Data.DatePhrase,
			Travelers:    resp.Data.Travelers,
			Preferences:  resp.Data.Preferences,
		})
		if err != nil {
			log.Fatalf("start generation: %v", err)
		}

		watch(registry, jobID)
		return
	}
}

// watch polls the job once a second, printing progress until it finishes.
func watch(registry *generation.Registry, jobID types.ID) {
	lastStage := generation.Stage("")
	for {
		snap, err := registry.Poll(jobID)
		if err != nil {
			log.Fatalf("poll: %v", err)
		}
		if snap.Stage != lastStage {
			lastStage = snap.Stage
			if snap.City != "" {
				fmt.Printf("[%3d%%] %s (%s)\n", snap.Percent, snap.Stage, snap.City)
			} else {
				fmt.Printf("[%3d%%] %s\n", snap.Percent, snap.Stage)
			}
		}

		switch snap.Stage {
		case generation.StageComplete:
			printItinerary(snap.FinalItinerary)
			return
		case generation.StageError:
			fmt.Printf("generation failed: %s\n", snap.Error)
			return
		}
		time.Sleep(time.Second)
	}
}

func printItinerary(it *generation.Itinerary) {
	fmt.Printf("\n%s (%s to %s)\n", it.Title, it.StartDate, it.EndDate)
	if it.CostEstimate != "" {
		fmt.Printf("Estimated cost: %s\n", it.CostEstimate)
	}
	for _, day := range it.Days {
		fmt.Printf("\nDay %d (%s): %s\n", day.DayIndex, day.Date, day.Title)
		for _, act := range day.Activities {
			fmt.Printf("  %s  %s", act.Time, act.Description)
			if act.Venue != "" {
				fmt.Printf(" @ %s", act.Venue)
			}
			fmt.Println()
		}
	}
	for _, tip := range it.Tips {
		fmt.Printf("Tip: %s\n", tip)
	}
}
