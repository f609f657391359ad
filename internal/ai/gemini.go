package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// GeminiPlanner implements Planner using Google's Gemini models.
type GeminiPlanner struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	limiter *rate.Limiter
}

// NewGeminiPlanner initializes a new Gemini client. limiter bounds the request
// rate to the upstream API; it is injected so tests and callers own the
// throttling state instead of sharing a process-wide counter. Pass nil to
// disable throttling.
func NewGeminiPlanner(ctx context.Context, apiKey, modelName string, temperature float32, limiter *rate.Limiter) (*GeminiPlanner, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)

	// Force JSON response for structured parsing.
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(temperature)

	return &GeminiPlanner{
		client:  client,
		model:   model,
		limiter: limiter,
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiPlanner) Close() {
	p.client.Close()
}

func (p *GeminiPlanner) GenerateTripMetadata(ctx context.Context, req MetadataRequest) (*TripMetadata, error) {
	raw, err := p.generate(ctx, "metadata", buildMetadataPrompt(req))
	if err != nil {
		return nil, err
	}

	var meta TripMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, &UpstreamError{Op: "metadata", Reason: "unparseable JSON response", Err: err}
	}
	// A caller-fixed allocation is authoritative; the prompt forbids changing
	// it but the model is not trusted to comply.
	if len(req.DaysPerCity) == len(meta.Destinations) {
		meta.DaysPerCity = append([]int(nil), req.DaysPerCity...)
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (p *GeminiPlanner) GenerateCityItinerary(ctx context.Context, req CityRequest) (*CityItinerary, error) {
	raw, err := p.generate(ctx, "city", buildCityPrompt(req))
	if err != nil {
		return nil, err
	}

	var city CityItinerary
	if err := json.Unmarshal([]byte(raw), &city); err != nil {
		return nil, &UpstreamError{Op: "city", Reason: "unparseable JSON response", Err: err}
	}
	if err := city.Validate(); err != nil {
		return nil, err
	}
	return &city, nil
}

// generate runs one completion call and returns the cleaned response text.
func (p *GeminiPlanner) generate(ctx context.Context, op, prompt string) (string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", &UpstreamError{Op: op, Reason: "rate limit wait aborted", Err: err}
		}
	}

	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &UpstreamError{Op: op, Reason: "generation call failed", Err: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", upstreamf(op, "no response candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}

	// JSON mode should make fences impossible, but strip them anyway.
	return cleanJSONString(text.String()), nil
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
