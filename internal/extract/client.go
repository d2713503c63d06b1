// Package extract implements the client for the extraction collaborator: an
// LLM chat-completions API that turns raw email text into a structured trip
// guess. The model's output is treated as untrusted — the client validates
// shape only; date repair and timezone normalization happen downstream.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
)

// Client calls the extraction API.
type Client struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient constructs an extraction Client. model may be empty to use the
// provider account default.
func NewClient(apiURL, apiKey, model string) *Client {
	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// ExtractTrip sends one email to the extraction API and returns the parsed
// trip guess. existing is the user's current trips; they go into the prompt
// so the model aligns destination naming with what the user already has.
// Transient failures (network errors, HTTP 5xx and 429) are retried with
// fibonacci backoff, capped at three attempts. Returns
// domain.ErrExtractionInvalid when the model's answer is missing required
// fields.
func (c *Client) ExtractTrip(ctx context.Context, msg domain.InboundMessage, existing []domain.Trip) (domain.ParsedTrip, error) {
	prompt := buildPrompt(msg, existing)

	var parsed domain.ParsedTrip
	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		parsed, err = c.extractOnce(ctx, prompt)
		return err
	})
	if err != nil {
		return domain.ParsedTrip{}, err
	}

	if err := validateParsedTrip(parsed); err != nil {
		return domain.ParsedTrip{}, err
	}
	return parsed, nil
}

// extractOnce performs a single API round trip.
func (c *Client) extractOnce(ctx context.Context, prompt string) (domain.ParsedTrip, error) {
	reqBody := map[string]any{
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	if c.model != "" {
		reqBody["model"] = c.model
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return domain.ParsedTrip{}, fmt.Errorf("extract.Client.ExtractTrip: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return domain.ParsedTrip{}, fmt.Errorf("extract.Client.ExtractTrip: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ParsedTrip{}, retry.RetryableError(fmt.Errorf("extract.Client.ExtractTrip: send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ParsedTrip{}, retry.RetryableError(fmt.Errorf("extract.Client.ExtractTrip: read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("extract.Client.ExtractTrip: API status %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return domain.ParsedTrip{}, retry.RetryableError(err)
		}
		return domain.ParsedTrip{}, err
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return domain.ParsedTrip{}, fmt.Errorf("extract.Client.ExtractTrip: parse API response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return domain.ParsedTrip{}, fmt.Errorf("extract.Client.ExtractTrip: empty choices: %w", domain.ErrExtractionInvalid)
	}

	var parsed domain.ParsedTrip
	if err := json.Unmarshal([]byte(cleanJSONResponse(apiResp.Choices[0].Message.Content)), &parsed); err != nil {
		return domain.ParsedTrip{}, fmt.Errorf("extract.Client.ExtractTrip: parse trip JSON: %w", domain.ErrExtractionInvalid)
	}
	return parsed, nil
}

// cleanJSONResponse strips markdown fences and surrounding prose from an LLM
// reply, keeping the outermost JSON object.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || start > end {
		// No JSON object found; let the JSON parser produce the error.
		return content
	}
	return strings.TrimSpace(content[start : end+1])
}

// validateParsedTrip enforces the minimum shape required downstream: trip
// name, destination, both dates, and at least one reservation.
func validateParsedTrip(p domain.ParsedTrip) error {
	switch {
	case strings.TrimSpace(p.TripName) == "":
		return fmt.Errorf("extract: missing trip_name: %w", domain.ErrExtractionInvalid)
	case strings.TrimSpace(p.Destination) == "":
		return fmt.Errorf("extract: missing destination: %w", domain.ErrExtractionInvalid)
	case p.StartDate == "" || p.EndDate == "":
		return fmt.Errorf("extract: missing trip dates: %w", domain.ErrExtractionInvalid)
	case len(p.Reservations) == 0:
		return fmt.Errorf("extract: no reservations: %w", domain.ErrExtractionInvalid)
	}
	return nil
}

// buildPrompt builds the extraction prompt from the email and the user's
// existing trips.
func buildPrompt(msg domain.InboundMessage, existing []domain.Trip) string {
	var ctx strings.Builder
	if len(existing) > 0 {
		ctx.WriteString("\n### EXISTING TRIPS (align destination naming with these when the email clearly refers to one)\n")
		for _, t := range existing {
			fmt.Fprintf(&ctx, "- %s | %s | %s to %s\n",
				t.Name, t.Destination, t.StartDate.Format("2006-01-02"), t.EndDate.Format("2006-01-02"))
		}
	}

	return fmt.Sprintf(`You are an AI that extracts structured travel itinerary information from confirmation emails.

Analyze the email below and return a STRICT JSON object describing the trip and every reservation it confirms.

### OUTPUT FORMAT (STRICT JSON ONLY)

{
  "trip_name": "",
  "destination": "",
  "country": "",
  "region": "",
  "start_date": "YYYY-MM-DD",
  "end_date": "YYYY-MM-DD",
  "reservations": [
    {
      "type": "",
      "title": "",
      "subtitle": "",
      "start_time_local": "YYYY-MM-DDTHH:MM:SS",
      "end_time_local": "",
      "location": "",
      "address": "",
      "confirmation_number": "",
      "status": "",
      "details": {}
    }
  ]
}

### FIELD DEFINITIONS

trip_name
- Short human name for the trip (e.g. "Tokyo Trip", "Bali Getaway").

destination
- City-level place, "City, Region" when known (e.g. "Houston, TX"). Use "Unknown" only when the email gives no location at all.

type
- one of: "flight", "hotel", "car", "train", "meeting", "event"

start_time_local / end_time_local
- LOCAL wall-clock time at the venue, NO timezone suffix.

status
- "confirmed" or "cancelled". Cancellation emails MUST be "cancelled".

details
- String-to-string map with any extras. For flights always include:
  "flight_number", "departure_airport", "arrival_airport",
  "utc_offset" (departure, e.g. "+09:00"), "arrival_utc_offset".
  For other types include "utc_offset" of the location when inferable.

### CRITICAL RULES
- Output ONLY the JSON object, no explanations.
- Never invent confirmation numbers or dates not present in the text.
- Dates must be real calendar dates from the email.
%s
### Now extract the itinerary JSON from this email:

From: %s
Subject: %s

%s`, ctx.String(), msg.From, msg.Subject, msg.Body)
}
