package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
)

// completionResponse wraps content in the chat-completions envelope the
// client expects from the API.
func completionResponse(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"content":%q}}]}`, content)
}

const validTripJSON = `{
	"trip_name": "Tokyo Trip",
	"destination": "Tokyo, Japan",
	"country": "Japan",
	"start_date": "2026-02-17",
	"end_date": "2026-02-21",
	"reservations": [{
		"type": "flight",
		"title": "NH 7 to Tokyo",
		"start_time_local": "2026-02-17T11:00:00",
		"confirmation_number": "XYZ123",
		"status": "confirmed",
		"details": {"flight_number": "NH 7", "utc_offset": "-08:00", "arrival_utc_offset": "+09:00"}
	}]
}`

func testMessage() domain.InboundMessage {
	return domain.InboundMessage{
		From:    "noreply@ana.co.jp",
		Subject: "Your booking XYZ123",
		Body:    "Flight NH 7 departs 11:00 AM...",
	}
}

func TestExtractTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, completionResponse(validTripJSON))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "")
	got, err := c.ExtractTrip(context.Background(), testMessage(), nil)

	require.NoError(t, err)
	assert.Equal(t, "Tokyo Trip", got.TripName)
	assert.Equal(t, "Tokyo, Japan", got.Destination)
	require.Len(t, got.Reservations, 1)
	assert.Equal(t, domain.ReservationFlight, got.Reservations[0].Type)
	assert.Equal(t, "XYZ123", got.Reservations[0].ConfirmationNumber)
}

func TestExtractTrip_MarkdownFencedAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionResponse("Here is the itinerary:\n```json\n"+validTripJSON+"\n```"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "")
	got, err := c.ExtractTrip(context.Background(), testMessage(), nil)

	require.NoError(t, err)
	assert.Equal(t, "Tokyo Trip", got.TripName)
}

func TestExtractTrip_RetriesTransientErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, completionResponse(validTripJSON))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "")
	_, err := c.ExtractTrip(context.Background(), testMessage(), nil)

	require.NoError(t, err)
	assert.Equal(t, 2, calls, "first attempt should have been retried")
}

func TestExtractTrip_NoRetryOn4xx(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad-key", "")
	_, err := c.ExtractTrip(context.Background(), testMessage(), nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls, "auth failures must not be retried")
}

func TestExtractTrip_InvalidOutput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "sorry, I could not find a trip in this email"},
		{"missing destination", `{"trip_name":"T","start_date":"2026-01-01","end_date":"2026-01-02","reservations":[{"type":"hotel","title":"x","start_time_local":"2026-01-01T15:00:00","status":"confirmed"}]}`},
		{"missing dates", `{"trip_name":"T","destination":"Oslo","reservations":[{"type":"hotel","title":"x","start_time_local":"2026-01-01T15:00:00","status":"confirmed"}]}`},
		{"no reservations", `{"trip_name":"T","destination":"Oslo","start_date":"2026-01-01","end_date":"2026-01-02","reservations":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, completionResponse(tt.content))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "test-key", "")
			_, err := c.ExtractTrip(context.Background(), testMessage(), nil)

			assert.ErrorIs(t, err, domain.ErrExtractionInvalid)
		})
	}
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain JSON", `{"trip_name":"T"}`, `{"trip_name":"T"}`},
		{"markdown fenced", "```json\n{\"trip_name\":\"T\"}\n```", `{"trip_name":"T"}`},
		{"prose before and after", "Sure!\n{\"trip_name\":\"T\"}\nHope that helps.", `{"trip_name":"T"}`},
		{"no json at all", "no object here", "no object here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSONResponse(tt.input))
		})
	}
}

func TestBuildPrompt_IncludesExistingTrips(t *testing.T) {
	prompt := buildPrompt(testMessage(), []domain.Trip{
		{
			Name:        "Bali Getaway",
			Destination: "Denpasar, Bali",
			StartDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
		},
	})

	assert.Contains(t, prompt, "EXISTING TRIPS")
	assert.Contains(t, prompt, "Denpasar, Bali")
	assert.Contains(t, prompt, "Your booking XYZ123")
}
