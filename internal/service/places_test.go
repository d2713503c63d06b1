package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/justingrant1/triptrackv3-sub001/internal/service"
)

func TestIsUnknownDestination(t *testing.T) {
	tests := []struct {
		dest string
		want bool
	}{
		{"", true},
		{"unknown", true},
		{"Unknown", true},
		{"  UNKNOWN DESTINATION  ", true},
		{"TBD", true},
		{"n/a", true},
		{"Multiple Destinations", true},
		{"Tokyo", false},
		{"Unknownville", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, service.IsUnknownDestination(tt.dest), "dest=%q", tt.dest)
	}
}

func TestDestinationsRelated(t *testing.T) {
	tests := []struct {
		name         string
		newDest      string
		existingDest string
		tripName     string
		regionHint   string
		want         bool
		wantRule     service.MatchRule
	}{
		{
			name:         "exact after normalization",
			newDest:      "  Tokyo ",
			existingDest: "tokyo",
			want:         true,
			wantRule:     service.MatchEqual,
		},
		{
			name:         "substring one way",
			newDest:      "Paris, France",
			existingDest: "Paris",
			want:         true,
			wantRule:     service.MatchSubstring,
		},
		{
			name:         "substring other way",
			newDest:      "Kyoto",
			existingDest: "Kyoto, Japan",
			want:         true,
			wantRule:     service.MatchSubstring,
		},
		{
			name:         "trip name contains destination",
			newDest:      "Honolulu",
			existingDest: "Oahu",
			tripName:     "Honolulu Anniversary",
			want:         true,
			wantRule:     service.MatchTripName,
		},
		{
			name:         "shared token longer than two chars",
			newDest:      "Denpasar, Bali",
			existingDest: "Ubud, Bali",
			want:         true,
			wantRule:     service.MatchSharedToken,
		},
		{
			name:         "region hint matches existing destination",
			newDest:      "Narita Airport",
			existingDest: "Tokyo, Japan",
			regionHint:   "Japan",
			want:         true,
			wantRule:     service.MatchRegion,
		},
		{
			name:         "region hint matches trip name",
			newDest:      "Haneda",
			existingDest: "Shinjuku",
			tripName:     "Japan Spring Tour",
			regionHint:   "Japan",
			want:         true,
			wantRule:     service.MatchRegion,
		},
		{
			name:         "short shared token is not enough",
			newDest:      "La Paz",
			existingDest: "La Rochelle",
			want:         false,
			wantRule:     service.MatchNone,
		},
		{
			name:         "unrelated places",
			newDest:      "Reykjavik",
			existingDest: "Cancun",
			tripName:     "Beach Week",
			want:         false,
			wantRule:     service.MatchNone,
		},
		{
			name:         "empty new destination never matches",
			newDest:      "",
			existingDest: "Tokyo",
			want:         false,
			wantRule:     service.MatchNone,
		},
		{
			name:         "empty existing destination never matches",
			newDest:      "Tokyo",
			existingDest: "",
			tripName:     "Tokyo Trip",
			want:         false,
			wantRule:     service.MatchNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rule := service.DestinationsRelated(tt.newDest, tt.existingDest, tt.tripName, tt.regionHint)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantRule, rule)
		})
	}
}
