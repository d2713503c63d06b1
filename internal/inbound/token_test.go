package inbound_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
	"github.com/justingrant1/triptrackv3-sub001/internal/inbound"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name      string
		recipient string
		want      string
	}{
		{"plus addressing", "plans+a1b2c3@in.example.com", "a1b2c3"},
		{"plus addressing uppercased token", "plans+A1B2C3@in.example.com", "a1b2c3"},
		{"bare local part is the token", "a1b2c3@in.example.com", "a1b2c3"},
		{"display name wrapper", `"Trip Plans" <plans+tok42@in.example.com>`, "tok42"},
		{"plus wins over local part", "user+realtoken@in.example.com", "realtoken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := inbound.ExtractToken(tt.recipient)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractToken_NoMatch(t *testing.T) {
	tests := []struct {
		name      string
		recipient string
	}{
		{"shared mailbox without plus tag", "plans@in.example.com"},
		{"shared mailbox case-insensitive", "PLANS@in.example.com"},
		{"empty plus tag", "plans+@in.example.com"},
		{"not an address", "not-an-address"},
		{"empty string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inbound.ExtractToken(tt.recipient)
			assert.ErrorIs(t, err, domain.ErrBadAddress)
		})
	}
}
