package inbound_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
	"github.com/justingrant1/triptrackv3-sub001/internal/inbound"
)

func jsonRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/inbound/email", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(t *testing.T, values url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/inbound/email", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestParseMessage_JSON(t *testing.T) {
	req := jsonRequest(t, `{
		"from": "noreply@airline.com",
		"to": "plans+a1b2c3@in.example.com",
		"subject": "Your flight confirmation",
		"text": "Flight AA1531 departs..."
	}`)

	msg, err := inbound.ParseMessage(req)

	require.NoError(t, err)
	assert.Equal(t, "noreply@airline.com", msg.From)
	assert.Equal(t, "plans+a1b2c3@in.example.com", msg.Recipient)
	assert.Equal(t, "Your flight confirmation", msg.Subject)
	assert.Equal(t, "Flight AA1531 departs...", msg.Body)
}

func TestParseMessage_JSON_RecipientFieldPreferredOverTo(t *testing.T) {
	req := jsonRequest(t, `{"from":"a@b.c","recipient":"r@d.e","to":"t@d.e","subject":"s","html":"<p>hi</p>"}`)

	msg, err := inbound.ParseMessage(req)

	require.NoError(t, err)
	assert.Equal(t, "r@d.e", msg.Recipient)
	assert.Equal(t, "<p>hi</p>", msg.Body, "html is used when text is absent")
}

func TestParseMessage_Form_MailgunFieldNames(t *testing.T) {
	req := formRequest(t, url.Values{
		"from":       {"hotel@resort.example"},
		"recipient":  {"a1b2c3@in.example.com"},
		"subject":    {"Reservation confirmed"},
		"body-plain": {"Check-in March 1"},
	})

	msg, err := inbound.ParseMessage(req)

	require.NoError(t, err)
	assert.Equal(t, "a1b2c3@in.example.com", msg.Recipient)
	assert.Equal(t, "Check-in March 1", msg.Body)
}

func TestParseMessage_Form_HTMLFallback(t *testing.T) {
	req := formRequest(t, url.Values{
		"from":      {"hotel@resort.example"},
		"to":        {"a1b2c3@in.example.com"},
		"subject":   {"s"},
		"body-html": {"<b>Check-in</b>"},
	})

	msg, err := inbound.ParseMessage(req)

	require.NoError(t, err)
	assert.Equal(t, "<b>Check-in</b>", msg.Body)
}

func TestParseMessage_MissingRecipient(t *testing.T) {
	req := jsonRequest(t, `{"from":"a@b.c","subject":"s","text":"body"}`)

	_, err := inbound.ParseMessage(req)

	assert.ErrorIs(t, err, domain.ErrBadMessage)
}

func TestParseMessage_MissingBody(t *testing.T) {
	req := formRequest(t, url.Values{"from": {"a@b.c"}, "to": {"x@y.z"}, "subject": {"s"}})

	_, err := inbound.ParseMessage(req)

	assert.ErrorIs(t, err, domain.ErrBadMessage)
}

func TestParseMessage_MalformedJSON(t *testing.T) {
	req := jsonRequest(t, `{"from": `)

	_, err := inbound.ParseMessage(req)

	assert.ErrorIs(t, err, domain.ErrBadMessage)
}
