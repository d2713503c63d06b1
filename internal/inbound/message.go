// Package inbound normalizes webhook payloads into canonical messages and
// extracts forwarding tokens from recipient addresses. Everything here is
// pure parsing — no I/O, no persistence.
package inbound

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
)

// jsonPayload is the JSON wire shape. Providers disagree on field names, so
// both "to"/"recipient" and "text"/"html" are accepted.
type jsonPayload struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Text      string `json:"text"`
	HTML      string `json:"html"`
}

// ParseMessage turns an HTTP webhook request into a canonical InboundMessage.
// It accepts application/json and form-encoded bodies (both urlencoded and
// multipart). Returns domain.ErrBadMessage if no recipient or no body text
// can be found in any accepted shape.
func ParseMessage(r *http.Request) (domain.InboundMessage, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var msg domain.InboundMessage
	var err error
	switch {
	case ct == "application/json":
		msg, err = parseJSON(r.Body)
	default:
		msg, err = parseForm(r)
	}
	if err != nil {
		return domain.InboundMessage{}, err
	}

	if msg.Recipient == "" {
		return domain.InboundMessage{}, fmt.Errorf("inbound.ParseMessage: no recipient: %w", domain.ErrBadMessage)
	}
	if msg.Body == "" {
		return domain.InboundMessage{}, fmt.Errorf("inbound.ParseMessage: no body: %w", domain.ErrBadMessage)
	}
	return msg, nil
}

// parseJSON decodes the JSON payload shape {from, to|recipient, subject, text|html}.
func parseJSON(body io.Reader) (domain.InboundMessage, error) {
	var p jsonPayload
	if err := json.NewDecoder(body).Decode(&p); err != nil {
		return domain.InboundMessage{}, fmt.Errorf("inbound.ParseMessage: decode json: %w", domain.ErrBadMessage)
	}
	return domain.InboundMessage{
		From:      p.From,
		Recipient: firstNonEmpty(p.Recipient, p.To),
		Subject:   p.Subject,
		Body:      firstNonEmpty(p.Text, p.HTML),
	}, nil
}

// parseForm decodes the form-encoded payload shape used by mail providers
// like Mailgun: {from, to|recipient, subject, text|body-plain, html|body-html}.
func parseForm(r *http.Request) (domain.InboundMessage, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var form url.Values
	if ct == "multipart/form-data" {
		if err := r.ParseMultipartForm(4 << 20); err != nil {
			return domain.InboundMessage{}, fmt.Errorf("inbound.ParseMessage: parse multipart: %w", domain.ErrBadMessage)
		}
		form = r.MultipartForm.Value
	} else {
		if err := r.ParseForm(); err != nil {
			return domain.InboundMessage{}, fmt.Errorf("inbound.ParseMessage: parse form: %w", domain.ErrBadMessage)
		}
		form = r.PostForm
	}

	get := func(keys ...string) string {
		for _, k := range keys {
			if vs, ok := form[k]; ok && len(vs) > 0 && vs[0] != "" {
				return vs[0]
			}
		}
		return ""
	}

	return domain.InboundMessage{
		From:      get("from"),
		Recipient: get("recipient", "to"),
		Subject:   get("subject"),
		Body:      get("text", "body-plain", "html", "body-html"),
	}, nil
}

// firstNonEmpty returns the first non-empty string of its arguments.
func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
