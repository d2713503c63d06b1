package inbound

import (
	"fmt"
	"strings"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
)

// sharedMailbox is the local-part of the catch-all inbox. Mail addressed to
// it directly carries no routing information, so the token must come from
// plus-addressing.
const sharedMailbox = "plans"

// ExtractToken pulls the forwarding token out of a recipient address.
//
// Plus-addressing wins when present: "plans+a1b2c3@in.example.com" → "a1b2c3".
// Otherwise the address local-part itself is the token
// ("a1b2c3@in.example.com" → "a1b2c3"), unless it is the shared mailbox
// sentinel. Display-name forms like `"Trip Plans" <plans+x@d>` are unwrapped
// first. Returns domain.ErrBadAddress when no pattern matches.
func ExtractToken(recipient string) (string, error) {
	addr := stripDisplayName(recipient)

	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		return "", fmt.Errorf("inbound.ExtractToken: %q: %w", recipient, domain.ErrBadAddress)
	}
	local := addr[:at]

	if plus := strings.Index(local, "+"); plus >= 0 {
		token := local[plus+1:]
		if token == "" {
			return "", fmt.Errorf("inbound.ExtractToken: empty plus tag in %q: %w", recipient, domain.ErrBadAddress)
		}
		return strings.ToLower(token), nil
	}

	if strings.EqualFold(local, sharedMailbox) {
		return "", fmt.Errorf("inbound.ExtractToken: shared mailbox without token in %q: %w", recipient, domain.ErrBadAddress)
	}
	return strings.ToLower(local), nil
}

// stripDisplayName reduces `"Name" <addr@domain>` to `addr@domain` and trims
// whitespace. Addresses without angle brackets pass through unchanged.
func stripDisplayName(s string) string {
	s = strings.TrimSpace(s)
	if open := strings.LastIndex(s, "<"); open >= 0 {
		if close := strings.Index(s[open:], ">"); close > 0 {
			return strings.TrimSpace(s[open+1 : open+close])
		}
	}
	return s
}
