package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// record does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrBadMessage is returned by the ingress normalizer when a webhook payload
// has neither a recipient nor a body in any accepted shape.
// Handlers should map this to HTTP 400.
var ErrBadMessage = errors.New("malformed inbound message")

// ErrBadAddress is returned when no forwarding token can be extracted from
// the recipient address. Handlers should map this to HTTP 400.
var ErrBadAddress = errors.New("unresolvable recipient address")

// ErrUnknownToken is returned when a forwarding token matches no profile.
// Handlers should map this to HTTP 403.
var ErrUnknownToken = errors.New("unknown forwarding token")

// ErrExtractionInvalid is returned when the extraction collaborator's output
// is missing required fields (trip name, destination, dates, or at least one
// reservation) or contains an unparseable required date.
// Handlers should map this to HTTP 500; the claim is marked failed so the
// message can be retried.
var ErrExtractionInvalid = errors.New("invalid extraction output")
