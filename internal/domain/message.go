package domain

// InboundMessage is the canonical form of a webhook payload: one email,
// regardless of whether the provider delivered it as JSON or form-encoded.
type InboundMessage struct {
	From      string
	Recipient string
	Subject   string
	Body      string
}

// Source identifies which entry point delivered a message. The two paths
// share the pipeline but differ in claim-cooldown and deleted-trip policy.
type Source string

const (
	// SourceForward is a direct user forward. Resubmission after the
	// cooldown window is honored, and deleted-trip suppression is
	// overridden.
	SourceForward Source = "forward"

	// SourceScan is an autonomous mailbox-scan delivery. No reforward
	// override; deleted-trip suppression applies.
	SourceScan Source = "scan"
)
