package domain

// ParsedTrip is the transient output of the extraction collaborator: the
// model's best guess at the trip described by one email. Dates are ISO
// "2006-01-02" literals and times are local wall-clock literals; nothing here
// is trusted until the date validator and timezone normalizer have run.
type ParsedTrip struct {
	TripName     string              `json:"trip_name"`
	Destination  string              `json:"destination"`
	Country      string              `json:"country,omitempty"`
	Region       string              `json:"region,omitempty"`
	StartDate    string              `json:"start_date"`
	EndDate      string              `json:"end_date"`
	Reservations []ParsedReservation `json:"reservations"`
}

// ParsedReservation is one extracted reservation. StartTimeLocal/EndTimeLocal
// are wall-clock literals in the venue's local time; the matching UTC offsets
// live in Details (utc_offset, arrival_utc_offset for flights).
type ParsedReservation struct {
	Type               ReservationType   `json:"type"`
	Title              string            `json:"title"`
	Subtitle           string            `json:"subtitle,omitempty"`
	StartTimeLocal     string            `json:"start_time_local"`
	EndTimeLocal       string            `json:"end_time_local,omitempty"`
	Location           string            `json:"location,omitempty"`
	Address            string            `json:"address,omitempty"`
	ConfirmationNumber string            `json:"confirmation_number,omitempty"`
	Status             ReservationStatus `json:"status"`
	Details            map[string]string `json:"details,omitempty"`
}
