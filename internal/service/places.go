// Package service contains the business logic of the ingestion pipeline:
// claim policy, trip resolution, reservation dedup, time normalization, and
// the orchestrator that sequences them. Services depend on repo interfaces,
// not implementations — no SQL lives here.
package service

import (
	"strings"
	"time"
)

// MatchRule identifies which relatedness rule decided that two destinations
// denote the same real-world trip. Carried for diagnostics and logging only.
type MatchRule string

const (
	MatchNone        MatchRule = ""
	MatchEqual       MatchRule = "equal"
	MatchSubstring   MatchRule = "substring"
	MatchTripName    MatchRule = "trip_name"
	MatchSharedToken MatchRule = "shared_token"
	MatchRegion      MatchRule = "region"
)

// unknownDestinations is the sentinel set for extraction output that carries
// no usable place. Compared after lowercasing and trimming.
var unknownDestinations = map[string]struct{}{
	"":                      {},
	"unknown":               {},
	"unknown destination":   {},
	"tbd":                   {},
	"n/a":                   {},
	"multiple destinations": {},
}

// IsUnknownDestination reports whether a parsed destination is one of the
// "model couldn't tell" sentinels.
func IsUnknownDestination(dest string) bool {
	_, ok := unknownDestinations[strings.ToLower(strings.TrimSpace(dest))]
	return ok
}

// DestinationsRelated decides whether a newly parsed destination and an
// existing trip describe the same place. It is a pure function of four
// strings; regionHint is the parsed region or country (may be empty).
//
// Rules, in order: exact equality; one destination a substring of the other;
// the trip name contains or is contained by the new destination; the two
// destinations share a token longer than two characters; the region/country
// hint is a substring of the existing destination or trip name.
func DestinationsRelated(newDest, existingDest, existingTripName, regionHint string) (bool, MatchRule) {
	nd := normalizePlace(newDest)
	ed := normalizePlace(existingDest)
	tn := normalizePlace(existingTripName)

	if nd == "" || ed == "" {
		return false, MatchNone
	}
	if nd == ed {
		return true, MatchEqual
	}
	if strings.Contains(nd, ed) || strings.Contains(ed, nd) {
		return true, MatchSubstring
	}
	if tn != "" && (strings.Contains(tn, nd) || strings.Contains(nd, tn)) {
		return true, MatchTripName
	}
	if sharesToken(nd, ed) {
		return true, MatchSharedToken
	}
	if rh := normalizePlace(regionHint); rh != "" {
		if strings.Contains(ed, rh) || strings.Contains(tn, rh) {
			return true, MatchRegion
		}
	}
	return false, MatchNone
}

// sharesToken reports whether two place strings share any token longer than
// two characters. Short tokens ("de", "la", state codes) match too
// aggressively to be trusted.
func sharesToken(a, b string) bool {
	bt := make(map[string]struct{})
	for _, tok := range placeTokens(b) {
		bt[tok] = struct{}{}
	}
	for _, tok := range placeTokens(a) {
		if _, ok := bt[tok]; ok {
			return true
		}
	}
	return false
}

// placeTokens splits a normalized place string on non-letter runs and keeps
// tokens longer than two characters.
func placeTokens(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z')
	})
	var out []string
	for _, f := range fields {
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}

// normalizePlace lowercases and trims a place string for comparison.
func normalizePlace(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// rangesOverlap reports whether [aStart, aEnd] and [bStart, bEnd] intersect
// after widening the second range by slackDays on both sides.
func rangesOverlap(aStart, aEnd, bStart, bEnd time.Time, slackDays int) bool {
	bStart = bStart.AddDate(0, 0, -slackDays)
	bEnd = bEnd.AddDate(0, 0, slackDays)
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}
