package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
)

const dateLayout = "2006-01-02"

// localTimeLayouts are tried in order when parsing a wall-clock literal.
var localTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	dateLayout,
}

// trailingZoneRe matches a trailing zone marker on a time literal: "Z" or a
// signed offset like "+09:00" / "-0800". Extraction output is supposed to be
// zone-free local time, but models append markers anyway. The offset needs
// all four digits so the day part of a bare date ("2026-02-17") is never
// mistaken for one.
var trailingZoneRe = regexp.MustCompile(`(Z|[+-]\d{2}:\d{2}|[+-]\d{4})$`)

// offsetRe matches a signed UTC offset: "+09:00", "-08:00", "+0530", "-07".
var offsetRe = regexp.MustCompile(`^([+-])(\d{1,2})(?::?(\d{2}))?$`)

// RepairDate parses an ISO date literal, clamping impossible days to the last
// valid day of the month ("2026-02-29" → 2026-02-28, "2026-04-31" →
// 2026-04-30). The second return is true when a correction was applied.
// Returns domain.ErrExtractionInvalid for literals that cannot be repaired.
func RepairDate(literal string) (time.Time, bool, error) {
	literal = strings.TrimSpace(literal)

	if t, err := time.Parse(dateLayout, literal); err == nil {
		return t, false, nil
	}

	// Parse failed. Split the literal and see if an out-of-range day is the
	// only problem — hallucinated dates like Feb 29 or Apr 31 are common in
	// extraction output.
	parts := strings.SplitN(literal, "-", 3)
	if len(parts) != 3 {
		return time.Time{}, false, fmt.Errorf("unparseable date %q: %w", literal, domain.ErrExtractionInvalid)
	}
	year, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	day, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false, fmt.Errorf("unparseable date %q: %w", literal, domain.ErrExtractionInvalid)
	}

	last := lastDayOfMonth(year, time.Month(month))
	if day <= last {
		// Day was in range yet parsing failed — not a clampable problem.
		return time.Time{}, false, fmt.Errorf("unparseable date %q: %w", literal, domain.ErrExtractionInvalid)
	}
	return time.Date(year, time.Month(month), last, 0, 0, 0, 0, time.UTC), true, nil
}

// lastDayOfMonth returns the number of days in the given month.
func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NormalizeLocalTime converts a local wall-clock literal plus a signed UTC
// offset into the true UTC instant: the literal is stripped of any trailing
// zone marker, parsed as if it were already UTC, and the offset is
// subtracted ("11:00" at "+09:00" → 02:00Z).
//
// A missing or unparseable offset falls back to treating the literal as UTC;
// the second return reports whether the offset was actually applied so the
// caller can log the fallback. An unparseable literal is an error.
func NormalizeLocalTime(literal, offset string) (time.Time, bool, error) {
	literal = strings.TrimSpace(literal)
	literal = strings.TrimSpace(trailingZoneRe.ReplaceAllString(literal, ""))

	var local time.Time
	var err error
	for _, layout := range localTimeLayouts {
		if local, err = time.Parse(layout, literal); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("unparseable time %q: %w", literal, domain.ErrExtractionInvalid)
	}

	d, ok := parseOffset(offset)
	if !ok {
		return local, false, nil
	}
	return local.Add(-d), true, nil
}

// parseOffset parses a signed UTC offset string into a duration.
func parseOffset(offset string) (time.Duration, bool) {
	m := offsetRe.FindStringSubmatch(strings.TrimSpace(offset))
	if m == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(m[2])
	minutes := 0
	if m[3] != "" {
		minutes, _ = strconv.Atoi(m[3])
	}
	if hours > 14 || minutes > 59 {
		return 0, false
	}
	d := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	if m[1] == "-" {
		d = -d
	}
	return d, true
}
