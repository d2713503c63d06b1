package service

import (
	"context"
	"time"
)

// Test hooks for injecting deterministic time and sleep behaviour. Kept in an
// export_test file so the fields stay unexported in production builds.

// SetClock overrides the ClaimStore's time source.
func SetClock(s *ClaimStore, now func() time.Time) {
	s.now = now
}

// SetResolverTiming overrides the resolver's sleep and jitter functions so
// tests run instantly and can observe that the recheck pause happened.
func SetResolverTiming(r *TripResolver, sleep func(ctx context.Context, d time.Duration), jitter func() time.Duration) {
	r.sleep = sleep
	r.jitter = jitter
}
