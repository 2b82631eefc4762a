package service

import "time"

// lockoutTier pairs a cumulative failed-attempt threshold with the lock
// duration it triggers.
type lockoutTier struct {
	attempts int
	duration time.Duration
}

var lockoutTiers = []lockoutTier{
	{attempts: 5, duration: 15 * time.Minute},
	{attempts: 10, duration: 30 * time.Minute},
	{attempts: 15, duration: 60 * time.Minute},
}

// LockoutDuration maps a cumulative failed-attempt count to a lock duration.
// The highest tier met wins; below the lowest tier there is no lock. The
// function is pure — the caller persists lockedUntil = now + duration.
func LockoutDuration(failedAttempts int) time.Duration {
	var duration time.Duration
	for _, tier := range lockoutTiers {
		if failedAttempts >= tier.attempts {
			duration = tier.duration
		}
	}

	return duration
}
