package errors

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrInvalidRefreshToken    = errors.New("invalid or expired refresh token")
	ErrInvalidAccessToken     = errors.New("invalid or expired access token")
)

// AccountLockedError is returned when an account has accumulated too many
// failed login attempts and is still inside its lockout window.
type AccountLockedError struct {
	LockedUntil time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.LockedUntil.Format(time.RFC3339))
}

// MinutesRemaining reports the remaining lock time rounded up to whole
// minutes. Clients are only ever told the wait time, never the attempt count.
func (e *AccountLockedError) MinutesRemaining(now time.Time) int {
	remaining := e.LockedUntil.Sub(now)
	if remaining <= 0 {
		return 0
	}

	return int(math.Ceil(remaining.Minutes()))
}
