package domain

import "time"

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

type Account struct {
	ID                  string
	Email               string
	PasswordHash        string
	FirstName           string
	LastName            string
	Phone               string
	Role                Role
	IsActive            bool
	FailedLoginAttempts int
	LastFailedLogin     *time.Time
	LockedUntil         *time.Time
	SessionToken        *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// LockState is the explicit two-state view of the nullable locked_until
// column: either the account accepts login attempts, or it is locked until a
// known instant.
type LockState struct {
	Locked bool
	Until  time.Time
}

// LockStateAt derives the lock state at the given instant. An expired lock
// counts as unlocked; the stale locked_until value is cleared on the next
// successful login.
func (a *Account) LockStateAt(now time.Time) LockState {
	if a.LockedUntil != nil && a.LockedUntil.After(now) {
		return LockState{Locked: true, Until: *a.LockedUntil}
	}

	return LockState{}
}
