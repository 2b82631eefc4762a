package domain

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/Jacintalama/socsargen-system/internal/auth/domain UserRepository,EventStore

import (
	"context"
	"time"
)

type UserRepository interface {
	// GetByEmail matches case-insensitively and returns (nil, nil) when no
	// account exists, so callers cannot distinguish lookup failure from a
	// wrong password by error shape.
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, account *Account) error
	UpdateProfile(ctx context.Context, id string, firstName, lastName, phone *string) (*Account, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	RecordConsent(ctx context.Context, entries []ConsentLog) error

	// RecordLoginFailure increments the failed-attempt counter atomically and
	// returns the new count, so parallel failures never lose updates.
	RecordLoginFailure(ctx context.Context, id string) (int, error)
	LockAccount(ctx context.Context, id string, until time.Time) error
	ResetLoginFailures(ctx context.Context, id string) error
	SetSessionToken(ctx context.Context, id string, token *string) error

	StoreRefreshToken(ctx context.Context, token *RefreshToken) error
	// ConsumeRefreshToken atomically revokes the unrevoked, unexpired token
	// matching the lookup hash and returns its active owner. It returns
	// (nil, nil) when no such token exists, raced duplicates included.
	ConsumeRefreshToken(ctx context.Context, tokenHash string) (*Account, error)
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

// EventStore appends audit records. Callers go through the audit recorder,
// which keeps the best-effort contract in one place.
type EventStore interface {
	InsertSecurityEvent(ctx context.Context, event *SecurityEvent) error
}
