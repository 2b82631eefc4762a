package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Jacintalama/socsargen-system/internal/auth/domain"
)

// Querier is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db Querier
}

func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

const accountColumns = `id, email, password, first_name, last_name, COALESCE(phone, ''), role, is_active,
		failed_login_attempts, last_failed_login, locked_until, session_token, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(
		&account.ID, &account.Email, &account.PasswordHash,
		&account.FirstName, &account.LastName, &account.Phone,
		&account.Role, &account.IsActive,
		&account.FailedLoginAttempts, &account.LastFailedLogin,
		&account.LockedUntil, &account.SessionToken,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}

	return &account, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM users
		WHERE lower(email) = lower($1)
		LIMIT 1`

	return scanAccount(r.db.QueryRow(ctx, query, email))
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM users
		WHERE id = $1 AND is_active = true
		LIMIT 1`

	return scanAccount(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) Create(ctx context.Context, account *domain.Account) error {
	query := `INSERT INTO users (id, email, password, first_name, last_name, phone, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		account.ID, account.Email, account.PasswordHash,
		account.FirstName, account.LastName, account.Phone,
		account.Role, account.IsActive, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *Repository) UpdateProfile(ctx context.Context, id string, firstName, lastName, phone *string) (*domain.Account, error) {
	query := `UPDATE users SET
			first_name = COALESCE($1, first_name),
			last_name = COALESCE($2, last_name),
			phone = COALESCE($3, phone),
			updated_at = now()
		WHERE id = $4 AND is_active = true
		RETURNING ` + accountColumns

	return scanAccount(r.db.QueryRow(ctx, query, firstName, lastName, phone, id))
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET password = $1, updated_at = now() WHERE id = $2`,
		passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}

	return nil
}

func (r *Repository) RecordConsent(ctx context.Context, entries []domain.ConsentLog) error {
	for _, entry := range entries {
		_, err := r.db.Exec(ctx,
			`INSERT INTO consent_logs (user_id, consent_type, consented, ip_address, user_agent)
			VALUES ($1, $2, $3, $4, $5)`,
			entry.UserID, entry.ConsentType, entry.Consented, entry.IPAddress, entry.UserAgent)
		if err != nil {
			return fmt.Errorf("insert consent log: %w", err)
		}
	}

	return nil
}

// RecordLoginFailure is a single atomic increment-and-read, so N concurrent
// failed attempts always net exactly N on the counter.
func (r *Repository) RecordLoginFailure(ctx context.Context, id string) (int, error) {
	var attempts int
	err := r.db.QueryRow(ctx,
		`UPDATE users SET
			failed_login_attempts = failed_login_attempts + 1,
			last_failed_login = now()
		WHERE id = $1
		RETURNING failed_login_attempts`,
		id).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("record login failure: %w", err)
	}

	return attempts, nil
}

// LockAccount only ever extends a lock. When racing failures compute
// different tiers, the longest one sticks regardless of write order.
func (r *Repository) LockAccount(ctx context.Context, id string, until time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET locked_until = $1
		WHERE id = $2 AND (locked_until IS NULL OR locked_until < $1)`,
		until, id)
	if err != nil {
		return fmt.Errorf("lock account: %w", err)
	}

	return nil
}

func (r *Repository) ResetLoginFailures(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET failed_login_attempts = 0, locked_until = NULL, last_failed_login = NULL
		WHERE id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("reset login failures: %w", err)
	}

	return nil
}

func (r *Repository) SetSessionToken(ctx context.Context, id string, token *string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET session_token = $1 WHERE id = $2`,
		token, id)
	if err != nil {
		return fmt.Errorf("set session token: %w", err)
	}

	return nil
}

func (r *Repository) StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		token.ID, token.UserID, token.TokenHash, token.ExpiresAt, token.Revoked, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// ConsumeRefreshToken revokes the matching live token and returns its active
// owner in one statement. Two concurrent exchanges of the same secret race
// on revoked = false; exactly one sees a row.
func (r *Repository) ConsumeRefreshToken(ctx context.Context, tokenHash string) (*domain.Account, error) {
	query := `UPDATE refresh_tokens rt SET revoked = true
		FROM users u
		WHERE rt.token_hash = $1
			AND rt.revoked = false
			AND rt.expires_at > now()
			AND u.id = rt.user_id
			AND u.is_active = true
		RETURNING u.id, u.email, u.first_name, u.last_name, u.role`

	var account domain.Account
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(
		&account.ID, &account.Email, &account.FirstName, &account.LastName, &account.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	account.IsActive = true

	return &account, nil
}

func (r *Repository) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE user_id = $1 AND revoked = false`,
		userID)
	if err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}

	return nil
}

func (r *Repository) InsertSecurityEvent(ctx context.Context, event *domain.SecurityEvent) error {
	var details []byte
	if event.Details != nil {
		var err error
		details, err = json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("marshal event details: %w", err)
		}
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO security_audit_log (event_type, user_id, email, ip_address, user_agent, details)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.Type, event.UserID, event.Email, event.IPAddress, event.UserAgent, details)
	if err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}

	return nil
}
