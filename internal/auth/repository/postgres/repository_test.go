package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jacintalama/socsargen-system/internal/auth/domain"
	repo "github.com/Jacintalama/socsargen-system/internal/auth/repository/postgres"
)

var accountColumns = []string{
	"id", "email", "password", "first_name", "last_name", "coalesce",
	"role", "is_active", "failed_login_attempts", "last_failed_login",
	"locked_until", "session_token", "created_at", "updated_at",
}

func accountRow() *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(accountColumns).AddRow(
		"user-1", "patient@example.com", "$argon2id$stored", "Ana", "Reyes", "",
		domain.RolePatient, true, 0, nil, nil, nil, now, now)
}

func TestGetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewRepository(mock)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, email, password`).
			WithArgs("patient@example.com").
			WillReturnRows(accountRow())

		account, err := r.GetByEmail(ctx, "patient@example.com")
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, "user-1", account.ID)
		assert.Equal(t, domain.RolePatient, account.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent returns nil, nil", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, email, password`).
			WithArgs("nobody@example.com").
			WillReturnRows(pgxmock.NewRows(accountColumns))

		account, err := r.GetByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, account)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewRepository(mock)
	now := time.Now()
	account := &domain.Account{
		ID: "user-1", Email: "patient@example.com", PasswordHash: "$argon2id$stored",
		FirstName: "Ana", LastName: "Reyes", Role: domain.RolePatient, IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(account.ID, account.Email, account.PasswordHash,
			account.FirstName, account.LastName, account.Phone,
			account.Role, account.IsActive, account.CreatedAt, account.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.Create(context.Background(), account))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLoginFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewRepository(mock)

	// The increment and the read-back are one statement, so parallel
	// failures cannot lose updates.
	mock.ExpectQuery(`UPDATE users SET`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"failed_login_attempts"}).AddRow(5))

	attempts, err := r.RecordLoginFailure(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 5, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockAccount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewRepository(mock)
	until := time.Now().Add(15 * time.Minute)

	mock.ExpectExec(`UPDATE users SET locked_until`).
		WithArgs(until, "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, r.LockAccount(context.Background(), "user-1", until))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeRefreshToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewRepository(mock)
	ctx := context.Background()

	t.Run("live token is revoked and owner returned", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE refresh_tokens rt SET revoked = true`).
			WithArgs("lookup-hash").
			WillReturnRows(pgxmock.NewRows([]string{"id", "email", "first_name", "last_name", "role"}).
				AddRow("user-1", "patient@example.com", "Ana", "Reyes", domain.RolePatient))

		account, err := r.ConsumeRefreshToken(ctx, "lookup-hash")
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, "user-1", account.ID)
		assert.True(t, account.IsActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("consumed or unknown token yields no row", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE refresh_tokens rt SET revoked = true`).
			WithArgs("stale-hash").
			WillReturnRows(pgxmock.NewRows([]string{"id", "email", "first_name", "last_name", "role"}))

		account, err := r.ConsumeRefreshToken(ctx, "stale-hash")
		require.NoError(t, err)
		assert.Nil(t, account)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStoreRefreshToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewRepository(mock)
	token := &domain.RefreshToken{
		ID: "rt-1", UserID: "user-1", TokenHash: "lookup-hash",
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour), CreatedAt: time.Now(),
	}

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(token.ID, token.UserID, token.TokenHash, token.ExpiresAt, token.Revoked, token.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.StoreRefreshToken(context.Background(), token))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeAllRefreshTokens(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewRepository(mock)

	mock.ExpectExec(`UPDATE refresh_tokens SET revoked = true`).
		WithArgs("user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	require.NoError(t, r.RevokeAllRefreshTokens(context.Background(), "user-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSecurityEvent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewRepository(mock)
	userID := "user-1"
	email := "patient@example.com"
	event := &domain.SecurityEvent{
		Type:      domain.EventLoginSuccess,
		UserID:    &userID,
		Email:     &email,
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
		Details:   map[string]any{"rehashed": false},
	}

	mock.ExpectExec(`INSERT INTO security_audit_log`).
		WithArgs(event.Type, event.UserID, event.Email, event.IPAddress, event.UserAgent,
			[]byte(`{"rehashed":false}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.InsertSecurityEvent(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetLoginFailures(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewRepository(mock)

	mock.ExpectExec(`UPDATE users SET failed_login_attempts = 0`).
		WithArgs("user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, r.ResetLoginFailures(context.Background(), "user-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetSessionToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewRepository(mock)

	t.Run("set", func(t *testing.T) {
		token := "access-jwt"
		mock.ExpectExec(`UPDATE users SET session_token`).
			WithArgs(&token, "user-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, r.SetSessionToken(context.Background(), "user-1", &token))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("clear", func(t *testing.T) {
		mock.ExpectExec(`UPDATE users SET session_token`).
			WithArgs((*string)(nil), "user-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, r.SetSessionToken(context.Background(), "user-1", nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
