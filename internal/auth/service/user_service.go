package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Jacintalama/socsargen-system/internal/auth/audit"
	"github.com/Jacintalama/socsargen-system/internal/auth/domain"
	"github.com/Jacintalama/socsargen-system/internal/auth/dto"
	autherror "github.com/Jacintalama/socsargen-system/internal/errors"
)

// UserService orchestrates register/login/refresh/logout over the injected
// repository, hasher, token issuer and audit recorder. It owns the lockout
// state machine and the single-session policy; it holds no mutable state of
// its own, so one instance serves all requests.
type UserService struct {
	repo    domain.UserRepository
	tokens  TokenGenerator
	hasher  PasswordHasher
	events  audit.Recorder
	timeout time.Duration
}

func NewUserService(repo domain.UserRepository, tokens TokenGenerator, hasher PasswordHasher,
	events audit.Recorder, timeout time.Duration) *UserService {
	return &UserService{
		repo:    repo,
		tokens:  tokens,
		hasher:  hasher,
		events:  events,
		timeout: timeout,
	}
}

// opContext bounds every persistence call so no operation can block
// indefinitely on a wedged database.
func (s *UserService) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, s.timeout)
}

func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResult, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(input.Email))

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check existing email: %w", err)
	}
	if existing != nil {
		return nil, autherror.ErrEmailAlreadyRegistered
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	account := &domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Role:         domain.RolePatient,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	consent := []domain.ConsentLog{
		{UserID: account.ID, ConsentType: domain.ConsentPrivacyPolicy, Consented: input.PrivacyConsented(),
			IPAddress: input.IPAddress, UserAgent: input.UserAgent},
		{UserID: account.ID, ConsentType: domain.ConsentMarketing, Consented: input.ConsentMarketing,
			IPAddress: input.IPAddress, UserAgent: input.UserAgent},
	}
	if err := s.repo.RecordConsent(ctx, consent); err != nil {
		return nil, fmt.Errorf("record consent: %w", err)
	}

	result, err := s.issueSession(ctx, account)
	if err != nil {
		return nil, err
	}

	s.events.Record(ctx, audit.Event{
		Type:      domain.EventRegister,
		UserID:    account.ID,
		Email:     account.Email,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})

	return result, nil
}

func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResult, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(input.Email))

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("look up account: %w", err)
	}
	if account == nil || !account.IsActive {
		// Same client-facing error as a wrong password; only the audit
		// detail distinguishes them, for operators.
		s.events.Record(ctx, audit.Event{
			Type:      domain.EventLoginFailed,
			Email:     email,
			IPAddress: input.IPAddress,
			UserAgent: input.UserAgent,
			Details:   map[string]any{"reason": "account not found"},
		})

		return nil, autherror.ErrInvalidCredentials
	}

	now := time.Now()
	if lock := account.LockStateAt(now); lock.Locked {
		lockErr := &autherror.AccountLockedError{LockedUntil: lock.Until}
		// Password verification is deliberately skipped while locked.
		s.events.Record(ctx, audit.Event{
			Type:      domain.EventLoginLocked,
			UserID:    account.ID,
			Email:     email,
			IPAddress: input.IPAddress,
			UserAgent: input.UserAgent,
			Details: map[string]any{
				"minutesLeft":    lockErr.MinutesRemaining(now),
				"failedAttempts": account.FailedLoginAttempts,
			},
		})

		return nil, lockErr
	}

	verification, err := s.hasher.Verify(input.Password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !verification.Valid {
		return nil, s.handleFailedLogin(ctx, account, input)
	}

	if err := s.repo.ResetLoginFailures(ctx, account.ID); err != nil {
		return nil, fmt.Errorf("reset login failures: %w", err)
	}

	// Legacy bcrypt credential: migrate to Argon2id while we still hold the
	// plaintext. One-time, invisible to the user.
	if verification.NeedsRehash {
		newHash, err := s.hasher.Hash(input.Password)
		if err != nil {
			return nil, fmt.Errorf("rehash password: %w", err)
		}
		if err := s.repo.UpdatePasswordHash(ctx, account.ID, newHash); err != nil {
			return nil, fmt.Errorf("store rehashed password: %w", err)
		}
	}

	result, err := s.issueSession(ctx, account)
	if err != nil {
		return nil, err
	}

	s.events.Record(ctx, audit.Event{
		Type:      domain.EventLoginSuccess,
		UserID:    account.ID,
		Email:     email,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Details:   map[string]any{"rehashed": verification.NeedsRehash},
	})

	return result, nil
}

// handleFailedLogin applies the lockout policy after a wrong password. The
// counter increment is atomic in the repository, so parallel guesses cannot
// slip past a threshold.
func (s *UserService) handleFailedLogin(ctx context.Context, account *domain.Account, input dto.LoginInput) error {
	attempts, err := s.repo.RecordLoginFailure(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}

	duration := LockoutDuration(attempts)
	locked := duration > 0

	var until time.Time
	if locked {
		until = time.Now().Add(duration)
		if err := s.repo.LockAccount(ctx, account.ID, until); err != nil {
			return fmt.Errorf("lock account: %w", err)
		}
	}

	s.events.Record(ctx, audit.Event{
		Type:      domain.EventLoginFailed,
		UserID:    account.ID,
		Email:     account.Email,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Details:   map[string]any{"reason": "invalid password", "attempt": attempts, "locked": locked},
	})

	if locked {
		return &autherror.AccountLockedError{LockedUntil: until}
	}

	return autherror.ErrInvalidCredentials
}

func (s *UserService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.AuthResult, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	lookupHash := s.tokens.HashForLookup(input.RefreshToken)

	// Single conditional update: unknown, expired, revoked and raced
	// duplicates all come back as no match.
	account, err := s.repo.ConsumeRefreshToken(ctx, lookupHash)
	if err != nil {
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	if account == nil {
		s.events.Record(ctx, audit.Event{
			Type:      domain.EventRefreshFailed,
			IPAddress: input.IPAddress,
			UserAgent: input.UserAgent,
			Details:   map[string]any{"reason": "no matching token"},
		})

		return nil, autherror.ErrInvalidRefreshToken
	}

	result, err := s.issueSession(ctx, account)
	if err != nil {
		return nil, err
	}

	s.events.Record(ctx, audit.Event{
		Type:      domain.EventRefreshSuccess,
		UserID:    account.ID,
		Email:     account.Email,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})

	return result, nil
}

// issueSession mints the access/refresh pair and persists the session state
// shared by register, login and refresh. For non-admin roles it first
// revokes every outstanding refresh token and then overwrites the stored
// session token, so at most one live session exists per account; admins are
// exempt by policy. The refresh-token insert must succeed before any token
// reaches the client — on persistence failure nothing is returned.
func (s *UserService) issueSession(ctx context.Context, account *domain.Account) (*dto.AuthResult, error) {
	accessToken, err := s.tokens.IssueAccessToken(account)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := s.tokens.IssueRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if account.Role != domain.RoleAdmin {
		if err := s.repo.RevokeAllRefreshTokens(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("revoke prior sessions: %w", err)
		}
	}

	row := &domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    account.ID,
		TokenHash: refresh.LookupHash,
		ExpiresAt: refresh.ExpiresAt,
		CreatedAt: time.Now(),
	}
	if err := s.repo.StoreRefreshToken(ctx, row); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	if account.Role != domain.RoleAdmin {
		if err := s.repo.SetSessionToken(ctx, account.ID, &accessToken); err != nil {
			return nil, fmt.Errorf("set session token: %w", err)
		}
	}

	return &dto.AuthResult{
		AccessToken:      accessToken,
		RefreshToken:     refresh.Secret,
		RefreshExpiresAt: refresh.ExpiresAt,
		User: dto.UserOutput{
			ID:        account.ID,
			Email:     account.Email,
			FirstName: account.FirstName,
			LastName:  account.LastName,
			Role:      string(account.Role),
		},
	}, nil
}

// Logout revokes every refresh token for the account and clears its session
// token. It is idempotent: logging out an already-logged-out account
// succeeds.
func (s *UserService) Logout(ctx context.Context, userID, email, ipAddress, userAgent string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.repo.RevokeAllRefreshTokens(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}

	if err := s.repo.SetSessionToken(ctx, userID, nil); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}

	s.events.Record(ctx, audit.Event{
		Type:      domain.EventLogout,
		UserID:    userID,
		Email:     email,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	})

	return nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*dto.ProfileOutput, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	account, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return nil, autherror.ErrInvalidAccessToken
	}

	return profileOutput(account), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, input dto.UpdateProfileInput) (*dto.ProfileOutput, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	account, err := s.repo.UpdateProfile(ctx, userID, input.FirstName, input.LastName, input.Phone)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if account == nil {
		return nil, autherror.ErrInvalidAccessToken
	}

	return profileOutput(account), nil
}

func profileOutput(account *domain.Account) *dto.ProfileOutput {
	return &dto.ProfileOutput{
		ID:        account.ID,
		Email:     account.Email,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Phone:     account.Phone,
		Role:      string(account.Role),
		CreatedAt: account.CreatedAt,
	}
}
