package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/Jacintalama/socsargen-system/internal/auth/service TokenGenerator,PasswordHasher

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Jacintalama/socsargen-system/internal/auth/domain"
	"github.com/Jacintalama/socsargen-system/internal/auth/password"
	autherror "github.com/Jacintalama/socsargen-system/internal/errors"
)

const refreshSecretBytes = 64

type TokenGenerator interface {
	IssueAccessToken(account *domain.Account) (string, error)
	IssueRefreshToken() (RefreshCredential, error)
	HashForLookup(secret string) string
	VerifyAccessToken(tokenString string) (*AccessClaims, error)
	RefreshTTL() time.Duration
}

// PasswordHasher is the credential-hashing capability the session
// coordinator depends on.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, credential string) (password.Verification, error)
}

// RefreshCredential is a freshly minted refresh token. Secret goes to the
// client exactly once; only LookupHash is ever stored.
type RefreshCredential struct {
	Secret     string
	LookupHash string
	ExpiresAt  time.Time
}

type AccessClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccessToken mints a short-lived HS256 JWT carrying the account's id,
// email and role.
func (ts *TokenService) IssueAccessToken(account *domain.Account) (string, error) {
	now := time.Now()

	claims := AccessClaims{
		UserID: account.ID,
		Email:  account.Email,
		Role:   string(account.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signed, nil
}

// IssueRefreshToken generates an opaque 512-bit random secret, hex-encoded,
// together with its SHA-256 lookup hash and expiry.
func (ts *TokenService) IssueRefreshToken() (RefreshCredential, error) {
	raw := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return RefreshCredential{}, fmt.Errorf("generate refresh secret: %w", err)
	}

	secret := hex.EncodeToString(raw)

	return RefreshCredential{
		Secret:     secret,
		LookupHash: ts.HashForLookup(secret),
		ExpiresAt:  time.Now().Add(ts.refreshTTL),
	}, nil
}

// HashForLookup recomputes the deterministic storage hash of a
// client-presented refresh secret.
func (ts *TokenService) HashForLookup(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifyAccessToken parses and validates a signed access token. Any failure
// (bad signature, malformed structure, expiry, wrong algorithm) collapses to
// ErrInvalidAccessToken.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, autherror.ErrInvalidAccessToken
	}

	return claims, nil
}

func (ts *TokenService) RefreshTTL() time.Duration {
	return ts.refreshTTL
}
