// Package password hashes and verifies user credentials. New hashes are
// always Argon2id; bcrypt hashes from the pre-migration portal remain
// verifiable and are flagged for transparent rehash on the next successful
// login.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm identifies which hash family produced a stored credential.
type Algorithm int

const (
	AlgorithmUnknown Algorithm = iota
	// AlgorithmBcrypt is the legacy fast hash. Valid matches must be
	// rehashed.
	AlgorithmBcrypt
	// AlgorithmArgon2id is the current memory-hard hash.
	AlgorithmArgon2id
)

// ErrMalformedCredential indicates a stored hash that neither supported
// family can parse. A wrong password is never an error.
var ErrMalformedCredential = errors.New("malformed password credential")

// Params are the Argon2id cost parameters. Defaults follow the OWASP
// recommendation used by the portal: 64 MiB, 3 iterations, 4 lanes.
type Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultParams = Params{
	Memory:      64 * 1024,
	Time:        3,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type Verification struct {
	Valid       bool
	NeedsRehash bool
}

type Hasher struct {
	params Params
}

func NewHasher(params Params) *Hasher {
	return &Hasher{params: params}
}

// Detect inspects the credential prefix and returns the algorithm family.
// This is the single place that knows the on-disk markers; adding a third
// family later is a one-case change.
func Detect(credential string) Algorithm {
	switch {
	case strings.HasPrefix(credential, "$argon2id$"):
		return AlgorithmArgon2id
	case strings.HasPrefix(credential, "$2a$"),
		strings.HasPrefix(credential, "$2b$"),
		strings.HasPrefix(credential, "$2y$"):
		return AlgorithmBcrypt
	default:
		return AlgorithmUnknown
	}
}

// Hash derives an Argon2id hash of the plaintext under a fresh random salt
// and encodes it in PHC string format, so the stored credential carries its
// own algorithm and parameters.
func (h *Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks the plaintext against a stored credential of either family.
// A legacy bcrypt match reports NeedsRehash so the caller can migrate the
// account to Argon2id without forcing a password reset.
func (h *Hasher) Verify(plaintext, credential string) (Verification, error) {
	switch Detect(credential) {
	case AlgorithmBcrypt:
		err := bcrypt.CompareHashAndPassword([]byte(credential), []byte(plaintext))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return Verification{}, nil
		}
		if err != nil {
			return Verification{}, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
		}

		return Verification{Valid: true, NeedsRehash: true}, nil

	case AlgorithmArgon2id:
		params, salt, key, err := decodeArgon2id(credential)
		if err != nil {
			return Verification{}, err
		}

		computed := argon2.IDKey([]byte(plaintext), salt, params.Time, params.Memory, params.Parallelism, params.KeyLength)
		if subtle.ConstantTimeCompare(computed, key) != 1 {
			return Verification{}, nil
		}

		return Verification{Valid: true}, nil

	default:
		return Verification{}, ErrMalformedCredential
	}
}

// decodeArgon2id parses a PHC-formatted credential:
// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
func decodeArgon2id(credential string) (Params, []byte, []byte, error) {
	parts := strings.Split(credential, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrMalformedCredential
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || !strings.HasPrefix(parts[2], "v=") {
		return Params{}, nil, nil, fmt.Errorf("%w: bad version segment", ErrMalformedCredential)
	}
	if version != argon2.Version {
		return Params{}, nil, nil, fmt.Errorf("%w: unsupported argon2 version %d", ErrMalformedCredential, version)
	}

	var params Params
	for _, pair := range strings.Split(parts[3], ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return Params{}, nil, nil, fmt.Errorf("%w: bad parameter %q", ErrMalformedCredential, pair)
		}

		value, err := strconv.ParseUint(kv[1], 10, 32)
		if err != nil {
			return Params{}, nil, nil, fmt.Errorf("%w: bad parameter %q", ErrMalformedCredential, pair)
		}

		switch kv[0] {
		case "m":
			params.Memory = uint32(value)
		case "t":
			params.Time = uint32(value)
		case "p":
			if value > 255 {
				return Params{}, nil, nil, fmt.Errorf("%w: parallelism out of range", ErrMalformedCredential)
			}
			params.Parallelism = uint8(value)
		default:
			return Params{}, nil, nil, fmt.Errorf("%w: unknown parameter %q", ErrMalformedCredential, kv[0])
		}
	}
	if params.Memory == 0 || params.Time == 0 || params.Parallelism == 0 {
		return Params{}, nil, nil, fmt.Errorf("%w: missing cost parameters", ErrMalformedCredential)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Params{}, nil, nil, fmt.Errorf("%w: bad salt encoding", ErrMalformedCredential)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, fmt.Errorf("%w: bad hash encoding", ErrMalformedCredential)
	}
	params.KeyLength = uint32(len(key))

	return params, salt, key, nil
}
