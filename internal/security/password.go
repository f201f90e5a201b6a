package security

import (
	"crypto/rand"
	"crypto/subtle"
	"database/sql/driver"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/amirk1998/recipe-box/pkg/errors"
)

const (
	// Argon2id parameters (OWASP recommendations)
	argon2Time      = 3
	argon2Memory    = 64 * 1024 // 64 MB
	argon2Threads   = 2
	argon2KeyLength = 32
	saltLength      = 16
)

type PasswordHasher struct {
	time      uint32
	memory    uint32
	threads   uint8
	keyLength uint32
}

func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{
		time:      argon2Time,
		memory:    argon2Memory,
		threads:   argon2Threads,
		keyLength: argon2KeyLength,
	}
}

// Hash generates a secure hash from password using Argon2id
func (ph *PasswordHasher) Hash(password string) (string, error) {
	// Generate random salt
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	// Generate hash using Argon2id
	hash := argon2.IDKey(
		[]byte(password),
		salt,
		ph.time,
		ph.memory,
		ph.threads,
		ph.keyLength,
	)

	// Encode hash with parameters for verification
	encodedHash := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		ph.memory,
		ph.time,
		ph.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return encodedHash, nil
}

// verify checks if password matches the encoded hash
func (ph *PasswordHasher) verify(password, encodedHash string) (bool, error) {
	// Parse the encoded hash
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false, fmt.Errorf("invalid hash format")
	}

	// Extract parameters
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("failed to parse version: %w", err)
	}

	if version != argon2.Version {
		return false, fmt.Errorf("incompatible argon2 version")
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("failed to parse parameters: %w", err)
	}

	// Decode salt
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}

	// Decode hash
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	// Generate hash from provided password with same parameters
	testHash := argon2.IDKey(
		[]byte(password),
		salt,
		time,
		memory,
		threads,
		uint32(len(hash)),
	)

	// Use constant-time comparison to prevent timing attacks
	return subtle.ConstantTimeCompare(hash, testHash) == 1, nil
}

// DummyVerify burns the same work as a real verification against a
// well-formed throwaway hash. Used to keep login timing uniform when the
// username does not exist.
func (ph *PasswordHasher) DummyVerify(password string) {
	_, _ = ph.verify(password, dummyEncodedHash)
}

var dummyEncodedHash = func() string {
	salt := make([]byte, saltLength)
	hash := argon2.IDKey([]byte("dummy"), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLength)
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
}()

// Digest is an opaque password digest. It can be set from a raw password and
// checked against a candidate, but never read back: there is no getter, no
// exported field, and JSON marshaling produces nothing. The only way the
// encoded value leaves this type is through driver.Valuer on the way to the
// database.
type Digest struct {
	encoded string
}

// DigestFromEncoded wraps an already-encoded hash loaded from storage.
func DigestFromEncoded(encoded string) Digest {
	return Digest{encoded: encoded}
}

// SetFrom hashes the raw password and stores the encoding, overwriting any
// previous value. This is the only sanctioned write path for the secret.
func (d *Digest) SetFrom(ph *PasswordHasher, raw string) error {
	if raw == "" {
		return errors.NewValidationError("Password cannot be empty")
	}

	encoded, err := ph.Hash(raw)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	d.encoded = encoded
	return nil
}

// Matches reports whether candidate is the password last set on this digest.
// A missing or malformed stored encoding yields false, never an error: the
// hasher's format failures are an authentication miss, not a fault.
func (d Digest) Matches(ph *PasswordHasher, candidate string) bool {
	if d.encoded == "" {
		return false
	}

	ok, err := ph.verify(candidate, d.encoded)
	if err != nil {
		return false
	}
	return ok
}

// IsZero reports whether no digest has been set
func (d Digest) IsZero() bool {
	return d.encoded == ""
}

// Scan implements sql.Scanner
func (d *Digest) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.encoded = ""
	case string:
		d.encoded = v
	case []byte:
		d.encoded = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Digest", src)
	}
	return nil
}

// Value implements driver.Valuer for persistence
func (d Digest) Value() (driver.Value, error) {
	return d.encoded, nil
}

// MarshalJSON always serializes to null so the digest can never leak through
// an accidental include in a response payload.
func (d Digest) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String implements fmt.Stringer without exposing the encoding
func (d Digest) String() string {
	return "Digest(redacted)"
}
