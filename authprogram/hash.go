package authprogram

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type (
	// Hasher turns passwords into self-describing digests.
	//
	// Implementations must be safe for concurrent use.
	Hasher interface {
		Hash(plaintext string) (string, error)
		Verify(plaintext, digest string) bool
	}

	BcryptHasher struct {
		Cost int
	}
)

const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"

	// DefaultBcryptCost keeps existing digests verifiable,
	// tests are free to go lower.
	DefaultBcryptCost = 10
)

// NewHasher returns the hasher registered under driver.
//
// cost is only used by bcrypt, a value of 0 uses DefaultBcryptCost.
func NewHasher(driver string, cost int) (Hasher, error) {
	switch driver {
	case "", HasherBcrypt:
		if cost == 0 {
			cost = DefaultBcryptCost
		}
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost must be between %v and %v, got %v", bcrypt.MinCost, bcrypt.MaxCost, cost)
		}
		return BcryptHasher{Cost: cost}, nil
	case HasherArgon2id:
		return DefaultArgon2Hasher(), nil
	}
	return nil, fmt.Errorf("unknown password hasher %q", driver)
}

func (b BcryptHasher) Hash(plaintext string) (string, error) {
	buf, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.Cost)
	if err != nil {
		return "", fmt.Errorf("unable to hash password, cause %w", err)
	}
	return string(buf), nil
}

func (b BcryptHasher) Verify(plaintext, digest string) bool {
	return VerifyPassword(plaintext, digest)
}

// VerifyPassword checks plaintext against a digest produced by any of the
// hashers in this package. Malformed digests never match.
func VerifyPassword(plaintext, digest string) bool {
	switch {
	case strings.HasPrefix(digest, argon2idPrefix):
		return verifyArgon2id(plaintext, digest)
	case strings.HasPrefix(digest, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
	}
	return false
}
