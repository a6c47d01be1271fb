package authprogram

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type (
	// Codec signs and verifies session tokens.
	//
	// A Codec is read-only after construction and safe for concurrent use.
	Codec struct {
		secret []byte
		ttl    time.Duration
		now    func() time.Time
	}

	// Claims is what a token carries once verified.
	Claims struct {
		UserID  string
		Purpose string
	}

	tokenClaims struct {
		UserID  string `json:"_id"`
		Purpose string `json:"access"`
		jwt.RegisteredClaims
	}
)

const (
	PurposeAuth = "auth"
)

// NewCodec returns a codec signing tokens with key.
//
// ttl of zero issues tokens that never expire, they remain valid until
// they are removed from the user document.
func NewCodec(key *Key, ttl time.Duration) *Codec {
	secret := make([]byte, len(key))
	copy(secret, key[:])
	return &Codec{secret: secret, ttl: ttl, now: time.Now}
}

// Issue returns a new token binding userID and purpose.
//
// Every call includes a random token id, so two tokens issued for the same
// user and purpose are always distinct.
func (c *Codec) Issue(userID, purpose string) (string, error) {
	if userID == "" || purpose == "" {
		return "", errors.New("authprogram: cannot issue a token without user id and purpose")
	}
	now := c.now()
	claims := tokenClaims{
		UserID:  userID,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("authprogram: unable to sign token, cause %w", err)
	}
	return token, nil
}

// Verify checks the signature of token and returns its claims.
//
// Any problem with the token (malformed, wrong signature, wrong algorithm,
// expired or missing claims) results in ErrInvalidSignature.
func (c *Codec) Verify(token string) (Claims, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now))
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidSignature
	}
	if claims.UserID == "" || claims.Purpose == "" {
		return Claims{}, ErrInvalidSignature
	}
	return Claims{UserID: claims.UserID, Purpose: claims.Purpose}, nil
}
