package authprogram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/andrebq/dolist/internal/logutil"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type (
	// Service glues hasher, codec and store together.
	//
	// It keeps no per-request state and is safe for concurrent use.
	Service struct {
		store    UserStore
		hasher   Hasher
		codec    *Codec
		validate *validator.Validate

		decoyOnce   sync.Once
		decoyDigest string
	}

	credentials struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=6"`
	}
)

const (
	// bcrypt silently ignores anything after 72 bytes
	maxPasswordBytes = 72
)

func NewService(store UserStore, hasher Hasher, codec *Codec) *Service {
	return &Service{
		store:    store,
		hasher:   hasher,
		codec:    codec,
		validate: validator.New(),
	}
}

// Signup creates a new user and opens its first session.
func (s *Service) Signup(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.TrimSpace(email)
	if err := s.checkCredentials(email, password); err != nil {
		return nil, "", err
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}
	user, err := s.store.Insert(ctx, &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: digest,
	})
	if errors.Is(err, ErrDuplicateEmail) {
		return nil, "", ErrDuplicateEmail
	} else if err != nil {
		return nil, "", fmt.Errorf("unable to insert user, cause %w", err)
	}
	token, err := s.IssueToken(ctx, user)
	if err != nil {
		// signup creates the user and its first session, or nothing
		if delErr := s.store.DeleteUser(ctx, user.ID); delErr != nil {
			log := logutil.GetOrDefault(ctx)
			log.Error().Err(delErr).Str("user", user.ID).Msg("Unable to remove user after failed signup")
		}
		return nil, "", err
	}
	return user, token, nil
}

// Login checks the given credentials and opens a new session, sessions
// opened before are kept.
//
// Unknown emails and wrong passwords both fail with ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.TrimSpace(email)
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("unable to lookup user by email, cause %w", err)
	}
	if user == nil {
		// spend roughly the same time as a real verification
		s.hasher.Verify(password, s.decoy())
		return nil, "", ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.IssueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// IssueToken signs a new auth token for user and stores it as a new
// token entry. user.Tokens is updated to reflect the stored state.
func (s *Service) IssueToken(ctx context.Context, user *User) (string, error) {
	token, err := s.codec.Issue(user.ID, PurposeAuth)
	if err != nil {
		return "", err
	}
	entry := TokenEntry{Purpose: PurposeAuth, Token: token}
	err = s.store.AppendToken(ctx, user.ID, entry)
	if err != nil {
		return "", fmt.Errorf("unable to store token for user %v, cause %w", user.ID, err)
	}
	user.Tokens = append(user.Tokens, entry)
	return token, nil
}

// VerifyToken resolves token to the user holding it.
func (s *Service) VerifyToken(ctx context.Context, token string) (*User, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeAuth {
		return nil, ErrUnknownSession
	}
	user, err := s.store.FindByCredentialLookup(ctx, claims.UserID, token, PurposeAuth)
	if err != nil {
		return nil, fmt.Errorf("unable to lookup session, cause %w", err)
	}
	if user == nil {
		return nil, ErrUnknownSession
	}
	return user, nil
}

// Logout revokes token, calling it multiple times is harmless.
func (s *Service) Logout(ctx context.Context, userID, token string) error {
	err := s.store.RemoveToken(ctx, userID, token)
	if err != nil {
		return fmt.Errorf("unable to remove token from user %v, cause %w", userID, err)
	}
	return nil
}

// ChangePassword replaces the password of userID after checking the current one.
// Existing sessions are kept.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("unable to lookup user %v, cause %w", userID, err)
	}
	if user == nil || !s.hasher.Verify(current, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := s.checkPassword("newPassword", next); err != nil {
		return err
	}
	digest, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	err = s.store.UpdatePassword(ctx, userID, digest)
	if err != nil {
		return fmt.Errorf("unable to update password of user %v, cause %w", userID, err)
	}
	log := logutil.GetOrDefault(ctx)
	log.Info().Str("user", userID).Msg("Password changed")
	return nil
}

func (s *Service) checkCredentials(email, password string) error {
	err := s.validate.Struct(credentials{Email: email, Password: password})
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return ValidationError{Field: strings.ToLower(verrs[0].Field()), Reason: verrs[0].Tag()}
		}
		return err
	}
	return s.checkPassword("password", password)
}

func (s *Service) checkPassword(field, password string) error {
	if err := s.validate.Var(password, "required,min=6"); err != nil {
		return ValidationError{Field: field, Reason: "min"}
	}
	if len(password) > maxPasswordBytes {
		return ValidationError{Field: field, Reason: "max"}
	}
	return nil
}

func (s *Service) decoy() string {
	s.decoyOnce.Do(func() {
		s.decoyDigest, _ = s.hasher.Hash(uuid.NewString())
	})
	return s.decoyDigest
}
