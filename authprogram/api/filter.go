package api

import (
	"context"
	"net/http"

	"github.com/andrebq/dolist/authprogram"
	"github.com/andrebq/dolist/internal/logutil"
)

type (
	// Realm protects handlers using the tokens managed by an authprogram.Service.
	Realm struct {
		svc *authprogram.Service
	}

	ctxKey byte

	session struct {
		user  *authprogram.User
		token string
	}
)

const (
	// AuthHeader carries the token on requests and on signup/login responses.
	AuthHeader = "x-auth"

	sessionKey = ctxKey(1)
)

func NewRealm(svc *authprogram.Service) *Realm {
	return &Realm{svc: svc}
}

// Protect only calls sensitive if the request carries a token
// held by an existing user.
//
// Missing, forged and revoked tokens get the exact same response.
func (s *Realm) Protect(sensitive http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token := r.Header.Get(AuthHeader)
		if token == "" {
			unauthorized(w)
			return
		}
		user, err := s.svc.VerifyToken(ctx, token)
		if authprogram.IsUnauthorized(err) {
			unauthorized(w)
			return
		} else if err != nil {
			log := logutil.GetOrDefault(ctx)
			log.Error().Err(err).Msg("Unexpected error when verifying token")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		ctx = context.WithValue(ctx, sessionKey, session{user: user, token: token})
		sensitive.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the user attached by Protect
func UserFromContext(ctx context.Context) (*authprogram.User, bool) {
	s, ok := ctx.Value(sessionKey).(session)
	return s.user, ok
}

// TokenFromContext returns the raw token attached by Protect
func TokenFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(sessionKey).(session)
	return s.token, ok
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}
