package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/andrebq/dolist/authprogram"
	"github.com/andrebq/dolist/internal/logutil"
	"github.com/julienschmidt/httprouter"
)

type (
	credentialsRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	changePasswordRequest struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
)

const (
	// keep request bodies small, there is nothing big to send here
	maxBodySize = 64 * 1024
)

// Mount registers the user endpoints on router
func (s *Realm) Mount(router *httprouter.Router) {
	router.HandlerFunc("POST", "/users", s.signup)
	router.HandlerFunc("POST", "/users/login", s.login)
	router.Handler("GET", "/users/me", s.Protect(http.HandlerFunc(s.me)))
	router.Handler("DELETE", "/users/me/token", s.Protect(http.HandlerFunc(s.logout)))
	router.Handler("PUT", "/users/me/password", s.Protect(http.HandlerFunc(s.changePassword)))
}

func (s *Realm) signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeCredentials(w, r, &req) {
		return
	}
	user, token, err := s.svc.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set(AuthHeader, token)
	WriteJSON(w, http.StatusOK, user.Public())
}

func (s *Realm) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeCredentials(w, r, &req) {
		return
	}
	user, token, err := s.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set(AuthHeader, token)
	WriteJSON(w, http.StatusOK, user.Public())
}

func (s *Realm) me(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	WriteJSON(w, http.StatusOK, user.Public())
}

func (s *Realm) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := UserFromContext(ctx)
	token, _ := TokenFromContext(ctx)
	err := s.svc.Logout(ctx, user.ID, token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Realm) changePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := UserFromContext(ctx)
	var req changePasswordRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	err := s.svc.ChangePassword(ctx, user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// decodeCredentials accepts both JSON and url-encoded forms
func decodeCredentials(w http.ResponseWriter, r *http.Request, req *credentialsRequest) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return false
		}
		req.Email = r.PostFormValue("email")
		req.Password = r.PostFormValue("password")
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr authprogram.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, authprogram.ErrDuplicateEmail):
		http.Error(w, authprogram.ErrDuplicateEmail.Error(), http.StatusBadRequest)
	case errors.Is(err, authprogram.ErrInvalidCredentials):
		http.Error(w, authprogram.ErrInvalidCredentials.Error(), http.StatusBadRequest)
	default:
		log := logutil.GetOrDefault(r.Context())
		log.Error().Err(err).Msg("Unable to complete user request")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// WriteJSON encodes v as the body of the response
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
