package api

import (
	"context"
	"crypto/rand"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/andrebq/dolist/authprogram"
	"github.com/andrebq/dolist/internal/testutil"
	"github.com/steinfletcher/apitest"
)

func newRealm(t *testing.T) (*Realm, *authprogram.Service, func()) {
	store, cleanup := testutil.AcquireMemStore(t)
	key, err := authprogram.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	svc := authprogram.NewService(store, authprogram.BcryptHasher{Cost: 4}, authprogram.NewCodec(key, 0))
	return NewRealm(svc), svc, cleanup
}

func TestProtect(t *testing.T) {
	ctx := context.Background()
	realm, svc, cleanup := newRealm(t)
	defer cleanup()

	var count uint32
	protected := realm.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint32(&count, 1)
		user, ok := UserFromContext(r.Context())
		if !ok || user.Email != "a@b.com" {
			t.Errorf("user should be attached to the request, got %#v", user)
		}
		if tk, ok := TokenFromContext(r.Context()); !ok || tk != r.Header.Get(AuthHeader) {
			t.Errorf("token should be attached to the request, got %v", tk)
		}
		http.Error(w, "OK", http.StatusOK)
	}))

	user, token, err := svc.Signup(ctx, "a@b.com", "123456")
	if err != nil {
		t.Fatal(err)
	}

	apitest.Handler(protected).Get("/").Expect(t).Status(http.StatusUnauthorized).Body("unauthorized\n").End()
	apitest.Handler(protected).Get("/").Header(AuthHeader, "garbage").Expect(t).Status(http.StatusUnauthorized).Body("unauthorized\n").End()
	apitest.Handler(protected).Get("/").Header(AuthHeader, token).Expect(t).Status(http.StatusOK).End()

	if err := svc.Logout(ctx, user.ID, token); err != nil {
		t.Fatal(err)
	}
	apitest.Handler(protected).Get("/").Header(AuthHeader, token).Expect(t).Status(http.StatusUnauthorized).Body("unauthorized\n").End()

	if count != 1 {
		t.Fatal("Protected endpoint should have been called only once")
	}
}
