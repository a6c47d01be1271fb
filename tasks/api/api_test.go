package api

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"testing"

	"github.com/andrebq/dolist/authprogram"
	authapi "github.com/andrebq/dolist/authprogram/api"
	"github.com/andrebq/dolist/internal/testutil"
	"github.com/julienschmidt/httprouter"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
)

func tasksHandler(t *testing.T) (http.Handler, string, func()) {
	store, cleanup := testutil.AcquireMemStore(t)
	key, err := authprogram.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	svc := authprogram.NewService(store, authprogram.BcryptHasher{Cost: 4}, authprogram.NewCodec(key, 0))
	_, token, err := svc.Signup(context.Background(), "a@b.com", "123456")
	if err != nil {
		t.Fatal(err)
	}
	router := httprouter.New()
	Mount(router, authapi.NewRealm(svc), store)
	return router, token, cleanup
}

func TestTasksRequireAuth(t *testing.T) {
	h, _, cleanup := tasksHandler(t)
	defer cleanup()
	for _, req := range []struct{ method, path string }{
		{"GET", "/tasks"},
		{"POST", "/tasks"},
		{"DELETE", "/tasks"},
		{"GET", "/tasks/abc"},
		{"PATCH", "/tasks/abc"},
		{"DELETE", "/tasks/abc"},
	} {
		apitest.New().Handler(h).
			Method(req.method).URL(req.path).
			Expect(t).Status(http.StatusUnauthorized).End()
	}
}

func TestTasksCRUD(t *testing.T) {
	h, token, cleanup := tasksHandler(t)
	defer cleanup()

	apitest.New().Handler(h).
		Get("/tasks").Header(authapi.AuthHeader, token).
		Expect(t).Status(http.StatusOK).Body(`[]`).End()

	res := apitest.New().Handler(h).
		Post("/tasks").Header(authapi.AuthHeader, token).
		JSON(`{"title": " buy milk ", "description": "two bottles please"}`).
		Expect(t).Status(http.StatusCreated).
		Assert(jsonpath.Equal("$.title", "buy milk")).
		Assert(jsonpath.Present("$._id")).
		Assert(jsonpath.Present("$.createdAt")).
		End()
	var created struct {
		ID string `json:"_id"`
	}
	res.JSON(&created)
	if created.ID == "" {
		t.Fatal("created task should have an id")
	}
	taskPath := fmt.Sprintf("/tasks/%v", created.ID)

	apitest.New().Handler(h).
		Post("/tasks").Header(authapi.AuthHeader, token).
		JSON(`{"title": "abc", "description": "two bottles please"}`).
		Expect(t).Status(http.StatusBadRequest).End()

	apitest.New().Handler(h).
		Patch(taskPath).Header(authapi.AuthHeader, token).
		JSON(`{"title": "buy bread"}`).
		Expect(t).Status(http.StatusOK).
		Assert(jsonpath.Equal("$.title", "buy bread")).
		Assert(jsonpath.Equal("$.description", "two bottles please")).
		End()

	apitest.New().Handler(h).
		Get(taskPath).Header(authapi.AuthHeader, token).
		Expect(t).Status(http.StatusOK).
		Assert(jsonpath.Equal("$.title", "buy bread")).
		End()

	apitest.New().Handler(h).
		Get("/tasks").Header(authapi.AuthHeader, token).
		Expect(t).Status(http.StatusOK).
		Assert(jsonpath.Len("$", 1)).
		End()

	apitest.New().Handler(h).
		Delete(taskPath).Header(authapi.AuthHeader, token).
		Expect(t).Status(http.StatusNoContent).End()
	apitest.New().Handler(h).
		Delete(taskPath).Header(authapi.AuthHeader, token).
		Expect(t).Status(http.StatusNotFound).End()
	apitest.New().Handler(h).
		Get(taskPath).Header(authapi.AuthHeader, token).
		Expect(t).Status(http.StatusNotFound).End()
}

func TestDeleteAllTasks(t *testing.T) {
	h, token, cleanup := tasksHandler(t)
	defer cleanup()
	for i := 0; i < 3; i++ {
		apitest.New().Handler(h).
			Post("/tasks").Header(authapi.AuthHeader, token).
			JSON(fmt.Sprintf(`{"title": "task number %v", "description": "something to be done"}`, i)).
			Expect(t).Status(http.StatusCreated).End()
	}
	apitest.New().Handler(h).
		Delete("/tasks").Header(authapi.AuthHeader, token).
		Expect(t).Status(http.StatusOK).
		Assert(jsonpath.Equal("$.deleted", float64(3))).
		End()
	apitest.New().Handler(h).
		Get("/tasks").Header(authapi.AuthHeader, token).
		Expect(t).Status(http.StatusOK).Body(`[]`).End()
}
