package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	authapi "github.com/andrebq/dolist/authprogram/api"
	"github.com/andrebq/dolist/internal/logutil"
	"github.com/andrebq/dolist/tasks"
	"github.com/julienschmidt/httprouter"
)

type (
	taskRequest struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}

	deleteAllResponse struct {
		Deleted int64 `json:"deleted"`
	}
)

const (
	maxBodySize = 1_000_000
)

// Mount registers the task endpoints on router, every one of them
// behind realm.
func Mount(router *httprouter.Router, realm *authapi.Realm, store tasks.Store) {
	protect := func(h http.HandlerFunc) http.Handler {
		return realm.Protect(h)
	}
	router.Handler("GET", "/tasks", protect(listTasks(store)))
	router.Handler("POST", "/tasks", protect(createTask(store, time.Now)))
	router.Handler("DELETE", "/tasks", protect(deleteAllTasks(store)))
	router.Handler("GET", "/tasks/:id", protect(getTask(store)))
	router.Handler("PATCH", "/tasks/:id", protect(patchTask(store)))
	router.Handler("DELETE", "/tasks/:id", protect(deleteTask(store)))
}

func listTasks(store tasks.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := store.ListTasks(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if all == nil {
			all = []tasks.Task{}
		}
		authapi.WriteJSON(w, http.StatusOK, all)
	}
}

func createTask(store tasks.Store, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req taskRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
			http.Error(w, "Bad Request: The request body is invalid", http.StatusBadRequest)
			return
		}
		task, err := tasks.New(req.Title, req.Description, now())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := store.CreateTask(r.Context(), task); err != nil {
			writeError(w, r, err)
			return
		}
		authapi.WriteJSON(w, http.StatusCreated, task)
	}
}

func getTask(store tasks.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, err := store.GetTask(r.Context(), taskID(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		authapi.WriteJSON(w, http.StatusOK, task)
	}
}

func patchTask(store tasks.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch tasks.Patch
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&patch); err != nil {
			http.Error(w, "Bad Request: The request body is invalid", http.StatusBadRequest)
			return
		}
		ctx := r.Context()
		task, err := store.GetTask(ctx, taskID(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := task.Apply(patch); err != nil {
			writeError(w, r, err)
			return
		}
		if err := store.UpdateTask(ctx, task); err != nil {
			writeError(w, r, err)
			return
		}
		authapi.WriteJSON(w, http.StatusOK, task)
	}
}

func deleteTask(store tasks.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteTask(r.Context(), taskID(r)); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteAllTasks(store tasks.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := store.DeleteAllTasks(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		authapi.WriteJSON(w, http.StatusOK, deleteAllResponse{Deleted: n})
	}
}

func taskID(r *http.Request) string {
	return httprouter.ParamsFromContext(r.Context()).ByName("id")
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid tasks.InvalidTask
	switch {
	case errors.As(err, &invalid):
		http.Error(w, invalid.Error(), http.StatusBadRequest)
	case errors.Is(err, tasks.ErrNotFound):
		http.Error(w, "task not found", http.StatusNotFound)
	default:
		log := logutil.GetOrDefault(r.Context())
		log.Error().Err(err).Msg("Unable to complete task request")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
