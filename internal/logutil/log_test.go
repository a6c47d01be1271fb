package logutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "debug")
	var seenRequestLogger bool
	handler := Middleware(base, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := GetOrDefault(r.Context())
		log.Debug().Msg("inside")
		seenRequestLogger = true
		http.Error(w, "nope", http.StatusTeapot)
	}))
	apitest.New().Handler(handler).Get("/hello").Expect(t).Status(http.StatusTeapot).End()
	if !seenRequestLogger {
		t.Fatal("handler was not called")
	}
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var last map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[1], &last))
	require.Equal(t, "/hello", last["req.path"])
	require.Equal(t, float64(http.StatusTeapot), last["res.status"])
	require.NotEmpty(t, last["req.id"])
}

func TestGetOrDefault(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, "info"))
	log := GetOrDefault(ctx)
	log.Info().Msg("hello")
	if !bytes.Contains(buf.Bytes(), []byte("hello")) {
		t.Fatalf("logger from context was not used, got %v", buf.String())
	}
}
