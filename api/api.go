// Package api puts together every http endpoint exposed by dolist
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/andrebq/dolist/authprogram"
	authapi "github.com/andrebq/dolist/authprogram/api"
	"github.com/andrebq/dolist/internal/logutil"
	"github.com/andrebq/dolist/tasks"
	taskapi "github.com/andrebq/dolist/tasks/api"
	"github.com/julienschmidt/httprouter"
	"github.com/klauspost/compress/gzhttp"
)

type (
	Options struct {
		// Gzip enables response compression for clients that accept it
		Gzip bool
	}
)

// AsHandler returns the handler serving the user and task endpoints,
// requests are logged with the logger found in ctx.
func AsHandler(ctx context.Context, svc *authprogram.Service, taskStore tasks.Store, opts Options) (http.Handler, error) {
	if svc == nil {
		return nil, errors.New("auth service cannot be nil")
	}
	if taskStore == nil {
		return nil, errors.New("task store cannot be nil")
	}
	router := httprouter.New()
	realm := authapi.NewRealm(svc)
	realm.Mount(router)
	taskapi.Mount(router, realm, taskStore)

	var handler http.Handler = logutil.Middleware(logutil.GetOrDefault(ctx), router)
	if opts.Gzip {
		handler = gzhttp.GzipHandler(handler)
	}
	return handler, nil
}
