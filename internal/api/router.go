// Package api assembles the HTTP surface: the route table with its access
// rules, the health endpoints and the middleware chain.
package api

import (
	"context"
	"net/http"
	"time"

	"bookcatalog/internal/auth"
	"bookcatalog/internal/book"
	"bookcatalog/internal/httpx"
	"bookcatalog/internal/user"

	"github.com/sirupsen/logrus"
)

// ReadinessCheck reports whether a backing service can take traffic.
type ReadinessCheck func(ctx context.Context) error

type Deps struct {
	Auth  *auth.HTTPHandler
	Books *book.HTTPHandler
	Guard *httpx.Guard
	Log   logrus.FieldLogger

	// AuthLimiter throttles the login and refresh endpoints when set.
	AuthLimiter *httpx.RateLimitMiddleware
	Ready       []ReadinessCheck

	CORSOrigins  []string
	MaxBodyBytes int64
	EnableHSTS   bool
}

// Routes is the authorization policy of the service. Handlers never check
// roles themselves.
func Routes(d Deps) []httpx.Route {
	var (
		admin  = httpx.AnyRole(user.RoleAdmin)
		reader = httpx.AnyRole(user.RoleAdmin, user.RoleUser)
	)

	throttled := func(h http.HandlerFunc) http.Handler {
		if d.AuthLimiter == nil {
			return h
		}
		return d.AuthLimiter.Middleware(h)
	}

	return []httpx.Route{
		{Pattern: "POST /api/auth/login", Access: httpx.Public(), Handler: throttled(d.Auth.Login)},
		{Pattern: "POST /api/auth/refresh", Access: httpx.Public(), Handler: throttled(d.Auth.Refresh)},

		{Pattern: "POST /api/books", Access: admin, Handler: http.HandlerFunc(d.Books.Add)},
		{Pattern: "PUT /api/books/{id}", Access: admin, Handler: http.HandlerFunc(d.Books.Update)},
		{Pattern: "DELETE /api/books/{id}", Access: admin, Handler: http.HandlerFunc(d.Books.Delete)},
		{Pattern: "GET /api/books/{id}", Access: reader, Handler: http.HandlerFunc(d.Books.Get)},
		{Pattern: "GET /api/books", Access: reader, Handler: http.HandlerFunc(d.Books.List)},

		{Pattern: "GET /healthz", Access: httpx.Public(), Handler: http.HandlerFunc(healthz)},
		{Pattern: "GET /readyz", Access: httpx.Public(), Handler: readyz(d.Ready, d.Log)},
	}
}

// NewRouter mounts Routes behind the guard and wraps the mux in the
// middleware chain.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()
	d.Guard.Mount(mux, Routes(d))

	return httpx.Chain(mux,
		httpx.RecoveryMiddleware(d.Log),
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(d.Log),
		httpx.SecurityHeadersMiddleware(d.EnableHSTS),
		httpx.CORSMiddleware(d.CORSOrigins),
		httpx.RequestSizeLimitMiddleware(d.MaxBodyBytes),
	)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func readyz(checks []ReadinessCheck, log logrus.FieldLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		for _, check := range checks {
			if err := check(ctx); err != nil {
				log.WithError(err).Warn("readiness check failed")
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
}
