package httpx

import (
	"context"
	"net/http"
	"strings"

	"bookcatalog/internal/apperror"
	"bookcatalog/internal/platform/crypto"

	"github.com/sirupsen/logrus"
)

// TokenVerifier is the part of the token service the Guard depends on.
type TokenVerifier interface {
	ExtractSubject(token string) (string, error)
	Validate(token, expectedSubject string, typ crypto.TokenType) error
}

// RoleLoader resolves the current roles of a user. A NotFound error means the
// user no longer exists.
type RoleLoader interface {
	RolesFor(ctx context.Context, username string) ([]string, error)
}

const (
	msgAuthRequired = "Authentication required"
	msgInvalidToken = "Invalid or expired token"
	msgAccessDenied = "Access Denied"
)

// Guard authenticates bearer access tokens and enforces the Access rule of
// each route.
type Guard struct {
	tokens TokenVerifier
	users  RoleLoader
	log    logrus.FieldLogger
}

func NewGuard(tokens TokenVerifier, users RoleLoader, log logrus.FieldLogger) *Guard {
	return &Guard{tokens: tokens, users: users, log: log}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate resolves the caller of r. It returns an Authentication error
// for missing or unusable tokens and for unknown users.
func (g *Guard) Authenticate(r *http.Request) (Principal, error) {
	token, ok := bearerToken(r)
	if !ok {
		return Principal{}, apperror.New(apperror.Authentication, msgAuthRequired)
	}

	subject, err := g.tokens.ExtractSubject(token)
	if err != nil {
		return Principal{}, apperror.Wrap(apperror.Authentication, err, msgInvalidToken)
	}

	roles, err := g.users.RolesFor(r.Context(), subject)
	if err != nil {
		if apperror.KindOf(err) == apperror.NotFound {
			return Principal{}, apperror.Wrap(apperror.Authentication, err, msgInvalidToken)
		}
		return Principal{}, err
	}

	if err := g.tokens.Validate(token, subject, crypto.AccessToken); err != nil {
		return Principal{}, apperror.Wrap(apperror.Authentication, err, msgInvalidToken)
	}

	return Principal{Username: subject, Roles: roles}, nil
}

// Require wraps next with the checks demanded by access.
func (g *Guard) Require(access Access, next http.Handler) http.Handler {
	if access.IsPublic() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := g.Authenticate(r)
		if err != nil {
			WriteError(w, r, g.log, err)
			return
		}

		if !access.Allows(p.Roles) {
			g.log.WithFields(logrus.Fields{
				"user":       p.Username,
				"path":       r.URL.Path,
				"request_id": RequestIDFrom(r),
			}).Warn("access denied")
			JSONError(w, r, http.StatusForbidden, msgAccessDenied, nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
	})
}

// Mount registers every route on mux behind its Access rule.
func (g *Guard) Mount(mux *http.ServeMux, routes []Route) {
	for _, rt := range routes {
		mux.Handle(rt.Pattern, g.Require(rt.Access, rt.Handler))
	}
}
