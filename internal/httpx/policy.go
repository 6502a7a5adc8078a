package httpx

import (
	"net/http"
	"slices"
)

// Access is the authorization rule attached to a route.
type Access struct {
	public bool
	anyOf  []string
}

// Public routes skip authentication.
func Public() Access {
	return Access{public: true}
}

// Authenticated admits any caller with a valid access token.
func Authenticated() Access {
	return Access{}
}

// AnyRole admits authenticated callers holding at least one of roles.
func AnyRole(roles ...string) Access {
	return Access{anyOf: roles}
}

func (a Access) IsPublic() bool {
	return a.public
}

func (a Access) Allows(roles []string) bool {
	if a.public || len(a.anyOf) == 0 {
		return true
	}
	for _, want := range a.anyOf {
		if slices.Contains(roles, want) {
			return true
		}
	}
	return false
}

// Route binds a method-qualified ServeMux pattern to its handler and rule.
type Route struct {
	Pattern string
	Access  Access
	Handler http.Handler
}
