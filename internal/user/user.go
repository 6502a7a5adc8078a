package user

import (
	"bookcatalog/internal/apperror"
)

const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
)

// ErrNotFound is returned when no user has the requested username.
var ErrNotFound = apperror.New(apperror.NotFound, "user not found")

type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User is a stored credential. Password holds the bcrypt hash.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
	Roles    []Role `json:"roles"`
}

func (u User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}
