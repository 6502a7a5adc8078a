package user

import (
	"context"
	"errors"
	"fmt"

	"bookcatalog/internal/platform/crypto"

	"github.com/sirupsen/logrus"
)

// SeedAccount is an account created at startup when missing.
type SeedAccount struct {
	Username string
	Password string
	Roles    []string
}

// DefaultAccounts returns the admin account (admin and user roles) and the
// plain user account.
func DefaultAccounts(adminPassword, userPassword string) []SeedAccount {
	return []SeedAccount{
		{Username: "admin", Password: adminPassword, Roles: []string{RoleAdmin, RoleUser}},
		{Username: "user", Password: userPassword, Roles: []string{RoleUser}},
	}
}

// Bootstrap makes sure both roles and every seed account exist. Existing
// accounts are left untouched, so running it again changes nothing.
func Bootstrap(ctx context.Context, repo Repository, log logrus.FieldLogger, accounts []SeedAccount) error {
	log.Info("initializing default roles and users")

	roles := make(map[string]Role)
	for _, name := range []string{RoleAdmin, RoleUser} {
		role, err := repo.EnsureRole(ctx, name)
		if err != nil {
			return fmt.Errorf("ensure role %s: %w", name, err)
		}
		roles[name] = role
	}

	for _, acct := range accounts {
		_, err := repo.GetByUsername(ctx, acct.Username)
		if err == nil {
			log.WithField("username", acct.Username).Info("seed user already exists")
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("lookup seed user %s: %w", acct.Username, err)
		}
		if acct.Password == "" {
			return fmt.Errorf("seed user %s has no password", acct.Username)
		}
		if err := crypto.ValidatePasswordStrength(acct.Password); err != nil {
			log.WithField("username", acct.Username).WithError(err).Warn("seed user password is weak")
		}

		hash, err := crypto.HashPassword(acct.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", acct.Username, err)
		}

		u := &User{Username: acct.Username, Password: hash}
		for _, name := range acct.Roles {
			role, ok := roles[name]
			if !ok {
				if role, err = repo.EnsureRole(ctx, name); err != nil {
					return fmt.Errorf("ensure role %s: %w", name, err)
				}
				roles[name] = role
			}
			u.Roles = append(u.Roles, role)
		}

		if err := repo.Create(ctx, u); err != nil {
			return fmt.Errorf("create seed user %s: %w", acct.Username, err)
		}
		log.WithFields(logrus.Fields{"username": u.Username, "roles": u.RoleNames()}).Info("seed user created")
	}
	return nil
}
