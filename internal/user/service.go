package user

import (
	"context"

	"github.com/sirupsen/logrus"
)

type Service struct {
	repo Repository
	log  logrus.FieldLogger
}

func NewService(repo Repository, log logrus.FieldLogger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) GetByUsername(ctx context.Context, username string) (User, error) {
	s.log.WithField("username", username).Debug("loading user")
	return s.repo.GetByUsername(ctx, username)
}

// RolesFor returns the role names of username, or ErrNotFound.
func (s *Service) RolesFor(ctx context.Context, username string) ([]string, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return u.RoleNames(), nil
}
