package book

import (
	"context"
	"errors"

	"bookcatalog/internal/apperror"

	"github.com/sirupsen/logrus"
)

// Service provides book-related business logic.
type Service struct {
	repo Repository
	log  logrus.FieldLogger
}

// NewService creates a new book service.
func NewService(repo Repository, log logrus.FieldLogger) *Service {
	return &Service{repo: repo, log: log}
}

// Add stores a new book and returns it with its generated id.
func (s *Service) Add(ctx context.Context, in Input) (Book, error) {
	s.log.WithField("title", in.Title).Info("adding new book")
	return s.repo.Create(ctx, in)
}

// Update replaces title, author and description of an existing book.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Book, error) {
	s.log.WithField("book_id", id).Info("updating book")
	b, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Book{}, notFound(err, id)
	}
	return b, nil
}

// Delete removes a book.
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.log.WithField("book_id", id).Info("deleting book")
	return notFound(s.repo.Delete(ctx, id), id)
}

// Get returns a book by its id.
func (s *Service) Get(ctx context.Context, id int64) (Book, error) {
	s.log.WithField("book_id", id).Info("fetching book")
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Book{}, notFound(err, id)
	}
	return b, nil
}

// List returns every book in storage order.
func (s *Service) List(ctx context.Context) ([]Book, error) {
	s.log.Info("fetching all books")
	books, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []Book{}
	}
	return books, nil
}

func notFound(err error, id int64) error {
	if errors.Is(err, ErrNotFound) {
		return apperror.Wrap(apperror.NotFound, ErrNotFound, "Book not found with id: %d", id)
	}
	return err
}
