package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=book

// Repository defines the contract for book data storage.
type Repository interface {
	Create(ctx context.Context, in Input) (Book, error)
	// Update overwrites every field of the book with the given id and returns
	// ErrNotFound without writing when it does not exist.
	Update(ctx context.Context, id int64, in Input) (Book, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (Book, error)
	List(ctx context.Context) ([]Book, error)
}
