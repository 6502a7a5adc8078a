package book

import (
	"bookcatalog/internal/apperror"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = apperror.New(apperror.NotFound, "book not found")

// Book represents a catalog entry.
type Book struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

// Input carries the client-writable fields of a book. Update replaces all
// of them.
type Input struct {
	Title       string `json:"title" validate:"notblank,max=255"`
	Author      string `json:"author" validate:"notblank,max=255"`
	Description string `json:"description" validate:"max=1000"`
}
