package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"

	"bookcatalog/internal/book"
	"bookcatalog/internal/user"
)

// BookStore is an in-memory book.Repository.
type BookStore struct {
	mu     sync.Mutex
	nextID int64
	books  map[int64]book.Book
}

func NewBookStore() *BookStore {
	return &BookStore{books: make(map[int64]book.Book)}
}

func (s *BookStore) Create(_ context.Context, in book.Input) (book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b := book.Book{ID: s.nextID, Title: in.Title, Author: in.Author, Description: in.Description}
	s.books[b.ID] = b
	return b, nil
}

func (s *BookStore) Update(_ context.Context, id int64, in book.Input) (book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return book.Book{}, book.ErrNotFound
	}
	b := book.Book{ID: id, Title: in.Title, Author: in.Author, Description: in.Description}
	s.books[id] = b
	return b, nil
}

func (s *BookStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return book.ErrNotFound
	}
	delete(s.books, id)
	return nil
}

func (s *BookStore) GetByID(_ context.Context, id int64) (book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return book.Book{}, book.ErrNotFound
	}
	return b, nil
}

func (s *BookStore) List(_ context.Context) ([]book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]book.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UserStore is an in-memory user.Repository.
type UserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]user.User
	roles  map[string]user.Role
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]user.User), roles: make(map[string]user.Role)}
}

func (s *UserStore) GetByUsername(_ context.Context, username string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (s *UserStore) Create(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.Username]; exists {
		return errors.New("duplicate username " + u.Username)
	}
	s.nextID++
	u.ID = s.nextID
	s.users[u.Username] = *u
	return nil
}

func (s *UserStore) EnsureRole(_ context.Context, name string) (user.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.roles[name]; ok {
		return r, nil
	}
	r := user.Role{ID: int64(len(s.roles) + 1), Name: name}
	s.roles[name] = r
	return r, nil
}

// Remove deletes a user, simulating an account removed after a token was
// issued.
func (s *UserStore) Remove(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, username)
}
