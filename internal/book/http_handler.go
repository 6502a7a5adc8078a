package book

import (
	"net/http"
	"strconv"

	"bookcatalog/internal/apperror"
	"bookcatalog/internal/httpx"

	"github.com/sirupsen/logrus"
)

type HTTPHandler struct {
	service *Service
	log     logrus.FieldLogger
}

func NewHTTPHandler(service *Service, log logrus.FieldLogger) *HTTPHandler {
	return &HTTPHandler{service: service, log: log}
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewValidation(apperror.FieldError{Field: "id", Message: "must be a positive integer"})
	}
	return id, nil
}

// Add handles POST /api/books
func (h *HTTPHandler) Add(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	b, err := h.service.Add(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, b, "Book added successfully")
}

// Update handles PUT /api/books/{id}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	b, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSONSuccess(w, r, b, "Book updated successfully")
}

// Delete handles DELETE /api/books/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSONSuccessMessage(w, r, "Book deleted successfully")
}

// Get handles GET /api/books/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSONSuccess(w, r, b, "Book retrieved successfully")
}

// List handles GET /api/books
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.List(r.Context())
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSONSuccess(w, r, books, "Books retrieved successfully")
}
