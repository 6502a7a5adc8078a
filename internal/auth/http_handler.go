package auth

import (
	"net/http"

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

type loginRequest struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"notblank"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login handles POST /api/auth/login
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	pair, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSONSuccess(w, r, pair, "Login successful")
}

// Refresh handles POST /api/auth/refresh
func (h *HTTPHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	access, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSONSuccess(w, r, refreshResponse{AccessToken: access}, "Token refreshed successfully")
}
