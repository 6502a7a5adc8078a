package httpx

import (
	"encoding/json"
	"net/http"

	"bookcatalog/internal/apperror"

	"github.com/sirupsen/logrus"
)

// Response is the envelope of every JSON body the API writes. Data is null
// on failures and on successes that carry no payload.
type Response[T any] struct {
	Success bool                  `json:"success"`
	Data    *T                    `json:"data"`
	Message string                `json:"message"`
	Details []apperror.FieldError `json:"details,omitempty"`
	Meta    *Meta                 `json:"meta,omitempty"`
}

type Meta struct {
	RequestID string `json:"request_id"`
}

func buildMeta(r *http.Request) *Meta {
	if r == nil {
		return nil
	}
	requestID := RequestIDFrom(r)
	if requestID == "" {
		return nil
	}
	return &Meta{RequestID: requestID}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// JSONSuccess writes a 200 envelope around data.
func JSONSuccess[T any](w http.ResponseWriter, r *http.Request, data T, message string) {
	writeJSON(w, http.StatusOK, Response[T]{Success: true, Data: &data, Message: message, Meta: buildMeta(r)})
}

// JSONSuccessCreated writes a 201 envelope around data.
func JSONSuccessCreated[T any](w http.ResponseWriter, r *http.Request, data T, message string) {
	writeJSON(w, http.StatusCreated, Response[T]{Success: true, Data: &data, Message: message, Meta: buildMeta(r)})
}

// JSONSuccessMessage writes a 200 envelope with null data.
func JSONSuccessMessage(w http.ResponseWriter, r *http.Request, message string) {
	writeJSON(w, http.StatusOK, Response[any]{Success: true, Message: message, Meta: buildMeta(r)})
}

func JSONError(w http.ResponseWriter, r *http.Request, statusCode int, message string, details []apperror.FieldError) {
	writeJSON(w, statusCode, Response[any]{Success: false, Message: message, Details: details, Meta: buildMeta(r)})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.Validation, apperror.InvalidToken:
		return http.StatusBadRequest
	case apperror.NotFound:
		return http.StatusNotFound
	case apperror.Authentication:
		return http.StatusUnauthorized
	case apperror.Authorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

const unexpectedMessage = "An unexpected error occurred"

// WriteError renders err as an envelope. Errors without a known kind become a
// generic 500; their detail only reaches the log.
func WriteError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind == apperror.Unexpected {
		log.WithError(err).WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": RequestIDFrom(r),
		}).Error("unexpected error")
		JSONError(w, r, http.StatusInternalServerError, unexpectedMessage, nil)
		return
	}

	status := StatusFor(appErr.Kind)
	log.WithFields(logrus.Fields{
		"kind":       appErr.Kind.String(),
		"path":       r.URL.Path,
		"request_id": RequestIDFrom(r),
	}).Debug(appErr.Message)
	JSONError(w, r, status, appErr.Message, appErr.Fields)
}
