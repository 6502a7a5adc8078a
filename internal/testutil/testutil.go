// Package testutil holds in-memory stores and request helpers shared by
// tests that drive the full router.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"bookcatalog/internal/platform/crypto"
)

// TestSecret is long enough to pass config validation.
const TestSecret = "test-secret-key-that-is-32-bytes-long"

// NewTokens returns a token service with the default TTLs.
func NewTokens() *crypto.Tokens {
	return crypto.NewTokens(TestSecret, 15*time.Minute, 7*24*time.Hour)
}

// GenerateExpiredToken issues an access token that expired an hour ago.
func GenerateExpiredToken(subject string, roles []string) string {
	past := func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _ := crypto.NewTokens(TestSecret, time.Hour-time.Minute, 2*time.Hour, crypto.WithClock(past)).
		IssueAccessToken(subject, roles)
	return token
}

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body any) *http.Request {
	var bodyBytes []byte
	if body != nil {
		if raw, ok := body.(string); ok {
			bodyBytes = []byte(raw)
		} else {
			bodyBytes, _ = json.Marshal(body)
		}
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// NewRequestWithAuth creates a new HTTP request with a bearer token
func NewRequestWithAuth(method, path string, body any, token string) *http.Request {
	r := NewRequest(method, path, body)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

// RecordResponse is a decoded response envelope.
type RecordResponse struct {
	Code    int
	Header  http.Header
	Success bool
	Message string
	Data    json.RawMessage
	Raw     []byte
}

// RecordHTTPResponse decodes the envelope written to w. Non-JSON bodies are
// kept in Raw only.
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)
	rec := RecordResponse{Code: result.StatusCode, Header: result.Header, Raw: bodyBytes}

	var env struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(bodyBytes, &env); err == nil {
		rec.Success = env.Success
		rec.Message = env.Message
		rec.Data = env.Data
	}
	return rec
}

// DecodeData unmarshals the envelope data into dst.
func (r RecordResponse) DecodeData(dst any) error {
	return json.Unmarshal(r.Data, dst)
}
