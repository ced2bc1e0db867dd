package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the backend, decoded from its
// structured error payload. Code and Minimum come straight from the payload
// so callers can react without parsing message text.
type APIError struct {
	Status  int
	Code    string
	Message string

	// Minimum is the minimum order amount, populated on MIN_AMOUNT coupon
	// rejections.
	Minimum int64
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s (%s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("backend: status %d (%s)", e.Status, e.Code)
}

// parseAPIError decodes an error body shaped {"error": code, "message": ...,
// "minimum": N}. Unparseable bodies still yield a usable error carrying the
// status and the raw text.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Minimum int64  `json:"minimum"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = truncate(string(body), 200)
		return apiErr
	}

	apiErr.Code = payload.Error
	apiErr.Message = payload.Message
	apiErr.Minimum = payload.Minimum
	return apiErr
}

// IsNotFound reports whether err is a 404 from the backend. Used by the bulk
// remove fallback to tell a missing endpoint variant from a real fault.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
