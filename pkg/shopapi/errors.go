package shopapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrInvalidConfig is returned when the client configuration is incomplete
	ErrInvalidConfig = errors.New("invalid shop API configuration")

	// ErrNetworkError is returned when the API could not be reached
	ErrNetworkError = errors.New("network error")

	// ErrUnauthorized is matched by 401 and 403 responses
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is matched by 404 responses
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx response from the shop API.
type APIError struct {
	StatusCode int
	Detail     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("shop API error: status=%d body=%s", e.StatusCode, e.Body)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{
		StatusCode: status,
		Detail:     parseDetail(body),
		Body:       string(body),
	}
}

// parseDetail extracts a human readable message from the error payloads the API emits:
// {"detail": "..."}, {"error": "..."}, {"message": "..."} or field errors {"field": ["..."]}.
func parseDetail(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	for _, key := range []string{"detail", "error", "message"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}

	fields := make([]string, 0, len(payload))
	for k := range payload {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	var parts []string
	for _, field := range fields {
		switch v := payload[field].(type) {
		case string:
			parts = append(parts, field+": "+v)
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok {
					parts = append(parts, field+": "+s)
				}
			}
		}
	}
	return strings.Join(parts, "; ")
}

// Message returns the text suitable for a user-facing notification: the API's own
// detail when the failure came from a response, otherwise the error text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}
