package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	apperrors "github.com/revant7/trezora-frontend-sub000/pkg/errors"
)

// backendErrorBody covers the error body shapes the storefront backend is
// known to produce: a "detail" string, a "message" string, or a map of field
// names to lists of messages (form validation).
type backendErrorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an AppError. The backend-provided message is preserved verbatim
// where one can be extracted; otherwise a generic message with the status
// code is used. The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return mapStatus(resp.StatusCode, "")
	}

	return mapStatus(resp.StatusCode, extractMessage(bodyBytes))
}

// extractMessage pulls a human-readable message out of a backend error body.
// Returns "" when nothing usable is present.
func extractMessage(body []byte) string {
	var structured backendErrorBody
	if json.Unmarshal(body, &structured) == nil {
		switch {
		case structured.Detail != "":
			return structured.Detail
		case structured.Message != "":
			return structured.Message
		case structured.Error != "":
			return structured.Error
		}
	}

	// Field-keyed validation errors: {"email": ["already registered"]}.
	var fields map[string][]string
	if json.Unmarshal(body, &fields) == nil && len(fields) > 0 {
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)

		var msgs []string
		for _, name := range names {
			for _, m := range fields[name] {
				msgs = append(msgs, fmt.Sprintf("%s: %s", name, m))
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	return ""
}

// mapStatus converts an HTTP status plus an optional backend message into an
// AppError from the standard taxonomy.
func mapStatus(status int, message string) error {
	switch {
	case status == http.StatusUnauthorized:
		if message == "" {
			message = "authentication required"
		}
		return apperrors.Unauthorized(message)
	case status == http.StatusForbidden:
		if message == "" {
			message = "access denied"
		}
		return apperrors.Forbidden(message)
	case status == http.StatusNotFound:
		if message == "" {
			message = "not found"
		}
		return &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: message,
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	case status == http.StatusConflict:
		if message == "" {
			message = "conflict"
		}
		return apperrors.Conflict(message)
	case status >= 400 && status < 500:
		if message == "" {
			message = fmt.Sprintf("request rejected (status %d)", status)
		}
		return apperrors.Backend(status, message)
	default:
		return apperrors.Unavailable(fmt.Errorf("backend returned status %d", status))
	}
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
