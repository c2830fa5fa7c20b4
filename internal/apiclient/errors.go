package apiclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/apexkudos/kudos/internal/apperror"
)

// Error is a non-2xx response from the backend.
//
// It unwraps to the apperror sentinel for its status, so callers can write
// errors.Is(err, apperror.ErrUnauthorized) without inspecting codes.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("apiclient: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// Unwrap maps the status code to a sentinel. Unmapped codes return nil.
func (e *Error) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperror.ErrValidation
	case http.StatusUnauthorized:
		return apperror.ErrUnauthorized
	case http.StatusForbidden:
		return apperror.ErrForbidden
	case http.StatusNotFound:
		return apperror.ErrNotFound
	case http.StatusConflict:
		return apperror.ErrConflict
	}
	return nil
}

// newError reads the backend's {"error","message"} body. A
// {"detail": "..."} body is also understood.
func newError(resp *http.Response) *Error {
	e := &Error{StatusCode: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Message string `json:"message"`
		Detail  any    `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if d, ok := body.Detail.(string); ok {
			e.Message = d
		}
		if body.Message != "" {
			e.Message = body.Message
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(raw))
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}
