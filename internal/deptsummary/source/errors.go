package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Fetch stages reported in FetchError.Op.
const (
	OpRequest = "request"
	OpStatus  = "status"
	OpRead    = "read"
	OpDecode  = "decode"
)

var (
	ErrMissingUsers = errors.New(`payload has no "users" array`)
	ErrBodyTooLarge = errors.New("response body exceeds size limit")
	ErrURLRequired  = errors.New("source url required")
)

// FetchError is the only error FetchUsers returns. Err carries the transport,
// HTTP status or decode cause.
type FetchError struct {
	Op  string
	URL string
	Err error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "fetch users failed"
	}
	return fmt.Sprintf("fetch users from %s: %s: %v", e.URL, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http error"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if msg == "" {
		msg = "http error"
	}
	return fmt.Sprintf("http error: status=%d message=%s", e.StatusCode, msg)
}

// Retryable reports whether another attempt could succeed.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

const maxErrorBody = 512

func parseHTTPError(status int, raw []byte) *HTTPError {
	body := strings.TrimSpace(string(raw))
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	// dummyjson-style error envelope: {"message": "..."}
	var env struct {
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(raw, &env); err == nil {
		msg = strings.TrimSpace(env.Message)
	}
	return &HTTPError{StatusCode: status, Message: msg, Body: body}
}
