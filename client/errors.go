package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error taxonomy. Domain errors carry a specific message each; transport
// failures collapse into ErrConnectivity; authorization failures keep their
// HTTP status on the wrapped *APIError so 401 and 403 stay distinguishable.
var (
	// ErrConnectivity covers network failures and non-JSON responses.
	ErrConnectivity = errors.New("cannot reach the authentication service")
	// ErrNoSession is returned when an authenticated call is attempted
	// without a session.
	ErrNoSession = errors.New("no active session")
	// ErrRejected is the generic authentication rejection: wrong password
	// or an unrecognized face. Deliberately unspecific.
	ErrRejected = errors.New("authentication rejected")
	// ErrAlreadyEnrolled means the identity already has a biometric template.
	ErrAlreadyEnrolled = errors.New("biometric already enrolled")
	// ErrFaceNotDetected means the authority found no usable face in the image.
	ErrFaceNotDetected = errors.New("no face detected in the image")
	// ErrUserNotFound means the referenced identity does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists means the username is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidInput is a server-side validation rejection.
	ErrInvalidInput = errors.New("invalid input")
)

// APIError is a non-2xx response from the remote authority.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

// Unauthorized reports a 401: the held token (if any) is invalid.
func (e *APIError) Unauthorized() bool { return e.Status == http.StatusUnauthorized }

// Forbidden reports a 403: a point-in-time denial, session still valid.
func (e *APIError) Forbidden() bool { return e.Status == http.StatusForbidden }

// errorBody is the error payload shape: {detail} (FastAPI style) or
// {message}. Absence of both defaults to a generic message.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

func readAPIError(resp *http.Response) *APIError {
	msg := "unknown error"
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && len(raw) > 0 {
		var body errorBody
		if json.Unmarshal(raw, &body) == nil {
			switch {
			case body.Detail != "":
				msg = body.Detail
			case body.Message != "":
				msg = body.Message
			}
		}
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

// wrap pairs a domain sentinel with the server's message while keeping the
// *APIError reachable through errors.As.
func wrap(sentinel error, apiErr *APIError) error {
	return fmt.Errorf("%w: %w", sentinel, apiErr)
}
