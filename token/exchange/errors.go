package exchange

import (
	"encoding/json"
	"fmt"

	errs "github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/errors"
)

// Kind names the grant being performed.
type Kind string

const (
	KindIDToken Kind = "id_token"
	KindRefresh Kind = "refresh_token"
	KindCode    Kind = "authorization_code"
)

// Error is a failed call to a token endpoint. It never carries token material or
// response bodies, only the status code and the OAuth error code when one was sent.
type Error struct {
	Kind       Kind
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s exchange at %s failed (status %d): %v", e.Kind, e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s exchange at %s failed: %v", e.Kind, e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets callers match any exchange failure against the taxonomy sentinel.
func (e *Error) Is(target error) bool {
	return target == errs.ErrExchange
}

type oAuthError struct {
	Code string `json:"error"`
}

// describeBody extracts the OAuth error code from an error response, ignoring the rest.
func describeBody(body []byte) error {
	var oauthErr oAuthError
	if err := json.Unmarshal(body, &oauthErr); err != nil || oauthErr.Code == "" {
		return fmt.Errorf("unexpected response")
	}
	return fmt.Errorf("oauth error %q", oauthErr.Code)
}
