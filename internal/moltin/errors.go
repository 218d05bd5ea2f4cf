package moltin

import (
	"errors"
	"fmt"
)

// APIError carries a non-success commerce API response. Callers must not
// assume partial success when they receive one.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("moltin: api status %d: %s", e.Status, e.Body)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// AuthError indicates the token exchange against the identity endpoint failed.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("moltin: token exchange failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ErrNoImage is returned by ResolveImage when the product carries no image
// relationship.
var ErrNoImage = errors.New("moltin: product has no image")
