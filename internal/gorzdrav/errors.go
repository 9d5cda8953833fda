package gorzdrav

import (
	"errors"
	"fmt"
)

// ErrCodeNoSlots is the provider's "no appointments available" error code.
// It is an expected outcome of polling, not a fault.
const ErrCodeNoSlots = 39

// APIError is a structured provider failure decoded from the response
// envelope (success=false).
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gorzdrav: api error %d: %s", e.Code, e.Message)
}

// IsNoSlots reports whether err is the provider's "no slots" response.
func IsNoSlots(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == ErrCodeNoSlots
}
