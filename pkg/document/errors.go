package document

import (
	"fmt"
	"net/http"

	sgerrors "github.com/vnykmshr/slidegate/pkg/common/errors"
)

// maxErrorBody caps how much of a failed response is kept in APIError.
const maxErrorBody = 4 << 10

// APIError is returned when the API answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("document API returned status %d: %s", e.StatusCode, e.Body)
}

// Unwrap maps 429 responses to ErrRateLimited.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests {
		return sgerrors.ErrRateLimited
	}
	return nil
}
