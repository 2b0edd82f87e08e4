package oracle

import (
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrMissingCredential = errors.New("oracle: no API key configured")
	ErrEmptyResponse     = errors.New("oracle: empty response")
	ErrScriptUndefined   = errors.New("oracle: decide() is not defined")
)

// SchemaError reports a reply that decoded but broke the output contract.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("oracle: reply field %q: %s", e.Field, e.Reason)
}

// HTTPError represents a non-2xx response from the generation service.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("oracle: HTTP %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true for rate limits (429) and server errors (5xx).
func (e *HTTPError) IsRetryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// asHTTPError lifts the client library's status-bearing errors into
// HTTPError. Other errors are returned unchanged.
func asHTTPError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		msg := ""
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &HTTPError{StatusCode: reqErr.HTTPStatusCode, Message: msg}
	}
	return err
}
