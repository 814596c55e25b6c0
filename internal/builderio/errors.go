package builderio

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
)

// ErrContentNotFound is returned when a content entry does not exist remotely.
var ErrContentNotFound = errors.New("content not found")

// APIError is a non-2xx response from the remote source.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the remote source.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

var apiKeyParam = regexp.MustCompile(`apiKey=[^&]*`)

func redactAPIKey(u string) string {
	return apiKeyParam.ReplaceAllString(u, "apiKey=xxxxx")
}
