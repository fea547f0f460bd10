package openproject

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// APIError is a non-2xx response from the OpenProject API, with the
// error messages extracted from the HAL error document when present.
type APIError struct {
	StatusCode int
	Message    string
	// Details carries per-field validation messages from 422
	// responses, keyed by attribute name.
	Details map[string]string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// halError is the API v3 error document. Multiple validation errors
// arrive embedded under _embedded.errors; single errors carry just a
// top-level message.
type halError struct {
	ErrorIdentifier string `json:"errorIdentifier"`
	Message         string `json:"message"`
	Embedded        struct {
		Errors []struct {
			Message  string `json:"message"`
			Embedded struct {
				Details struct {
					Attribute string `json:"attribute"`
				} `json:"details"`
			} `json:"_embedded"`
		} `json:"errors"`
	} `json:"_embedded"`
}

func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("API request failed: %d %s", statusCode, http.StatusText(statusCode)),
	}

	var doc halError
	if err := json.Unmarshal(body, &doc); err != nil {
		return apiErr
	}

	if len(doc.Embedded.Errors) > 0 {
		msgs := make([]string, 0, len(doc.Embedded.Errors))
		details := make(map[string]string, len(doc.Embedded.Errors))
		for _, e := range doc.Embedded.Errors {
			if e.Message == "" {
				continue
			}
			msgs = append(msgs, e.Message)
			if attr := e.Embedded.Details.Attribute; attr != "" {
				details[attr] = e.Message
			}
		}
		if len(msgs) > 0 {
			apiErr.Message = strings.Join(msgs, "; ")
		}
		if len(details) > 0 {
			apiErr.Details = details
		}
	} else if doc.Message != "" {
		apiErr.Message = doc.Message
	}
	return apiErr
}
