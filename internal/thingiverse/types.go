package thingiverse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Thing is a single published model project on Thingiverse.
type Thing struct {
	ID          int
	Name        string
	Thumbnail   string
	URL         string
	Description string
}

// UnmarshalJSON decodes a thing payload. The public-facing URL wins over
// the generic API URL when both are present.
func (t *Thing) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          int    `json:"id"`
		Name        string `json:"name"`
		Thumbnail   string `json:"thumbnail"`
		URL         string `json:"url"`
		PublicURL   string `json:"public_url"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Thing{
		ID:          raw.ID,
		Name:        raw.Name,
		Thumbnail:   raw.Thumbnail,
		URL:         pickURL(raw.PublicURL, raw.URL),
		Description: raw.Description,
	}
	return nil
}

// ThingFile is one downloadable file belonging to a Thing.
type ThingFile struct {
	ID        int
	Name      string
	Thumbnail string
	URL       string
}

// UnmarshalJSON decodes a thing-file payload with the same URL precedence
// rule as Thing.
func (f *ThingFile) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        int    `json:"id"`
		Name      string `json:"name"`
		Thumbnail string `json:"thumbnail"`
		URL       string `json:"url"`
		PublicURL string `json:"public_url"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = ThingFile{
		ID:        raw.ID,
		Name:      raw.Name,
		Thumbnail: raw.Thumbnail,
		URL:       pickURL(raw.PublicURL, raw.URL),
	}
	return nil
}

// Collection is a user-curated named group of Things.
type Collection struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Thumbnail   string `json:"thumbnail"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Message is the dynamic announcement banner fetched once at startup.
type Message struct {
	Message string `json:"message"`
}

func pickURL(publicURL, url string) string {
	if publicURL != "" {
		return publicURL
	}
	return url
}

// APIError is a normalized remote failure: the HTTP status plus the best
// message the response body offered.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("thingiverse: %s (status %d)", e.Message, e.StatusCode)
}

const unknownErrorMessage = "Unknown"

// newAPIError extracts an error message from a failed response body. It
// tries the JSON "error" field first, then the raw body text, then falls
// back to a fixed sentinel.
func newAPIError(statusCode int, body []byte) *APIError {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(body), &payload); err == nil && payload.Error != "" {
		return &APIError{StatusCode: statusCode, Message: payload.Error}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return &APIError{StatusCode: statusCode, Message: text}
	}
	return &APIError{StatusCode: statusCode, Message: unknownErrorMessage}
}
