package forecastclient

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrNothingToRetry is returned by Retry when the last outcome is not a failure.
	ErrNothingToRetry = errors.New("no failed forecast request to retry")
	// ErrResponseTooLarge is wrapped in a MalformedJSONError when a successful
	// body exceeds the read limit.
	ErrResponseTooLarge = errors.New("forecast response too large")
)

const bodyPreviewRunes = 80

// HTTPError is returned for responses outside the 2xx range.
type HTTPError struct {
	StatusCode  int
	Status      string
	BodyPreview string
}

func (e *HTTPError) Error() string {
	if e.BodyPreview == "" {
		return fmt.Sprintf("failed to fetch forecast: %s", e.Status)
	}
	return fmt.Sprintf("failed to fetch forecast: %s: %s", e.Status, e.BodyPreview)
}

// ContentTypeError is returned when a successful response is not JSON.
// Detected is the media type sniffed from the body.
type ContentTypeError struct {
	ContentType string
	Detected    string
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("unexpected forecast content type %q (body looks like %s)", e.ContentType, e.Detected)
}

// MalformedJSONError is returned when the body cannot be parsed as JSON.
type MalformedJSONError struct {
	Err error
}

func (e *MalformedJSONError) Error() string {
	return fmt.Sprintf("malformed forecast JSON: %v", e.Err)
}

func (e *MalformedJSONError) Unwrap() error { return e.Err }

// NetworkError wraps transport failures such as DNS errors, refused
// connections and timeouts.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "connection error"
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Kind labels the result of a fetch.
type Kind string

const (
	KindSuccess        Kind = "success"
	KindHTTP           Kind = "http_error"
	KindBadContentType Kind = "bad_content_type"
	KindMalformedJSON  Kind = "malformed_json"
	KindNetwork        Kind = "network_error"
	KindUnknown        Kind = "unknown"
)

// KindOf classifies err. A nil error is KindSuccess.
func KindOf(err error) Kind {
	if err == nil {
		return KindSuccess
	}
	var (
		httpErr *HTTPError
		ctErr   *ContentTypeError
		jsonErr *MalformedJSONError
		netErr  *NetworkError
	)
	switch {
	case errors.As(err, &httpErr):
		return KindHTTP
	case errors.As(err, &ctErr):
		return KindBadContentType
	case errors.As(err, &jsonErr):
		return KindMalformedJSON
	case errors.As(err, &netErr):
		return KindNetwork
	}
	return KindUnknown
}

func preview(body []byte) string {
	s := strings.TrimSpace(string(body))
	if utf8.RuneCountInString(s) <= bodyPreviewRunes {
		return s
	}
	r := []rune(s)
	return string(r[:bodyPreviewRunes])
}
