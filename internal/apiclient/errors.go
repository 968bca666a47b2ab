package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Fixed user-facing messages.
const (
	NetworkErrorMessage = "Unable to reach the server. Check your connection and try again."
	FallbackMessage     = "Something went wrong."
)

// ErrSessionExpired is returned when the token refresh fails. Stored tokens
// have been cleared and the user must log in again.
var ErrSessionExpired = errors.New("apiclient: session expired")

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// errorPayload covers the error shapes the backend returns.
type errorPayload struct {
	Detail  json.RawMessage `json:"detail"`
	Message json.RawMessage `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

// ErrorMessage converts err into the text shown to the user. Transport
// failures map to NetworkErrorMessage. Backend errors surface the first of
// detail, errors[0], or message, sentence-cased. Anything else yields
// fallback, or FallbackMessage when fallback is empty.
func ErrorMessage(err error, fallback string) string {
	if fallback == "" {
		fallback = FallbackMessage
	}
	if err == nil {
		return fallback
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, ErrSessionExpired) {
			return fallback
		}
		return NetworkErrorMessage
	}
	if len(strings.TrimSpace(string(apiErr.Body))) == 0 {
		return NetworkErrorMessage
	}

	var p errorPayload
	if json.Unmarshal(apiErr.Body, &p) != nil {
		return fallback
	}
	if s := stringField(p.Detail); s != "" {
		return sentenceCase(s)
	}
	if len(p.Errors) > 0 {
		first := p.Errors[0]
		switch {
		case first.Field != "" && first.Message != "":
			return sentenceCase(first.Field) + ": " + first.Message
		case first.Message != "":
			return sentenceCase(first.Message)
		}
	}
	if s := stringField(p.Message); s != "" {
		return sentenceCase(s)
	}
	return fallback
}

// stringField returns the trimmed value of a JSON string, or "" for any
// other JSON type.
func stringField(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func sentenceCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
