package recipes

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingID is returned for an empty recipe id; no fetch is made.
	ErrMissingID = errors.New("recipes: missing recipe id")
	// ErrNotFound is returned when the API answers 404.
	ErrNotFound = errors.New("recipes: recipe not found")
	// ErrUnsuccessful is returned when the envelope has success != true.
	ErrUnsuccessful = errors.New("recipes: upstream reported failure")
	// ErrMalformed is returned for bodies that are not a usable envelope.
	ErrMalformed = errors.New("recipes: malformed upstream response")
	// ErrUnavailable is returned when the API cannot be reached and no
	// fallback copy exists.
	ErrUnavailable = errors.New("recipes: upstream unavailable")
)

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("recipes: upstream status %d", e.Status)
}

// EnvelopeError is an envelope with success != true. It matches
// ErrUnsuccessful under errors.Is.
type EnvelopeError struct {
	Message string
}

func (e *EnvelopeError) Error() string {
	if e.Message == "" {
		return ErrUnsuccessful.Error()
	}
	return ErrUnsuccessful.Error() + ": " + e.Message
}

func (e *EnvelopeError) Unwrap() error { return ErrUnsuccessful }

// expected reports errors that are part of normal operation and should not
// be sent to error reporting.
func expected(err error) bool {
	return errors.Is(err, ErrMissingID) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnsuccessful)
}
