package types

import "fmt"

// ValidationError reports a missing or empty required field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing %s", e.Field)
}

// MalformedInputError reports a request body that could not be decoded.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string {
	if e.Err == nil {
		return "malformed input"
	}
	return fmt.Sprintf("malformed input: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// NotFoundError reports that no mapping exists for Key (an id, code or long URL).
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("URL not found: %s", e.Key)
}

// ConflictError reports that ShortCode is already taken.
type ConflictError struct {
	ShortCode string
}

func (e *ConflictError) Error() string {
	if e.ShortCode == "" {
		return "short code conflict"
	}
	return fmt.Sprintf("short code %s already exists", e.ShortCode)
}
