package domain

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var (
	// ErrAlreadyExists is returned when creating something that is already there
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotFound is returned when a dataset, entity or file is missing
	ErrNotFound = errors.New("not found")
	// ErrInvalidValue is returned when a field has the right type but a bad shape
	ErrInvalidValue = errors.New("invalid value")
	// ErrInvalidType is returned when a field has the wrong type
	ErrInvalidType = errors.New("invalid type")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidValue, fmt.Sprintf(format, args...))
}

// decodeError maps codec type errors to ErrInvalidType and leaves our own
// sentinel errors untouched.
func decodeError(kind string, err error) error {
	if errors.Is(err, ErrInvalidValue) || errors.Is(err, ErrInvalidType) {
		return fmt.Errorf("while decoding %s: %w", kind, err)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("while decoding %s: %w: field %s: %s", kind, ErrInvalidType, typeErr.Field, typeErr.Value)
	}
	return fmt.Errorf("while decoding %s: %w", kind, err)
}

func checkID(name string, id int) error {
	if id < 1 {
		return invalidf("%s should be greater than 0, got %d", name, id)
	}
	return nil
}
