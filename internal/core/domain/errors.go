package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRunNotFound         = errors.New("extraction run not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidPurpose      = errors.New("unknown research purpose")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrTemporary           = errors.New("temporary failure")
	ErrInvariant           = errors.New("pipeline invariant violated")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
