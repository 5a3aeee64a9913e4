package service

import (
	"errors"
	"fmt"

	"github.com/hartawan/tambak-contracts/internal/validation"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrVersionConflict  = errors.New("contract was modified concurrently")
)

// ValidationError bundles the accumulated field errors and advisory
// warnings of a rejected payload.
type ValidationError struct {
	Fields   []validation.FieldError
	Warnings []validation.Warning
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field error(s)", len(e.Fields))
}
