package nearest

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDimension is returned when an index dimension is not positive.
	ErrInvalidDimension = errors.New("nearest: invalid dimension")

	// ErrDimensionMismatch is returned when a point's length differs from the
	// index dimension.
	ErrDimensionMismatch = errors.New("nearest: dimension mismatch")

	// ErrInvalidConfig is returned for LSH parameters that cannot be used.
	ErrInvalidConfig = errors.New("nearest: invalid config")

	// ErrInvalidBudget is returned when a query candidate budget is not positive.
	ErrInvalidBudget = errors.New("nearest: candidate budget must be > 0")

	// ErrIndexFull is returned when an index cannot address another point.
	ErrIndexFull = errors.New("nearest: index is full")
)

// InvalidDimensionError reports a non-positive index dimension.
// It matches ErrInvalidDimension with errors.Is.
type InvalidDimensionError struct {
	Dimension int
}

func (e *InvalidDimensionError) Error() string {
	return fmt.Sprintf("nearest: dimension must be > 0, got %d", e.Dimension)
}

func (e *InvalidDimensionError) Unwrap() error { return ErrInvalidDimension }

// DimensionMismatchError reports a point whose length differs from the index
// dimension. Position is the point's offset in the dataset being built, or -1
// for a single Insert or query.
type DimensionMismatchError struct {
	Expected int
	Actual   int
	Position int
}

func (e *DimensionMismatchError) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("nearest: point %d has dimension %d, expected %d", e.Position, e.Actual, e.Expected)
	}
	return fmt.Sprintf("nearest: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// ConfigError reports an LSH configuration field that failed validation.
// It matches ErrInvalidConfig with errors.Is.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("nearest: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
