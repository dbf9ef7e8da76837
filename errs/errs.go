// Package errs holds the error kinds shared by the day-count, curve and bond packages.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrConvention is returned for an unknown day-count or yield calculation convention name.
	ErrConvention = errors.New("unknown convention")

	// ErrConsistency is returned when inputs contradict each other or a required companion
	// argument is missing (price without settlement date, duplicate pivots, Act/Act without end).
	ErrConsistency = errors.New("inconsistent input")

	// ErrConvergence is returned when a root solve or bootstrap step exhausts its iteration budget.
	ErrConvergence = errors.New("did not converge")

	// ErrDomain is returned for mathematically invalid input (negative maturity, 1+r <= 0).
	ErrDomain = errors.New("value outside domain")
)

// ConventionKind tells which registry rejected a name.
type ConventionKind string

const (
	KindDayCount ConventionKind = "day count"
	KindYield    ConventionKind = "yield calculation"
)

// ConventionError reports an unknown convention name.
type ConventionError struct {
	Kind ConventionKind
	Name string
}

func (e *ConventionError) Error() string {
	return fmt.Sprintf("Unknown or unsupported %s convention: %s", e.Kind, e.Name)
}

// Is lets errors.Is(err, ErrConvention) match.
func (e *ConventionError) Is(target error) bool {
	return target == ErrConvention
}

// UnknownYieldConvention builds the error returned for an unrecognised yield calculation convention.
func UnknownYieldConvention(name string) error {
	return &ConventionError{Kind: KindYield, Name: name}
}

// UnknownDayCount builds the error returned for an unrecognised day-count convention.
func UnknownDayCount(name string) error {
	return &ConventionError{Kind: KindDayCount, Name: name}
}

// Consistency wraps ErrConsistency with a formatted message.
func Consistency(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConsistency, fmt.Sprintf(format, args...))
}

// Convergence wraps ErrConvergence with a formatted message.
func Convergence(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConvergence, fmt.Sprintf(format, args...))
}

// Domain wraps ErrDomain with a formatted message.
func Domain(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDomain, fmt.Sprintf(format, args...))
}
