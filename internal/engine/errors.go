package engine

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

var (
	ErrNoApplicableRate       = errors.New("pricing: no applicable rate")
	ErrInvalidPricingInput    = errors.New("pricing: invalid pricing input")
	ErrUnknownEnumValue       = errors.New("pricing: unknown enum value")
	ErrAmbiguousRateSelection = errors.New("pricing: ambiguous rate selection")
)

// NoApplicableRateError identifies the first date no active rate covers.
type NoApplicableRateError struct {
	Date civil.Date
}

func (e *NoApplicableRateError) Error() string {
	return fmt.Sprintf("%v on %s", ErrNoApplicableRate, e.Date)
}

func (e *NoApplicableRateError) Unwrap() error { return ErrNoApplicableRate }

// AmbiguousRateError lists the equally specific rates competing for one date.
type AmbiguousRateError struct {
	Date    civil.Date
	RateIDs []string
}

func (e *AmbiguousRateError) Error() string {
	return fmt.Sprintf("%v on %s: %s", ErrAmbiguousRateSelection, e.Date, strings.Join(e.RateIDs, ", "))
}

func (e *AmbiguousRateError) Unwrap() error { return ErrAmbiguousRateSelection }

type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidPricingInput, e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidPricingInput }

type UnknownEnumError struct {
	Kind  string
	Value string
}

func (e *UnknownEnumError) Error() string {
	return fmt.Sprintf("%v: %s %q", ErrUnknownEnumValue, e.Kind, e.Value)
}

func (e *UnknownEnumError) Unwrap() error { return ErrUnknownEnumValue }

func invalid(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}
