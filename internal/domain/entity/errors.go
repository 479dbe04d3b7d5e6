package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is
	ErrValidation = errors.New("validation error")

	// ErrConfigurationMissing matches every *ConfigurationMissingError via errors.Is
	ErrConfigurationMissing = errors.New("rate configuration missing")

	// ErrNotFound is returned when a referenced record does not exist
	ErrNotFound = errors.New("not found")

	// ErrConfigurationExists is returned when a company already has a rate configuration
	ErrConfigurationExists = errors.New("rate configuration already exists for company")

	// ErrRequestFrozen is returned when segments are edited after submission
	ErrRequestFrozen = errors.New("request is not in draft state")
)

// ValidationError reports malformed input on a single field
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError with a formatted reason
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConfigurationMissingError reports that no rate bands exist for a lookup
type ConfigurationMissingError struct {
	CompanyID   int64
	Kind        RequestKind
	VehicleType VehicleType
}

func (e *ConfigurationMissingError) Error() string {
	return fmt.Sprintf("%s rate configuration may not be defined for company %d and vehicle type %q",
		e.Kind, e.CompanyID, e.VehicleType)
}

// Is makes errors.Is(err, ErrConfigurationMissing) true
func (e *ConfigurationMissingError) Is(target error) bool {
	return target == ErrConfigurationMissing
}
