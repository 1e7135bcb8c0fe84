package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTargetLaneMissing is returned when generation starts before a target lane was set.
	ErrTargetLaneMissing = errors.New("target lane not set")

	// ErrTargetLaneTooShort is returned when the target lane cannot provide a full command window.
	ErrTargetLaneTooShort = errors.New("target lane too short")

	// ErrMalformedObservation is returned when agent tracks have inconsistent shapes.
	ErrMalformedObservation = errors.New("malformed observation")

	// ErrMalformedPrediction is returned when the oracle output does not match its batch.
	ErrMalformedPrediction = errors.New("malformed prediction")

	// ErrNoValidScenario is returned when no branch reached the prediction horizon.
	ErrNoValidScenario = errors.New("no scenario reached a valid end state")

	// ErrRunNotFound is returned when a run ID cannot be found in the store.
	ErrRunNotFound = errors.New("run not found")

	// ErrInvalidConfig is matched by every ConfigError.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
}

// ConfigError aggregates validation failures of a Config.
type ConfigError struct {
	Errors []error
}

func (e *ConfigError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Is lets errors.Is(err, ErrInvalidConfig) match any ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}
