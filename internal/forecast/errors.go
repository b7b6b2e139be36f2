package forecast

import "fmt"

// InsufficientHistoryError reports that a series did not cover a full
// seasonality cycle. It is recoverable: the engine falls back to a flat
// profile and records this error as the reason.
type InsufficientHistoryError struct {
	Weeks       int
	CycleLength int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history: %d weeks, need at least %d", e.Weeks, e.CycleLength)
}

// InvalidSettingsError is returned when a settings value is outside its
// accepted range.
type InvalidSettingsError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidSettingsError) Error() string {
	return fmt.Sprintf("invalid setting %s=%g: %s", e.Field, e.Value, e.Reason)
}
