package ratelimit

import (
	"fmt"
)

var (
	// ErrInvalidConfiguration is a sentinel for the error that
	// occurs when a limiter, a harness or a workload is built
	// with a configuration that can't be honored.
	ErrInvalidConfiguration = &InvalidConfiguration{}
)

// InvalidConfiguration is returned by the constructors
// when the provided configuration is rejected.
type InvalidConfiguration struct {
	Field  string
	Reason string
}

func (e *InvalidConfiguration) Error() string {
	return fmt.Sprintf("InvalidConfiguration: %v %v", e.Field, e.Reason)
}

func (e *InvalidConfiguration) Is(tgt error) bool {
	_, ok := tgt.(*InvalidConfiguration)
	return ok
}

func invalidConfiguration(field string, format string, args ...interface{}) error {
	return &InvalidConfiguration{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}
