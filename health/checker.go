package health

import (
	"context"
	"time"
)

// Status is the verdict of a single probe.
type Status int

const (
	// StatusHealthy indicates the subsystem is functioning normally.
	StatusHealthy Status = iota
	// StatusUnhealthy indicates the subsystem is not functioning, or its
	// state could not be determined.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckResult is the outcome of one probe invocation.
type CheckResult struct {
	// ServiceName is the name the probe was registered under.
	ServiceName string `json:"service"`

	Status  Status `json:"status"`
	Message string `json:"message"`

	// Duration is how long the probe took.
	Duration time.Duration `json:"duration_ns"`

	// Timestamp is when the probe was started.
	Timestamp time.Time `json:"timestamp"`

	// Err is set when the result was produced from a ProbeFailure.
	Err error `json:"-"`
}

// Healthy creates a healthy result.
func Healthy(message string) CheckResult {
	return CheckResult{
		Status:    StatusHealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Unhealthy creates an unhealthy result. A probe that observed a definite bad
// state returns this with a nil error; failures to observe are returned as
// errors instead.
func Unhealthy(message string) CheckResult {
	return CheckResult{
		Status:    StatusUnhealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Probe checks one subsystem. It returns either a verdict or an error when
// the status could not be determined; the Aggregator turns the error into an
// Unhealthy result. Probes must honor ctx and must not mutate what they probe.
//
// A probe that ignores ctx keeps running after its timeout; each such call
// leaves one goroutine behind until Check returns.
type Probe interface {
	Check(ctx context.Context) (CheckResult, error)
}

// ProbeFunc adapts an ordinary function to Probe.
type ProbeFunc func(ctx context.Context) (CheckResult, error)

// Check calls f.
func (f ProbeFunc) Check(ctx context.Context) (CheckResult, error) {
	return f(ctx)
}

// Notifier publishes alerts.
type Notifier interface {
	Publish(ctx context.Context, subject, message string) error
}
