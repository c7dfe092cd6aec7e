package health

import "errors"

var (
	// ErrProbeFailed indicates a probe could not determine its status.
	ErrProbeFailed = errors.New("health: probe failed")

	// ErrProbeTimeout indicates a probe did not return within its timeout.
	ErrProbeTimeout = errors.New("health: probe timeout")

	// ErrProbePanic indicates a probe panicked.
	ErrProbePanic = errors.New("health: probe panicked")

	// ErrSinkUnavailable indicates the summary metric could not be emitted.
	ErrSinkUnavailable = errors.New("health: metrics sink unavailable")

	// ErrNotifyFailed indicates the degradation alert could not be published.
	ErrNotifyFailed = errors.New("health: alert publish failed")

	// ErrInvalidProbe indicates a registration with an empty name or nil probe.
	ErrInvalidProbe = errors.New("health: invalid probe registration")

	// ErrProbeNotFound indicates a probe name that is not registered.
	ErrProbeNotFound = errors.New("health: probe not found")
)

// ProbeFailure records why a probe could not produce a verdict. It matches
// ErrProbeFailed and the underlying cause with errors.Is.
type ProbeFailure struct {
	Service string
	Err     error
}

func (e *ProbeFailure) Error() string {
	return e.Service + ": " + e.Err.Error()
}

// Unwrap exposes both ErrProbeFailed and the cause.
func (e *ProbeFailure) Unwrap() []error {
	return []error{ErrProbeFailed, e.Err}
}
