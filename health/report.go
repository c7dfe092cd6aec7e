package health

import (
	"strings"
	"time"
)

// Overall is the classification of a whole report.
type Overall int

const (
	// OverallHealthy means every check in the report is healthy.
	OverallHealthy Overall = iota
	// OverallDegraded means at least one check is unhealthy.
	OverallDegraded
)

// String returns the string representation of the overall status.
func (o Overall) String() string {
	switch o {
	case OverallHealthy:
		return "healthy"
	case OverallDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Overall) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Report is the outcome of one aggregation cycle. Checks holds exactly one
// entry per registered probe, in registration order.
type Report struct {
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks"`
}

// Overall returns OverallHealthy iff every check is healthy. An empty report
// is healthy.
func (r Report) Overall() Overall {
	for _, c := range r.Checks {
		if c.Status != StatusHealthy {
			return OverallDegraded
		}
	}
	return OverallHealthy
}

// HealthyCount returns the number of healthy checks.
func (r Report) HealthyCount() int {
	n := 0
	for _, c := range r.Checks {
		if c.Status == StatusHealthy {
			n++
		}
	}
	return n
}

// Unhealthy returns the unhealthy checks in report order.
func (r Report) Unhealthy() []CheckResult {
	var out []CheckResult
	for _, c := range r.Checks {
		if c.Status != StatusHealthy {
			out = append(out, c)
		}
	}
	return out
}

// AlertHeader opens every alert body.
const AlertHeader = "⚠️ Service Health Alert\n\n"

// FormatAlert builds the alert body for r: the header followed by one
// "- <service>: <message>" line per unhealthy check.
func FormatAlert(r Report) string {
	var b strings.Builder
	b.WriteString(AlertHeader)
	for _, c := range r.Unhealthy() {
		b.WriteString("- ")
		b.WriteString(c.ServiceName)
		b.WriteString(": ")
		b.WriteString(c.Message)
		b.WriteString("\n")
	}
	return b.String()
}
