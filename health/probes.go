package health

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonwraymond/opswatch/store"
)

// StaticProbe always reports healthy with message. It stands in for
// subsystems whose liveness is implied by the process running.
func StaticProbe(message string) Probe {
	return ProbeFunc(func(context.Context) (CheckResult, error) {
		return Healthy(message), nil
	})
}

// HTTPProbe issues a GET to url. Any 2xx response is healthy; other status
// codes are unhealthy. A transport error is a probe failure. A nil client
// uses http.DefaultClient.
func HTTPProbe(url string, client *http.Client) Probe {
	if client == nil {
		client = http.DefaultClient
	}
	return ProbeFunc(func(ctx context.Context) (CheckResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return CheckResult{}, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return CheckResult{}, err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return Healthy("API responding normally"), nil
		}
		return Unhealthy(fmt.Sprintf("API returned status %d", resp.StatusCode)), nil
	})
}

// StatusDescriber reports the state of a backing table.
type StatusDescriber interface {
	DescribeStatus(ctx context.Context) (store.Status, error)
}

// StoreProbe is healthy iff the store reports ACTIVE. The message is always
// "Table status: <state>"; a describe error is a probe failure.
func StoreProbe(d StatusDescriber) Probe {
	return ProbeFunc(func(ctx context.Context) (CheckResult, error) {
		status, err := d.DescribeStatus(ctx)
		if err != nil {
			return CheckResult{}, err
		}
		msg := "Table status: " + string(status)
		if status.Active() {
			return Healthy(msg), nil
		}
		return Unhealthy(msg), nil
	})
}
