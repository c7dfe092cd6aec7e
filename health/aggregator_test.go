package health

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/opswatch/observe"
)

type recordingNotifier struct {
	mu       sync.Mutex
	subjects []string
	messages []string
	err      error
}

func (n *recordingNotifier) Publish(_ context.Context, subject, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subjects = append(n.subjects, subject)
	n.messages = append(n.messages, message)
	return n.err
}

func (n *recordingNotifier) calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

type recordingSink struct {
	mu    sync.Mutex
	datum []observe.Datum
	err   error
}

func (s *recordingSink) Emit(_ context.Context, d observe.Datum) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datum = append(s.datum, d)
	return s.err
}

func unhealthyProbe(msg string) Probe {
	return ProbeFunc(func(context.Context) (CheckResult, error) {
		return Unhealthy(msg), nil
	})
}

func failingProbe(err error) Probe {
	return ProbeFunc(func(context.Context) (CheckResult, error) {
		return CheckResult{}, err
	})
}

func TestNewAggregator_Defaults(t *testing.T) {
	agg := NewAggregator(nil)

	if agg.config.ProbeTimeout != 10*time.Second {
		t.Errorf("ProbeTimeout = %v, want 10s", agg.config.ProbeTimeout)
	}
	if agg.config.Namespace != "DevOps/Health" {
		t.Errorf("Namespace = %v, want DevOps/Health", agg.config.Namespace)
	}
	if agg.config.MetricName != "HealthyServices" {
		t.Errorf("MetricName = %v, want HealthyServices", agg.config.MetricName)
	}
	if agg.config.AlertSubject != "DevOps Health Check Alert" {
		t.Errorf("AlertSubject = %v, want DevOps Health Check Alert", agg.config.AlertSubject)
	}
	if agg.Registry() == nil {
		t.Error("Registry() = nil, want empty registry")
	}
}

func TestRunCycle_ReportOrderAndLength(t *testing.T) {
	for _, n := range []int{0, 1, 3, 10} {
		reg := NewRegistry()
		names := make([]string, n)
		for i := range names {
			names[i] = string(rune('a' + i))
			reg.MustRegister(names[i], okProbe("ok"))
		}

		report := NewAggregator(reg).RunCycle(context.Background())

		if len(report.Checks) != n {
			t.Fatalf("n=%d: len(Checks) = %d", n, len(report.Checks))
		}
		for i, c := range report.Checks {
			if c.ServiceName != names[i] {
				t.Errorf("n=%d: Checks[%d].ServiceName = %q, want %q", n, i, c.ServiceName, names[i])
			}
		}
	}
}

func TestRunCycle_DegradedAlertsOnce(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("apiCheck", okProbe("API responding normally"))
	reg.MustRegister("dbCheck", unhealthyProbe("table SCALING"))
	reg.MustRegister("lambdaCheck", okProbe("All functions operational"))

	notifier := &recordingNotifier{}
	report := NewAggregator(reg, WithNotifier(notifier)).RunCycle(context.Background())

	if len(report.Checks) != 3 {
		t.Fatalf("len(Checks) = %d, want 3", len(report.Checks))
	}
	if report.Overall() != OverallDegraded {
		t.Errorf("Overall() = %v, want degraded", report.Overall())
	}
	if notifier.calls() != 1 {
		t.Fatalf("Publish calls = %d, want 1", notifier.calls())
	}
	if notifier.subjects[0] != "DevOps Health Check Alert" {
		t.Errorf("subject = %q", notifier.subjects[0])
	}
	if !strings.Contains(notifier.messages[0], "dbCheck: table SCALING") {
		t.Errorf("alert %q does not mention dbCheck", notifier.messages[0])
	}
	if strings.Contains(notifier.messages[0], "apiCheck") {
		t.Errorf("alert %q mentions a healthy service", notifier.messages[0])
	}
}

func TestRunCycle_AlertListsEveryUnhealthy(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("one", unhealthyProbe("down"))
	reg.MustRegister("two", okProbe("ok"))
	reg.MustRegister("three", failingProbe(errors.New("timeout dialing")))

	notifier := &recordingNotifier{}
	NewAggregator(reg, WithNotifier(notifier)).RunCycle(context.Background())

	want := "⚠️ Service Health Alert\n\n- one: down\n- three: timeout dialing\n"
	if notifier.calls() != 1 || notifier.messages[0] != want {
		t.Errorf("messages = %q, want [%q]", notifier.messages, want)
	}
}

func TestRunCycle_HealthyNeverAlerts(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("a", okProbe("ok"))
	reg.MustRegister("b", okProbe("ok"))

	notifier := &recordingNotifier{}
	report := NewAggregator(reg, WithNotifier(notifier)).RunCycle(context.Background())

	if report.Overall() != OverallHealthy {
		t.Errorf("Overall() = %v, want healthy", report.Overall())
	}
	if notifier.calls() != 0 {
		t.Errorf("Publish calls = %d, want 0", notifier.calls())
	}
}

func TestRunCycle_ProbeFailureIsolated(t *testing.T) {
	third := false
	reg := NewRegistry()
	reg.MustRegister("first", okProbe("fine"))
	reg.MustRegister("second", failingProbe(errors.New("ResourceNotFoundException")))
	reg.MustRegister("third", ProbeFunc(func(context.Context) (CheckResult, error) {
		third = true
		return Healthy("fine"), nil
	}))

	report := NewAggregator(reg).RunCycle(context.Background())

	if !third {
		t.Fatal("third probe was not run")
	}
	if len(report.Checks) != 3 {
		t.Fatalf("len(Checks) = %d, want 3", len(report.Checks))
	}
	if report.Checks[0].Status != StatusHealthy || report.Checks[2].Status != StatusHealthy {
		t.Errorf("probes 1 and 3 = %v, %v; want healthy", report.Checks[0].Status, report.Checks[2].Status)
	}

	failed := report.Checks[1]
	if failed.Status != StatusUnhealthy {
		t.Errorf("failed.Status = %v, want unhealthy", failed.Status)
	}
	if failed.Message != "ResourceNotFoundException" {
		t.Errorf("failed.Message = %q", failed.Message)
	}
	if !errors.Is(failed.Err, ErrProbeFailed) {
		t.Errorf("failed.Err = %v, want ErrProbeFailed", failed.Err)
	}
}

func TestRunCycle_PanicIsolated(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("boom", ProbeFunc(func(context.Context) (CheckResult, error) {
		panic("nil map")
	}))
	reg.MustRegister("after", okProbe("ok"))

	report := NewAggregator(reg).RunCycle(context.Background())

	if len(report.Checks) != 2 {
		t.Fatalf("len(Checks) = %d, want 2", len(report.Checks))
	}
	if !errors.Is(report.Checks[0].Err, ErrProbePanic) {
		t.Errorf("Checks[0].Err = %v, want ErrProbePanic", report.Checks[0].Err)
	}
	if report.Checks[1].Status != StatusHealthy {
		t.Errorf("Checks[1].Status = %v, want healthy", report.Checks[1].Status)
	}
}

func TestRunCycle_Timeout(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("slow", ProbeFunc(func(ctx context.Context) (CheckResult, error) {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return Healthy("too late"), nil
	}))
	reg.MustRegister("fast", okProbe("ok"))

	agg := NewAggregator(reg, WithConfig(AggregatorConfig{ProbeTimeout: 20 * time.Millisecond}))
	report := agg.RunCycle(context.Background())

	if report.Checks[0].Status != StatusUnhealthy {
		t.Errorf("slow.Status = %v, want unhealthy", report.Checks[0].Status)
	}
	if !errors.Is(report.Checks[0].Err, ErrProbeTimeout) {
		t.Errorf("slow.Err = %v, want ErrProbeTimeout", report.Checks[0].Err)
	}
	if report.Checks[1].Status != StatusHealthy {
		t.Errorf("fast.Status = %v, want healthy", report.Checks[1].Status)
	}
}

func TestRunCycle_ServiceNameFromRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("DynamoDB", ProbeFunc(func(context.Context) (CheckResult, error) {
		r := Healthy("ok")
		r.ServiceName = "something else"
		return r, nil
	}))

	report := NewAggregator(reg).RunCycle(context.Background())
	if report.Checks[0].ServiceName != "DynamoDB" {
		t.Errorf("ServiceName = %q, want DynamoDB", report.Checks[0].ServiceName)
	}
}

func TestRunCycle_EmitsGauge(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("a", okProbe("ok"))
	reg.MustRegister("b", unhealthyProbe("bad"))
	reg.MustRegister("c", okProbe("ok"))

	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	sink := &recordingSink{}
	NewAggregator(reg, WithSink(sink), WithClock(func() time.Time { return fixed })).RunCycle(context.Background())

	if len(sink.datum) != 1 {
		t.Fatalf("Emit calls = %d, want 1", len(sink.datum))
	}
	d := sink.datum[0]
	if d.Namespace != "DevOps/Health" || d.Name != "HealthyServices" || d.Unit != "Count" {
		t.Errorf("datum = %+v", d)
	}
	if d.Value != 2 {
		t.Errorf("Value = %v, want 2", d.Value)
	}
	if !d.Timestamp.Equal(fixed) {
		t.Errorf("Timestamp = %v, want %v", d.Timestamp, fixed)
	}
}

func TestRunCycle_SideEffectFailuresSwallowed(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("a", okProbe("ok"))
	reg.MustRegister("b", unhealthyProbe("bad"))

	var buf bytes.Buffer
	logger := observe.NewLoggerWithWriter("debug", &buf)
	sink := &recordingSink{err: errors.New("throttled")}
	notifier := &recordingNotifier{err: errors.New("topic not found")}

	report := NewAggregator(reg,
		WithSink(sink),
		WithNotifier(notifier),
		WithLogger(logger),
	).RunCycle(context.Background())

	if len(report.Checks) != 2 {
		t.Fatalf("len(Checks) = %d, want 2", len(report.Checks))
	}
	if report.HealthyCount() != 1 {
		t.Errorf("HealthyCount() = %d, want 1", report.HealthyCount())
	}
	if notifier.calls() != 1 {
		t.Errorf("Publish calls = %d, want 1", notifier.calls())
	}

	logs := buf.String()
	if !strings.Contains(logs, "failed to emit health metric") {
		t.Errorf("sink failure not logged: %s", logs)
	}
	if !strings.Contains(logs, "failed to publish health alert") {
		t.Errorf("notify failure not logged: %s", logs)
	}
}

func TestRunCycle_NoNotifier(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("b", unhealthyProbe("bad"))

	var buf bytes.Buffer
	report := NewAggregator(reg, WithLogger(observe.NewLoggerWithWriter("warn", &buf))).RunCycle(context.Background())

	if report.Overall() != OverallDegraded {
		t.Errorf("Overall() = %v, want degraded", report.Overall())
	}
	if !strings.Contains(buf.String(), "no notifier configured") {
		t.Errorf("missing notifier warning: %s", buf.String())
	}
}

func TestRunCycle_Idempotent(t *testing.T) {
	healthy := true
	reg := NewRegistry()
	reg.MustRegister("flip", ProbeFunc(func(context.Context) (CheckResult, error) {
		if healthy {
			return Healthy("up"), nil
		}
		return Unhealthy("down"), nil
	}))

	agg := NewAggregator(reg)
	first := agg.RunCycle(context.Background())
	healthy = false
	second := agg.RunCycle(context.Background())

	if first.Overall() != OverallHealthy {
		t.Errorf("first.Overall() = %v, want healthy", first.Overall())
	}
	if second.Overall() != OverallDegraded {
		t.Errorf("second.Overall() = %v, want degraded", second.Overall())
	}
	if first.Checks[0].Status != StatusHealthy {
		t.Error("first report was mutated by second cycle")
	}
}

func TestAggregator_Check(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("a", failingProbe(errors.New("nope")))

	notifier := &recordingNotifier{}
	agg := NewAggregator(reg, WithNotifier(notifier))

	res, err := agg.Check(context.Background(), "a")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if res.Status != StatusUnhealthy || res.ServiceName != "a" {
		t.Errorf("Check() = %+v", res)
	}
	if notifier.calls() != 0 {
		t.Errorf("Check published %d alerts, want 0", notifier.calls())
	}

	if _, err := agg.Check(context.Background(), "missing"); !errors.Is(err, ErrProbeNotFound) {
		t.Errorf("Check(missing) error = %v, want ErrProbeNotFound", err)
	}
}

func TestAwaitOutcome_ResultBeatsExpiredContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 100; i++ {
		ch := make(chan probeOutcome, 1)
		ch <- probeOutcome{result: Healthy("ok")}

		out, err := awaitOutcome(ctx, ch)
		if err != nil {
			t.Fatalf("awaitOutcome() error = %v, want nil", err)
		}
		if out.result.Message != "ok" {
			t.Fatalf("Message = %q, want %q", out.result.Message, "ok")
		}
	}
}

func TestAwaitOutcome_ExpiredContextWithoutResult(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := awaitOutcome(ctx, make(chan probeOutcome, 1))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("awaitOutcome() error = %v, want %v", err, context.DeadlineExceeded)
	}
}
