package health_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/opswatch/health"
	"github.com/jonwraymond/opswatch/store"
)

type printNotifier struct{}

func (printNotifier) Publish(_ context.Context, subject, message string) error {
	fmt.Println(subject)
	fmt.Print(message)
	return nil
}

func ExampleAggregator_RunCycle() {
	table := store.NewMemoryStore()
	table.SetStatus("SCALING")

	reg := health.NewRegistry()
	reg.MustRegister("API Gateway", health.StaticProbe("API responding normally"))
	reg.MustRegister("DynamoDB", health.StoreProbe(table))
	reg.MustRegister("Lambda Functions", health.StaticProbe("All functions operational"))

	agg := health.NewAggregator(reg, health.WithNotifier(printNotifier{}))
	report := agg.RunCycle(context.Background())

	fmt.Println("Overall:", report.Overall())
	fmt.Println("Healthy:", report.HealthyCount())
	// Output:
	// DevOps Health Check Alert
	// ⚠️ Service Health Alert
	//
	// - DynamoDB: Table status: SCALING
	// Overall: degraded
	// Healthy: 2
}

func ExampleStaticProbe() {
	result, _ := health.StaticProbe("API responding normally").Check(context.Background())

	fmt.Println("Status:", result.Status)
	fmt.Println("Message:", result.Message)
	// Output:
	// Status: healthy
	// Message: API responding normally
}

func ExampleFormatAlert() {
	report := health.Report{Checks: []health.CheckResult{
		{ServiceName: "apiCheck", Status: health.StatusHealthy, Message: "ok"},
		{ServiceName: "dbCheck", Status: health.StatusUnhealthy, Message: "table SCALING"},
	}}

	fmt.Print(health.FormatAlert(report))
	// Output:
	// ⚠️ Service Health Alert
	//
	// - dbCheck: table SCALING
}
