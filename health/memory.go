package health

import (
	"context"
	"fmt"
	"runtime"
)

// MemoryProbeConfig configures MemoryProbe.
type MemoryProbeConfig struct {
	// Threshold is the fraction of MaxAlloc above which the probe is
	// unhealthy. Value should be between 0 and 1. Default: 0.95
	Threshold float64

	// MaxAlloc is the heap ceiling in bytes.
	// Default: 0 (use the runtime's Sys figure)
	MaxAlloc uint64

	// ReadStats replaces runtime.ReadMemStats; tests use it to pin values.
	ReadStats func(*runtime.MemStats)
}

// MemoryProbe reports the process heap usage of the monitor itself.
func MemoryProbe(cfg MemoryProbeConfig) Probe {
	if cfg.Threshold <= 0 || cfg.Threshold >= 1 {
		cfg.Threshold = 0.95
	}
	if cfg.ReadStats == nil {
		cfg.ReadStats = runtime.ReadMemStats
	}

	return ProbeFunc(func(ctx context.Context) (CheckResult, error) {
		if err := ctx.Err(); err != nil {
			return CheckResult{}, err
		}

		var stats runtime.MemStats
		cfg.ReadStats(&stats)

		maxAlloc := cfg.MaxAlloc
		if maxAlloc == 0 {
			maxAlloc = stats.Sys
		}
		if maxAlloc == 0 {
			return Healthy("memory stats unavailable"), nil
		}

		ratio := float64(stats.Alloc) / float64(maxAlloc)
		if ratio >= cfg.Threshold {
			return Unhealthy(fmt.Sprintf("memory usage critical: %.1f%%", ratio*100)), nil
		}
		return Healthy(fmt.Sprintf("memory usage normal: %.1f%%", ratio*100)), nil
	})
}
