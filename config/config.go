package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/opswatch/observe"
	"github.com/jonwraymond/opswatch/store"
)

// Config is the runtime configuration of opswatch.
type Config struct {
	PrimaryRegion string `yaml:"primary_region"`
	DRRegion      string `yaml:"dr_region"`

	// StoreName is the table (or key prefix) holding metric records.
	StoreName string `yaml:"store_name"`

	// NotifyTopic selects the alert channel; empty disables alerts.
	NotifyTopic string `yaml:"notify_topic"`

	// APIEndpoint, when set, is probed over HTTP instead of reported healthy.
	APIEndpoint string `yaml:"api_endpoint"`

	Store       StoreConfig       `yaml:"store"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Health      HealthConfig      `yaml:"health"`
	Replication ReplicationConfig `yaml:"replication"`
	Notify      NotifyConfig      `yaml:"notify"`
	Observe     observe.Config    `yaml:"observe"`

	// MetricsAddr is the listen address for /metrics when the metrics
	// exporter is prometheus.
	MetricsAddr string `yaml:"metrics_addr"`
}

// StoreConfig selects the store backend for both regions.
type StoreConfig struct {
	Driver     string `yaml:"driver"` // memory|redis|sqlite
	PrimaryDSN string `yaml:"primary_dsn"`
	DRDSN      string `yaml:"dr_dsn"`
	PageSize   int    `yaml:"page_size"`
}

// ScheduleConfig holds cron specs for the serve command.
type ScheduleConfig struct {
	Health      string `yaml:"health"`
	Replication string `yaml:"replication"`
}

// HealthConfig tunes the aggregator.
type HealthConfig struct {
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

// ReplicationConfig tunes the replicator.
type ReplicationConfig struct {
	// WriteRate caps destination writes per second; 0 means unlimited.
	WriteRate  float64 `yaml:"write_rate"`
	WriteBurst int     `yaml:"write_burst"`
}

// NotifyConfig tunes alert delivery.
type NotifyConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`

	// Rate caps webhook deliveries per second; 0 means unlimited.
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		PrimaryRegion: "us-east-1",
		DRRegion:      "us-west-2",
		StoreName:     "DevOpsMetrics",
		Store: StoreConfig{
			Driver:   store.DriverMemory,
			PageSize: store.DefaultPageSize,
		},
		Schedule: ScheduleConfig{
			Health:      "@every 5m",
			Replication: "@every 1h",
		},
		Health: HealthConfig{
			ProbeTimeout: 10 * time.Second,
		},
		Replication: ReplicationConfig{
			WriteBurst: 1,
		},
		Notify: NotifyConfig{
			Timeout:     5 * time.Second,
			MaxAttempts: 3,
			Burst:       1,
		},
		Observe: observe.Config{
			ServiceName: "opswatch",
			Logging: observe.LoggingConfig{
				Enabled: true,
				Level:   "info",
			},
		},
		MetricsAddr: ":9090",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment, then resolves secret references and
// validates the result.
func Load(path string) (Config, error) {
	var r io.Reader
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		r = bytes.NewReader(data)
	}
	return load(r, os.LookupEnv)
}

// LoadFromReader is Load with the YAML document supplied directly.
func LoadFromReader(r io.Reader) (Config, error) {
	return load(r, os.LookupEnv)
}

func load(r io.Reader, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if r != nil {
		data, err := io.ReadAll(r)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		expanded, err := expandEnv(string(data), lookup)
		if err != nil {
			return Config{}, err
		}

		dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv(lookup)

	if err := cfg.resolveSecrets(lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.PrimaryRegion, "PRIMARY_REGION")
	set(&c.DRRegion, "DR_REGION")
	set(&c.StoreName, "TABLE_NAME")
	set(&c.NotifyTopic, "NOTIFY_TOPIC", "SNS_TOPIC_ARN")
	set(&c.APIEndpoint, "API_ENDPOINT")
}

func (c *Config) resolveSecrets(lookup func(string) (string, bool)) error {
	for _, f := range []struct {
		name string
		v    *string
	}{
		{"store.primary_dsn", &c.Store.PrimaryDSN},
		{"store.dr_dsn", &c.Store.DRDSN},
		{"notify_topic", &c.NotifyTopic},
	} {
		resolved, err := resolveSecret(*f.v, lookup)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.v = resolved
	}
	return nil
}

// Validate reports the first problem with c.
func (c Config) Validate() error {
	switch {
	case c.PrimaryRegion == "":
		return fmt.Errorf("%w: primary_region is required", ErrInvalidConfig)
	case c.DRRegion == "":
		return fmt.Errorf("%w: dr_region is required", ErrInvalidConfig)
	case c.PrimaryRegion == c.DRRegion:
		return fmt.Errorf("%w: primary_region and dr_region must differ", ErrInvalidConfig)
	case c.StoreName == "":
		return fmt.Errorf("%w: store_name is required", ErrInvalidConfig)
	}

	if !slices.Contains(store.Drivers, c.Store.Driver) {
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.Store.Driver)
	}
	if c.Store.Driver != store.DriverMemory {
		if c.Store.PrimaryDSN == "" || c.Store.DRDSN == "" {
			return fmt.Errorf("%w: store driver %q needs primary_dsn and dr_dsn", ErrInvalidConfig, c.Store.Driver)
		}
		if c.Store.PrimaryDSN == c.Store.DRDSN {
			return fmt.Errorf("%w: primary_dsn and dr_dsn must differ", ErrInvalidConfig)
		}
	}
	if c.Store.PageSize < 0 {
		return fmt.Errorf("%w: store.page_size must not be negative", ErrInvalidConfig)
	}

	for _, s := range []struct{ name, expr string }{
		{"schedule.health", c.Schedule.Health},
		{"schedule.replication", c.Schedule.Replication},
	} {
		if _, err := cron.ParseStandard(s.expr); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, s.name, err)
		}
	}

	if c.Replication.WriteRate < 0 {
		return fmt.Errorf("%w: replication.write_rate must not be negative", ErrInvalidConfig)
	}
	if c.Notify.Rate < 0 {
		return fmt.Errorf("%w: notify.rate must not be negative", ErrInvalidConfig)
	}

	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("%w: observe: %w", ErrInvalidConfig, err)
	}
	return nil
}
