// Package config defines the benchmark session configuration document.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes YAML scalars in either "30s" form or integer
// nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("config: invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("config: invalid duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// Supported report output formats.
const (
	FormatJSON       = "json"
	FormatTable      = "table"
	FormatHTML       = "html"
	FormatCSV        = "csv"
	FormatPrometheus = "prometheus"
)

// Config is the top-level benchmark configuration.
type Config struct {
	Session    SessionConfig            `yaml:"session"`
	Load       LoadConfig               `yaml:"load"`
	Services   map[string]ServiceConfig `yaml:"services"`
	Targets    Targets                  `yaml:"targets"`
	Reports    ReportConfig             `yaml:"reports"`
	Continuous bool                     `yaml:"continuous"`
}

// SessionConfig identifies a benchmark session.
type SessionConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

// LoadConfig controls the load generator.
type LoadConfig struct {
	Concurrency int      `yaml:"concurrency" default:"10"`
	TargetRPS   int      `yaml:"target_rps" default:"100"`
	Duration    Duration `yaml:"duration" default:"1m"`
	Warmup      Duration `yaml:"warmup" default:"10s"`
	Timeout     Duration `yaml:"timeout" default:"30s"`
	KeepAlive   bool     `yaml:"keep_alive" default:"true"`
}

// ServiceConfig describes one service under test.
type ServiceConfig struct {
	BaseURL   string           `yaml:"base_url"`
	Endpoints []EndpointConfig `yaml:"endpoints"`
	Tags      []string         `yaml:"tags"`
}

// EndpointConfig describes one endpoint of a service.
type EndpointConfig struct {
	Method         string            `yaml:"method"`
	Path           string            `yaml:"path"`
	Headers        map[string]string `yaml:"headers"`
	Body           string            `yaml:"body"`
	ExpectedStatus int               `yaml:"expected_status" default:"200"`
	Weight         int               `yaml:"weight" default:"1"`
	Tags           []string          `yaml:"tags"`
}

// Targets groups the quality targets a result is evaluated against.
type Targets struct {
	ResponseTime ResponseTimeTargets `yaml:"response_time"`
	Throughput   ThroughputTargets   `yaml:"throughput"`
	Resources    ResourceTargets     `yaml:"resources"`
}

// ResponseTimeTargets defines latency ceilings in milliseconds.
type ResponseTimeTargets struct {
	P50Ms  float64 `yaml:"p50_ms"`
	P95Ms  float64 `yaml:"p95_ms"`
	P99Ms  float64 `yaml:"p99_ms"`
	P999Ms float64 `yaml:"p999_ms"`
	MaxMs  float64 `yaml:"max_ms"`
}

// ThroughputTargets defines the acceptable RPS envelope.
type ThroughputTargets struct {
	MinRPS           float64 `yaml:"min_rps"`
	TargetRPS        float64 `yaml:"target_rps"`
	MaxRPS           float64 `yaml:"max_rps"`
	ScalabilityRatio float64 `yaml:"scalability_ratio"`
	ConsistencyRatio float64 `yaml:"consistency_ratio"`
}

// ResourceTargets defines resource consumption ceilings.
type ResourceTargets struct {
	MaxCPUPercent  float64 `yaml:"max_cpu_percent"`
	MaxMemoryMB    float64 `yaml:"max_memory_mb"`
	MaxDiskIOMBps  float64 `yaml:"max_disk_io_mbps"`
	MaxNetIOMBps   float64 `yaml:"max_net_io_mbps"`
	MaxOpenHandles int     `yaml:"max_open_handles"`
	MaxGoroutines  int     `yaml:"max_goroutines"`
}

// ReportConfig controls report rendering and persistence.
type ReportConfig struct {
	Formats      []string `yaml:"formats"`
	OutputDir    string   `yaml:"output_dir" default:"./reports"`
	BaselinePath string   `yaml:"baseline_path"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills in default values.
func (c *Config) ApplyDefaults() {
	if c.Load.Concurrency == 0 {
		c.Load.Concurrency = 10
	}
	if c.Load.TargetRPS == 0 {
		c.Load.TargetRPS = 100
	}
	if c.Load.Duration == 0 {
		c.Load.Duration = Duration(time.Minute)
	}
	if c.Load.Timeout == 0 {
		c.Load.Timeout = Duration(30 * time.Second)
	}
	if c.Reports.OutputDir == "" {
		c.Reports.OutputDir = "./reports"
	}
	// Only an absent formats list is defaulted. An explicit "formats: []"
	// decodes as an empty non-nil slice and is left for Validate to reject.
	if c.Reports.Formats == nil {
		c.Reports.Formats = []string{FormatJSON, FormatTable}
	}
	for name, svc := range c.Services {
		for i := range svc.Endpoints {
			if svc.Endpoints[i].Method == "" {
				svc.Endpoints[i].Method = "GET"
			}
			if svc.Endpoints[i].ExpectedStatus == 0 {
				svc.Endpoints[i].ExpectedStatus = 200
			}
			if svc.Endpoints[i].Weight == 0 {
				svc.Endpoints[i].Weight = 1
			}
		}
		c.Services[name] = svc
	}
}

// Validate checks configuration.
func (c *Config) Validate() error {
	if c.Session.Name == "" {
		return errors.New("config: session name is required")
	}
	if c.Load.Concurrency < 1 {
		return fmt.Errorf("config: concurrency must be >= 1, got %d", c.Load.Concurrency)
	}
	if c.Load.TargetRPS < 1 {
		return fmt.Errorf("config: target_rps must be >= 1, got %d", c.Load.TargetRPS)
	}
	if c.Load.Duration <= 0 {
		return errors.New("config: duration must be positive")
	}
	if c.Load.Warmup < 0 {
		return errors.New("config: warmup must not be negative")
	}
	if c.Load.Warmup >= c.Load.Duration {
		return errors.New("config: warmup must be shorter than duration")
	}
	if len(c.Reports.Formats) == 0 {
		return errors.New("config: at least one report format is required")
	}
	for _, f := range c.Reports.Formats {
		if !validFormat(f) {
			return fmt.Errorf("config: unsupported report format %q", f)
		}
	}
	if err := c.Targets.Validate(); err != nil {
		return err
	}
	for name, svc := range c.Services {
		if svc.BaseURL == "" {
			return fmt.Errorf("config: service %q: base_url is required", name)
		}
		if len(svc.Endpoints) == 0 {
			return fmt.Errorf("config: service %q: at least one endpoint is required", name)
		}
		for _, ep := range svc.Endpoints {
			if ep.Path == "" {
				return fmt.Errorf("config: service %q: endpoint path is required", name)
			}
			if ep.Weight < 1 {
				return fmt.Errorf("config: service %q: endpoint %s weight must be >= 1", name, ep.Path)
			}
		}
	}
	return nil
}

// Validate checks target ranges.
func (t *Targets) Validate() error {
	if t.ResponseTime.P95Ms < 0 || t.ResponseTime.P99Ms < 0 || t.ResponseTime.MaxMs < 0 {
		return errors.New("config: response time targets must not be negative")
	}
	if t.Throughput.MinRPS < 0 {
		return errors.New("config: min_rps must not be negative")
	}
	if t.Throughput.MaxRPS > 0 && t.Throughput.MinRPS > t.Throughput.MaxRPS {
		return errors.New("config: min_rps must not exceed max_rps")
	}
	if t.Resources.MaxCPUPercent < 0 || t.Resources.MaxCPUPercent > 100 {
		return fmt.Errorf("config: max_cpu_percent must be within [0,100], got %.1f", t.Resources.MaxCPUPercent)
	}
	if t.Resources.MaxMemoryMB < 0 {
		return errors.New("config: max_memory_mb must not be negative")
	}
	return nil
}

func validFormat(f string) bool {
	switch f {
	case FormatJSON, FormatTable, FormatHTML, FormatCSV, FormatPrometheus:
		return true
	}
	return false
}
