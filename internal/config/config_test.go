package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_UnmarshalYAML(t *testing.T) {
	var out struct {
		D Duration `yaml:"d"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("d: 1500ms"), &out))
	assert.Equal(t, 1500*time.Millisecond, out.D.Std())

	require.NoError(t, yaml.Unmarshal([]byte("d: 1000000000"), &out))
	assert.Equal(t, time.Second, out.D.Std())

	require.Error(t, yaml.Unmarshal([]byte("d: fast"), &out))
}

func validConfig() *Config {
	return &Config{
		Session: SessionConfig{Name: "checkout-smoke", Environment: "staging", Version: "1.4.0"},
		Load: LoadConfig{
			Concurrency: 8,
			TargetRPS:   200,
			Duration:    Duration(time.Minute),
			Warmup:      Duration(5 * time.Second),
			Timeout:     Duration(10 * time.Second),
		},
		Services: map[string]ServiceConfig{
			"api": {
				BaseURL: "http://localhost:8080",
				Endpoints: []EndpointConfig{
					{Method: "GET", Path: "/healthz", ExpectedStatus: 200, Weight: 1},
				},
			},
		},
		Targets: Targets{
			ResponseTime: ResponseTimeTargets{P95Ms: 200, P99Ms: 500},
			Throughput:   ThroughputTargets{MinRPS: 100},
			Resources:    ResourceTargets{MaxCPUPercent: 80, MaxMemoryMB: 1024},
		},
		Reports: ReportConfig{Formats: []string{FormatJSON}, OutputDir: "./out"},
	}
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestConfig_ValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing session name", func(c *Config) { c.Session.Name = "" }, "session name"},
		{"zero concurrency", func(c *Config) { c.Load.Concurrency = 0 }, "concurrency"},
		{"warmup too long", func(c *Config) { c.Load.Warmup = c.Load.Duration }, "warmup"},
		{"no formats", func(c *Config) { c.Reports.Formats = nil }, "format"},
		{"empty formats", func(c *Config) { c.Reports.Formats = []string{} }, "format"},
		{"bad format", func(c *Config) { c.Reports.Formats = []string{"xml"} }, "xml"},
		{"missing base url", func(c *Config) {
			svc := c.Services["api"]
			svc.BaseURL = ""
			c.Services["api"] = svc
		}, "base_url"},
		{"no endpoints", func(c *Config) {
			svc := c.Services["api"]
			svc.Endpoints = nil
			c.Services["api"] = svc
		}, "endpoint"},
		{"cpu above 100", func(c *Config) { c.Targets.Resources.MaxCPUPercent = 120 }, "max_cpu_percent"},
		{"min above max rps", func(c *Config) {
			c.Targets.Throughput.MinRPS = 500
			c.Targets.Throughput.MaxRPS = 100
		}, "min_rps"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{
		Session: SessionConfig{Name: "s"},
		Services: map[string]ServiceConfig{
			"api": {
				BaseURL:   "http://localhost:8080",
				Endpoints: []EndpointConfig{{Path: "/x"}},
			},
		},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, 10, cfg.Load.Concurrency)
	assert.Equal(t, 100, cfg.Load.TargetRPS)
	assert.Equal(t, time.Minute, cfg.Load.Duration.Std())
	assert.Equal(t, 30*time.Second, cfg.Load.Timeout.Std())
	assert.Equal(t, "./reports", cfg.Reports.OutputDir)
	assert.Equal(t, []string{FormatJSON, FormatTable}, cfg.Reports.Formats)

	ep := cfg.Services["api"].Endpoints[0]
	assert.Equal(t, "GET", ep.Method)
	assert.Equal(t, 200, ep.ExpectedStatus)
	assert.Equal(t, 1, ep.Weight)
}

func TestLoad_FromFile(t *testing.T) {
	yaml := `
session:
  name: checkout-smoke
  environment: staging
  version: 1.4.0
load:
  concurrency: 16
  target_rps: 400
  duration: 2m
  warmup: 10s
services:
  api:
    base_url: http://localhost:8080
    endpoints:
      - method: POST
        path: /v1/orders
        expected_status: 201
        body: '{"sku":"a-1"}'
        headers:
          Content-Type: application/json
targets:
  response_time:
    p95_ms: 250
  throughput:
    min_rps: 300
  resources:
    max_cpu_percent: 75
reports:
  formats: [json, html]
  output_dir: ./perf-reports
  baseline_path: ./baselines/v1.json
`
	path := filepath.Join(t.TempDir(), "perfbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "checkout-smoke", cfg.Session.Name)
	assert.Equal(t, 16, cfg.Load.Concurrency)
	assert.Equal(t, 400, cfg.Load.TargetRPS)
	assert.Equal(t, 2*time.Minute, cfg.Load.Duration.Std())
	assert.Equal(t, 10*time.Second, cfg.Load.Warmup.Std())

	ep := cfg.Services["api"].Endpoints[0]
	assert.Equal(t, "POST", ep.Method)
	assert.Equal(t, 201, ep.ExpectedStatus)
	assert.Equal(t, "application/json", ep.Headers["Content-Type"])

	assert.Equal(t, 250.0, cfg.Targets.ResponseTime.P95Ms)
	assert.Equal(t, []string{FormatJSON, FormatHTML}, cfg.Reports.Formats)
	assert.Equal(t, "./baselines/v1.json", cfg.Reports.BaselinePath)
}

func TestLoad_ExplicitEmptyFormatsRejected(t *testing.T) {
	yaml := `
session:
  name: checkout-smoke
services:
  api:
    base_url: http://localhost:8080
    endpoints:
      - path: /healthz
reports:
  formats: []
`
	path := filepath.Join(t.TempDir(), "perfbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	// An absent formats list gets the default, but an explicitly empty
	// one is a configuration mistake and must not be papered over.
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report format")
}

func TestConfig_ApplyDefaultsKeepsEmptyFormats(t *testing.T) {
	cfg := validConfig()
	cfg.Reports.Formats = []string{}
	cfg.ApplyDefaults()
	assert.NotNil(t, cfg.Reports.Formats)
	assert.Empty(t, cfg.Reports.Formats)
	require.Error(t, cfg.Validate())
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perfbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session: {}\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session name")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
