package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "monitor.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LOG_LEVEL", "HIVE_REGISTRY_PATH",
		"INFLUXDB_URL", "INFLUXDB_TOKEN", "INFLUXDB_ORG", "INFLUXDB_BUCKET",
	} {
		t.Setenv(key, "")
	}
}

func TestDefault(t *testing.T) {
	clearEnv(t)
	cfg := Default()

	if cfg.Scan.Window != 10*time.Second {
		t.Errorf("Scan.Window = %v, want 10s", cfg.Scan.Window)
	}
	if cfg.Scan.Pause != 5*time.Second {
		t.Errorf("Scan.Pause = %v, want 5s", cfg.Scan.Pause)
	}
	if cfg.Archive.RetentionDays != 30 {
		t.Errorf("Archive.RetentionDays = %d, want 30", cfg.Archive.RetentionDays)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Influx.Enabled || cfg.Archive.Enabled || cfg.Stream.Enabled {
		t.Error("sinks should be disabled by default")
	}
	if cfg.Influx.Bucket != "broodminder" {
		t.Errorf("Influx.Bucket = %q, want broodminder", cfg.Influx.Bucket)
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
scan:
  window: 30s
  pause: 1m
influx:
  enabled: true
  url: http://influx.local:8086
  token: secret
  org: apiary
  bucket: hives
archive:
  enabled: true
  path: /var/lib/hive-monitor/archive.db
  retention_days: 90
stream:
  enabled: true
  listen_addr: ":9090"
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Scan.Window != 30*time.Second || cfg.Scan.Pause != time.Minute {
		t.Errorf("Scan = %+v", cfg.Scan)
	}
	if !cfg.Influx.Enabled || cfg.Influx.URL != "http://influx.local:8086" || cfg.Influx.Token != "secret" {
		t.Errorf("Influx = %+v", cfg.Influx)
	}
	if cfg.Archive.Path != "/var/lib/hive-monitor/archive.db" || cfg.Archive.RetentionDays != 90 {
		t.Errorf("Archive = %+v", cfg.Archive)
	}
	if cfg.Stream.ListenAddr != ":9090" {
		t.Errorf("Stream = %+v", cfg.Stream)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("HIVE_REGISTRY_PATH", "/tmp/devices.json")
	t.Setenv("INFLUXDB_TOKEN", "env-token")

	path := writeConfig(t, `
influx:
  enabled: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Registry.Path != "/tmp/devices.json" {
		t.Errorf("Registry.Path = %q", cfg.Registry.Path)
	}
	if cfg.Influx.Token != "env-token" {
		t.Errorf("Influx.Token = %q, want env-token", cfg.Influx.Token)
	}
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "scan window too short",
			content: "scan:\n  window: 100ms\n",
		},
		{
			name:    "influx enabled without token",
			content: "influx:\n  enabled: true\n",
		},
		{
			name:    "bad log level",
			content: "logging:\n  level: shout\n",
		},
		{
			name:    "negative retention",
			content: "archive:\n  enabled: true\n  retention_days: -1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Load() error = nil, want validation error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() error = nil, want error for missing file")
	}
}
