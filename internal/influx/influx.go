// Package influx delivers session snapshots to an InfluxDB v2 bucket,
// one point per device per cycle.
package influx

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"github.com/afroash/hive-monitor/internal/models"
)

// Config holds the InfluxDB connection settings.
type Config struct {
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
}

// ApplyDefaults fills unset fields from the INFLUXDB_* environment
// variables and the stock defaults.
func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = envOr("INFLUXDB_URL", "http://localhost:8086")
	}
	if c.Token == "" {
		c.Token = os.Getenv("INFLUXDB_TOKEN")
	}
	if c.Org == "" {
		c.Org = envOr("INFLUXDB_ORG", "my-org")
	}
	if c.Bucket == "" {
		c.Bucket = envOr("INFLUXDB_BUCKET", "broodminder")
	}
	if c.Measurement == "" {
		c.Measurement = "broodminder"
	}
}

// Validate checks that a writer can actually be built from the config.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("influx token is required (set INFLUXDB_TOKEN or influx.token)")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Writer pushes readings to InfluxDB using the blocking write API.
type Writer struct {
	client      influxdb2.Client
	writeAPI    api.WriteAPIBlocking
	measurement string
	logger      zerolog.Logger
}

// NewWriter connects a writer to the configured instance.
func NewWriter(cfg Config, logger zerolog.Logger) (*Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Writer{
		client:      client,
		writeAPI:    client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		measurement: cfg.Measurement,
		logger:      logger,
	}, nil
}

// WriteBatch writes one point per reading, all sharing the same
// timestamp. Readings whose optional quantities are absent simply carry
// fewer fields; absence never becomes a zero field value.
func (w *Writer) WriteBatch(ctx context.Context, readings []*models.Reading, ts time.Time) error {
	if len(readings) == 0 {
		return nil
	}

	points := make([]*write.Point, 0, len(readings))
	for _, r := range readings {
		points = append(points, Point(w.measurement, r, ts))
	}

	if err := w.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("write %d points: %w", len(points), err)
	}

	w.logger.Debug().Int("points", len(points)).Msg("pushed snapshot to InfluxDB")
	return nil
}

// Close releases the underlying HTTP client.
func (w *Writer) Close() {
	w.client.Close()
}

// Point maps one reading to a time-series point. Device identity goes to
// tags; only present quantities become fields, and per-side weights are
// only reported alongside a strictly positive total.
func Point(measurement string, r *models.Reading, ts time.Time) *write.Point {
	name := r.Address
	if r.Name != nil && *r.Name != "" {
		name = *r.Name
	}
	friendly := ""
	if r.FriendlyName != nil {
		friendly = *r.FriendlyName
	}

	tags := map[string]string{
		"device_address": r.Address,
		"device_name":    name,
		"model_name":     r.ModelName,
		"model_number":   strconv.Itoa(int(r.ModelNumber)),
		"friendly_name":  friendly,
	}

	fields := map[string]any{
		"rssi": int(r.RSSI),
	}
	if r.TemperatureC != nil {
		fields["temperature_c"] = *r.TemperatureC
		fields["temperature_f"] = *r.TemperatureF
	}
	if r.Humidity != nil {
		fields["humidity"] = *r.Humidity
	}
	if r.TotalWeightLbs != nil && *r.TotalWeightLbs > 0 {
		fields["total_weight_lbs"] = *r.TotalWeightLbs
		if r.WeightLeftLbs != nil {
			fields["weight_left_lbs"] = *r.WeightLeftLbs
		}
		if r.WeightRightLbs != nil {
			fields["weight_right_lbs"] = *r.WeightRightLbs
		}
	}
	if r.Battery != nil {
		fields["battery"] = *r.Battery
	}

	return write.NewPoint(measurement, tags, fields, ts)
}
