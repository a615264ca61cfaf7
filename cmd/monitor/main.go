// Command monitor continuously scans for BroodMinder devices and feeds
// the merged device table to the configured sinks: console, SQLite
// archive, InfluxDB and a WebSocket live stream.
//
// Usage:
//
//	sudo monitor -config /etc/hive-monitor.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/afroash/hive-monitor/internal/broodminder"
	"github.com/afroash/hive-monitor/internal/config"
	"github.com/afroash/hive-monitor/internal/influx"
	"github.com/afroash/hive-monitor/internal/models"
	"github.com/afroash/hive-monitor/internal/registry"
	"github.com/afroash/hive-monitor/internal/render"
	"github.com/afroash/hive-monitor/internal/scanner"
	"github.com/afroash/hive-monitor/internal/session"
	"github.com/afroash/hive-monitor/internal/storage"
	"github.com/afroash/hive-monitor/internal/stream"
)

const version = "v0.3.0"

// monitor bundles the loop's collaborators after setup.
type monitor struct {
	cfg     *config.Config
	logger  zerolog.Logger
	store   registry.Store
	regPath string

	ble     *scanner.BLEScanner
	agg     *session.Aggregator
	influx  *influx.Writer
	archive *storage.Archive
	hub     *stream.Hub
}

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	logger := cfg.NewLogger()
	logger.Info().
		Str("version", version).
		Dur("window", cfg.Scan.Window).
		Dur("pause", cfg.Scan.Pause).
		Msg("starting hive monitor")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	regPath := cfg.Registry.Path
	if regPath == "" {
		var err error
		regPath, err = registry.DefaultPath()
		if err != nil {
			logger.Fatal().Err(err).Msg("cannot resolve registry path")
		}
	}
	store, err := registry.Load(regPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", regPath).
			Msg("device registry unreadable, continuing with an empty one")
	}

	m := &monitor{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		regPath: regPath,
		ble:     scanner.NewBLEScanner(logger),
		agg:     session.NewAggregator(),
	}

	if cfg.Influx.Enabled {
		m.influx, err = influx.NewWriter(cfg.Influx.Config, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to set up InfluxDB writer")
		}
		defer m.influx.Close()
		logger.Info().Str("url", cfg.Influx.URL).Str("bucket", cfg.Influx.Bucket).
			Msg("InfluxDB push enabled")
	}

	if cfg.Archive.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.Archive.Path), 0o755); err != nil {
			logger.Fatal().Err(err).Msg("failed to create archive directory")
		}
		m.archive, err = storage.NewArchive(cfg.Archive.Path, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open snapshot archive")
		}
		defer m.archive.Close()
	}

	if cfg.Stream.Enabled {
		m.hub = stream.NewHub(logger)
		mux := http.NewServeMux()
		mux.Handle("/stream", m.hub)
		srv := &http.Server{Addr: cfg.Stream.ListenAddr, Handler: mux}
		go func() {
			logger.Info().Str("addr", cfg.Stream.ListenAddr).Msg("live stream listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("stream server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	if err := m.run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("monitor loop failed")
	}
	logger.Info().Msg("hive monitor stopped")
}

// run drives scan cycles until the context is cancelled or the
// configured total duration elapses.
func (m *monitor) run(ctx context.Context) error {
	start := time.Now()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if m.cfg.Scan.Duration > 0 && time.Since(start) >= m.cfg.Scan.Duration {
			return nil
		}

		readings, err := m.scanCycle(ctx)
		if err != nil {
			return err
		}
		m.deliver(ctx, readings)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(m.cfg.Scan.Pause):
		}
	}
}

// scanCycle runs one scan window and merges its decodes into the
// session-wide aggregator, so devices missed in one window keep their
// last known reading.
func (m *monitor) scanCycle(ctx context.Context) ([]*models.Reading, error) {
	collector := session.NewCollector(m.agg, m.logger)

	err := m.ble.Scan(ctx, m.cfg.Scan.Window, func(adv models.Advertisement) {
		if r, ok := broodminder.Decode(adv, m.store[adv.Address]); ok {
			collector.Offer(r)
		}
	})
	readings := collector.Close()
	if err != nil && ctx.Err() == nil {
		return nil, err
	}

	return session.AttachIdentity(readings, m.store), nil
}

// deliver fans one cycle's snapshot out to every configured sink.
// Sink failures are logged and the loop carries on; the console and the
// registry have already seen the data.
func (m *monitor) deliver(ctx context.Context, readings []*models.Reading) {
	now := time.Now()

	registry.Reconcile(m.store, readings)
	if err := registry.Persist(m.store, m.regPath); err != nil {
		m.logger.Error().Err(err).Msg("failed to persist device registry")
	}

	if len(readings) == 0 {
		m.logger.Info().Msg("no BroodMinder devices found")
		return
	}

	fmt.Printf("\nLast update: %s, %d device(s)\n", now.Format(time.RFC1123), len(readings))
	fmt.Println(render.Table(readings))

	if m.archive != nil {
		if err := m.archive.InsertSnapshot(readings, now); err != nil {
			m.logger.Error().Err(err).Msg("failed to archive snapshot")
		}
		if _, err := m.archive.PruneOlderThan(m.cfg.Archive.RetentionDays); err != nil {
			m.logger.Error().Err(err).Msg("failed to prune archive")
		}
	}

	if m.hub != nil {
		m.hub.Broadcast(readings, now)
	}

	if m.influx != nil {
		if err := m.influx.WriteBatch(ctx, readings, now); err != nil {
			m.logger.Error().Err(err).Msg("failed to push snapshot to InfluxDB")
		}
	}
}
