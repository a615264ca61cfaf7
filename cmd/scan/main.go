// Command scan runs one BLE scanning session for BroodMinder devices and
// prints what it found.
//
// Usage:
//
//	sudo scan -duration 10s -format table
//	sudo scan -format json -output hives.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/afroash/hive-monitor/internal/broodminder"
	"github.com/afroash/hive-monitor/internal/models"
	"github.com/afroash/hive-monitor/internal/registry"
	"github.com/afroash/hive-monitor/internal/render"
	"github.com/afroash/hive-monitor/internal/scanner"
	"github.com/afroash/hive-monitor/internal/session"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "how long to scan for devices")
	format := flag.String("format", "table", "output format: text, table, json or csv")
	raw := flag.Bool("raw", false, "show raw payload bytes")
	output := flag.String("output", "", "write results to a file instead of stdout")
	registryPath := flag.String("registry", "", "device registry file (default: per-user config dir)")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	logger := newLogger(*verbose)

	outputFormat, err := render.ParseFormat(*format)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid format flag")
	}

	regPath := *registryPath
	if regPath == "" {
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

	collector := session.NewCollector(session.NewAggregator(), logger)
	ble := scanner.NewBLEScanner(logger)

	logger.Info().Dur("duration", *duration).Msg("scanning for BroodMinder devices")
	scanErr := ble.Scan(context.Background(), *duration, func(adv models.Advertisement) {
		if r, ok := broodminder.Decode(adv, store[adv.Address]); ok {
			collector.Offer(r)
		}
	})
	readings := collector.Close()
	if scanErr != nil {
		logger.Fatal().Err(scanErr).Msg("scan failed")
	}

	session.AttachIdentity(readings, store)

	if len(readings) == 0 {
		fmt.Println("No BroodMinder devices found.")
	} else if err := writeResults(outputFormat, readings, *output, *raw); err != nil {
		logger.Fatal().Err(err).Msg("failed to write results")
	}

	// Persisting after rendering: a registry failure should never cost
	// the session's output.
	registry.Reconcile(store, readings)
	if err := registry.Persist(store, regPath); err != nil {
		logger.Error().Err(err).Str("path", regPath).Msg("failed to persist device registry")
		os.Exit(1)
	}
}

func writeResults(format render.Format, readings []*models.Reading, outputPath string, raw bool) error {
	var out io.Writer = os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := render.Snapshot(out, format, readings, time.Now()); err != nil {
		return err
	}

	if raw && (format == render.FormatText || format == render.FormatTable) {
		fmt.Fprintln(out, "\nRaw payloads:")
		for _, r := range readings {
			fmt.Fprintf(out, "%s: %x\n", r.DisplayName(), r.RawPayload)
		}
	}

	if outputPath != "" {
		fmt.Printf("Results saved to %s\n", outputPath)
	}
	return nil
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
