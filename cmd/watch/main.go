// Command watch follows a running monitor's snapshot stream and renders
// each update as a table. Useful from another machine on the same
// network, no Bluetooth adapter needed.
//
// Usage:
//
//	watch -url ws://hivepi.local:8080/stream
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/afroash/hive-monitor/internal/render"
	"github.com/afroash/hive-monitor/internal/stream"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/stream", "monitor stream URL")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := stream.NewClient(stream.ClientConfig{URL: *url}, func(snap stream.Snapshot) {
		fmt.Printf("\nLast update: %s, %d device(s)\n", snap.Timestamp.Format(time.RFC1123), snap.Count)
		if snap.Count == 0 {
			fmt.Println("No BroodMinder devices found.")
			return
		}
		fmt.Println(render.Table(snap.Readings))
	}, logger)

	if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("watch failed")
	}
}
