// Package scanner wraps the BLE stack. It is the only package that
// touches radio hardware; everything downstream works on plain
// models.Advertisement values.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"tinygo.org/x/bluetooth"

	"github.com/afroash/hive-monitor/internal/models"
)

// Scanner defines the interface for collecting BLE advertisements.
type Scanner interface {
	// Scan runs one scanning window, invoking fn once per received
	// advertisement. It returns when the window elapses or ctx is
	// cancelled. fn may be called from the BLE stack's goroutine.
	Scan(ctx context.Context, window time.Duration, fn func(models.Advertisement)) error
}

// BLEScanner implements Scanner on the host Bluetooth adapter.
type BLEScanner struct {
	adapter *bluetooth.Adapter
	logger  zerolog.Logger
	enabled bool
}

// NewBLEScanner returns a scanner on the default adapter. The adapter is
// enabled lazily on the first Scan call.
func NewBLEScanner(logger zerolog.Logger) *BLEScanner {
	return &BLEScanner{
		adapter: bluetooth.DefaultAdapter,
		logger:  logger,
	}
}

// Scan runs one scanning window on the adapter.
func (s *BLEScanner) Scan(ctx context.Context, window time.Duration, fn func(models.Advertisement)) error {
	if !s.enabled {
		if err := s.adapter.Enable(); err != nil {
			return fmt.Errorf("enable BLE adapter (on Linux, scanning needs root): %w", err)
		}
		s.enabled = true
	}

	ctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	// adapter.Scan blocks until StopScan; stop it when the window ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			if err := s.adapter.StopScan(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to stop BLE scan")
			}
		case <-done:
		}
	}()

	s.logger.Debug().Dur("window", window).Msg("BLE scan window started")

	err := s.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		fn(convert(result.Address.String(), result.LocalName(), result.RSSI, result.ManufacturerData()))
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("BLE scan: %w", err)
	}
	return nil
}

// convert flattens a scan result into the transport-neutral form the
// decoder consumes.
func convert(address, localName string, rssi int16, elements []bluetooth.ManufacturerDataElement) models.Advertisement {
	adv := models.Advertisement{
		Address:   address,
		LocalName: localName,
		RSSI:      rssi,
	}
	if len(elements) > 0 {
		adv.ManufacturerData = make(map[uint16][]byte, len(elements))
		for _, e := range elements {
			adv.ManufacturerData[e.CompanyID] = e.Data
		}
	}
	return adv
}
