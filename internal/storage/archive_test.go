package storage

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/afroash/hive-monitor/internal/models"
)

func f64(v float64) *float64  { return &v }
func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }

func testArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := NewArchive(filepath.Join(t.TempDir(), "hive-monitor.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewArchive() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchive_InsertAndQuery(t *testing.T) {
	a := testArchive(t)
	observed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	full := &models.Reading{
		Address:         "AA:BB",
		Name:            strPtr("Hive1"),
		FriendlyName:    strPtr("Orchard"),
		ModelNumber:     47,
		ModelName:       "BroodMinder-TMWC",
		FirmwareVersion: "2.1",
		RSSI:            -70,
		Battery:         intPtr(87),
		ElapsedMinutes:  intPtr(120),
		TemperatureC:    f64(23.5),
		Humidity:        f64(55),
		WeightLeftLbs:   f64(60),
		WeightRightLbs:  f64(60.5),
		TotalWeightLbs:  f64(120.5),
	}
	bare := &models.Reading{
		Address:         "CC:DD",
		ModelNumber:     41,
		ModelName:       "BroodMinder-T",
		FirmwareVersion: "1.0",
		RSSI:            -90,
	}

	if err := a.InsertSnapshot([]*models.Reading{full, bare}, observed); err != nil {
		t.Fatalf("InsertSnapshot() error = %v", err)
	}

	got, at, err := a.LatestByAddress("AA:BB")
	if err != nil {
		t.Fatalf("LatestByAddress() error = %v", err)
	}
	if !at.Equal(observed) {
		t.Errorf("observed_at = %v, want %v", at, observed)
	}
	if got.Name == nil || *got.Name != "Hive1" {
		t.Errorf("Name = %v", got.Name)
	}
	if got.TemperatureC == nil || *got.TemperatureC != 23.5 {
		t.Errorf("TemperatureC = %v", got.TemperatureC)
	}
	if got.TotalWeightLbs == nil || *got.TotalWeightLbs != 120.5 {
		t.Errorf("TotalWeightLbs = %v", got.TotalWeightLbs)
	}
	if got.Battery == nil || *got.Battery != 87 {
		t.Errorf("Battery = %v", got.Battery)
	}
}

func TestArchive_AbsentRoundTripsAsAbsent(t *testing.T) {
	a := testArchive(t)

	bare := &models.Reading{
		Address:         "CC:DD",
		ModelNumber:     41,
		ModelName:       "BroodMinder-T",
		FirmwareVersion: "1.0",
		RSSI:            -90,
	}
	if err := a.InsertSnapshot([]*models.Reading{bare}, time.Now()); err != nil {
		t.Fatalf("InsertSnapshot() error = %v", err)
	}

	got, _, err := a.LatestByAddress("CC:DD")
	if err != nil {
		t.Fatalf("LatestByAddress() error = %v", err)
	}
	if got.Name != nil || got.Battery != nil || got.TemperatureC != nil ||
		got.Humidity != nil || got.TotalWeightLbs != nil {
		t.Errorf("absent fields came back populated: %+v", got)
	}
}

func TestArchive_LatestWins(t *testing.T) {
	a := testArchive(t)

	first := &models.Reading{Address: "AA:BB", ModelNumber: 41, ModelName: "BroodMinder-T", FirmwareVersion: "1.0", RSSI: -80}
	second := &models.Reading{Address: "AA:BB", ModelNumber: 41, ModelName: "BroodMinder-T", FirmwareVersion: "1.0", RSSI: -42}

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := a.InsertSnapshot([]*models.Reading{first}, base); err != nil {
		t.Fatal(err)
	}
	if err := a.InsertSnapshot([]*models.Reading{second}, base.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	got, _, err := a.LatestByAddress("AA:BB")
	if err != nil {
		t.Fatalf("LatestByAddress() error = %v", err)
	}
	if got.RSSI != -42 {
		t.Errorf("RSSI = %d, want -42 (newest snapshot)", got.RSSI)
	}
}

func TestArchive_UnknownAddress(t *testing.T) {
	a := testArchive(t)

	_, _, err := a.LatestByAddress("no:such:device")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("LatestByAddress() error = %v, want sql.ErrNoRows", err)
	}
}

func TestArchive_PruneOlderThan(t *testing.T) {
	a := testArchive(t)

	old := &models.Reading{Address: "AA:BB", ModelNumber: 41, ModelName: "BroodMinder-T", FirmwareVersion: "1.0", RSSI: -80}
	fresh := &models.Reading{Address: "CC:DD", ModelNumber: 41, ModelName: "BroodMinder-T", FirmwareVersion: "1.0", RSSI: -70}

	if err := a.InsertSnapshot([]*models.Reading{old}, time.Now().AddDate(0, 0, -40)); err != nil {
		t.Fatal(err)
	}
	if err := a.InsertSnapshot([]*models.Reading{fresh}, time.Now()); err != nil {
		t.Fatal(err)
	}

	deleted, err := a.PruneOlderThan(30)
	if err != nil {
		t.Fatalf("PruneOlderThan() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	n, err := a.CountSnapshots()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("CountSnapshots() = %d, want 1", n)
	}
}
