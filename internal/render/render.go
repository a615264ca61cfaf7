// Package render formats session snapshots for the console and for
// file output. Rendering is presentation only; it never changes the
// absent-vs-zero semantics of a reading, absent fields show as "-" or an
// empty CSV cell.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/afroash/hive-monitor/internal/models"
)

// Format selects the output renderer.
type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText:
		return FormatText, nil
	case FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, table, json or csv)", s)
}

// Snapshot renders readings in the given format.
func Snapshot(w io.Writer, format Format, readings []*models.Reading, now time.Time) error {
	switch format {
	case FormatTable:
		_, err := fmt.Fprintln(w, Table(readings))
		return err
	case FormatJSON:
		return JSON(w, readings, now)
	case FormatCSV:
		return CSV(w, readings, now)
	default:
		for _, r := range readings {
			if _, err := fmt.Fprintf(w, "%s\n\n", Text(r)); err != nil {
				return err
			}
		}
		return nil
	}
}

// Text renders one reading as a multi-line block, one field per line,
// skipping absent quantities.
func Text(r *models.Reading) string {
	lines := []string{
		fmt.Sprintf("Device: %s (%s)", r.ModelName, r.Address),
		fmt.Sprintf("Name: %s (%s)", orDash(r.FriendlyName), orDash(r.Name)),
		fmt.Sprintf("RSSI: %d dBm", r.RSSI),
		fmt.Sprintf("Firmware: v%s", r.FirmwareVersion),
	}

	if r.Battery != nil {
		lines = append(lines, fmt.Sprintf("Battery: %d%%", *r.Battery))
	}
	if r.ElapsedMinutes != nil {
		lines = append(lines, fmt.Sprintf("Elapsed Time: %d minutes", *r.ElapsedMinutes))
	}
	if r.TemperatureC != nil {
		lines = append(lines, fmt.Sprintf("Temperature: %.1f°C / %.1f°F", *r.TemperatureC, *r.TemperatureF))
	}
	if r.Humidity != nil {
		lines = append(lines, fmt.Sprintf("Humidity: %.0f%%", *r.Humidity))
	}
	if r.TotalWeightLbs != nil {
		lines = append(lines, fmt.Sprintf("Total Weight: %.2f lbs", *r.TotalWeightLbs))
		if r.WeightLeftLbs != nil && r.WeightRightLbs != nil {
			lines = append(lines,
				fmt.Sprintf("  Left: %.2f lbs", *r.WeightLeftLbs),
				fmt.Sprintf("  Right: %.2f lbs", *r.WeightRightLbs))
		}
	}

	return strings.Join(lines, "\n")
}

// Table renders a bordered device table.
func Table(readings []*models.Reading) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("ADDRESS", "NAME", "MODEL", "RSSI", "FW", "BATTERY", "TEMP", "HUMIDITY", "WEIGHT (LBS)")

	for _, r := range readings {
		t.Row(
			r.Address,
			r.DisplayName(),
			r.ModelName,
			fmt.Sprintf("%d", r.RSSI),
			"v"+r.FirmwareVersion,
			intCell(r.Battery, "%d%%"),
			tempCell(r),
			floatCell(r.Humidity, "%.0f%%"),
			floatCell(r.TotalWeightLbs, "%.2f"),
		)
	}

	return t.Render()
}

// JSON writes the snapshot as an indented JSON array. Absent fields are
// omitted entirely rather than serialized as zero.
func JSON(w io.Writer, readings []*models.Reading, now time.Time) error {
	type record struct {
		*models.Reading
		Timestamp string `json:"timestamp"`
	}

	records := make([]record, 0, len(readings))
	for _, r := range readings {
		records = append(records, record{Reading: r, Timestamp: now.Format(time.RFC3339)})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// csvHeader is the fixed CSV column order.
var csvHeader = []string{
	"address", "name", "rssi", "model_name", "firmware_version",
	"battery", "temperature_c", "temperature_f", "humidity",
	"total_weight_lbs", "weight_left_lbs", "weight_right_lbs", "timestamp",
}

// CSV writes the snapshot as CSV with a header row. Absent quantities
// become empty cells.
func CSV(w io.Writer, readings []*models.Reading, now time.Time) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range readings {
		row := []string{
			r.Address,
			orEmpty(r.Name),
			strconv.Itoa(int(r.RSSI)),
			r.ModelName,
			r.FirmwareVersion,
			intField(r.Battery),
			floatField(r.TemperatureC, 1),
			floatField(r.TemperatureF, 1),
			floatField(r.Humidity, 0),
			floatField(r.TotalWeightLbs, 2),
			floatField(r.WeightLeftLbs, 2),
			floatField(r.WeightRightLbs, 2),
			now.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intCell(v *int, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func floatCell(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func tempCell(r *models.Reading) string {
	if r.TemperatureF == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f°F", *r.TemperatureF)
}

func intField(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatField(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}
