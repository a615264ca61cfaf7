package broodminder

import (
	"encoding/binary"
	"fmt"

	"github.com/afroash/hive-monitor/internal/models"
)

// Payload layout (0-indexed, little-endian 16-bit fields):
//
//	 0     model code
//	 1     firmware minor
//	 2     firmware major
//	 4     battery percent
//	 5-6   elapsed time, minutes
//	 7-8   temperature raw
//	10-11  weight left raw
//	12-13  weight right raw
//	14     humidity percent
//	19-20  total weight raw (newer firmware)
//
// Anything past the firmware bytes is only present on full-length
// advertisements (15+ bytes); short bursts carry just the identity.

// Decode interprets one advertisement as a BroodMinder reading.
//
// It returns ok=false when the advertisement carries no BroodMinder
// manufacturer entry or the payload is shorter than the 3-byte minimum
// (model code plus firmware). An unknown model code is not a failure.
//
// known, when non-nil, supplies the name fallback for advertisements
// without a local name. Decode is pure: no I/O, no retained references
// to its inputs.
func Decode(adv models.Advertisement, known *models.DeviceIdentity) (*models.Reading, bool) {
	data, ok := adv.ManufacturerData[ManufacturerID]
	if !ok || len(data) < 3 {
		return nil, false
	}

	code := data[0]
	desc := DescriptorFor(code)

	r := &models.Reading{
		Address:         adv.Address,
		Name:            resolveName(adv.LocalName, known),
		RSSI:            adv.RSSI,
		ModelNumber:     code,
		ModelName:       desc.Name,
		FirmwareVersion: fmt.Sprintf("%d.%d", data[2], data[1]),
		RawPayload:      append([]byte(nil), data...),
	}

	// Measurements only appear on full-length advertisements.
	if len(data) >= 15 {
		battery := int(data[4])
		r.Battery = &battery

		elapsed := int(binary.LittleEndian.Uint16(data[5:7]))
		r.ElapsedMinutes = &elapsed

		decodeTemperature(r, desc, data)
		decodeHumidity(r, desc, data)
		decodeWeight(r, desc, data)
	}

	return r, true
}

// resolveName prefers the advertised local name, then the remembered
// name from a previous session. Empty means unnamed, not "".
func resolveName(localName string, known *models.DeviceIdentity) *string {
	if localName != "" {
		name := localName
		return &name
	}
	if known != nil && known.Name != nil {
		name := *known.Name
		return &name
	}
	return nil
}

func decodeTemperature(r *models.Reading, desc ModelDescriptor, data []byte) {
	if len(data) <= 8 {
		return
	}
	raw := binary.LittleEndian.Uint16(data[7:9])

	switch desc.Temp {
	case TempLegacy:
		setTemperature(r, float64(raw)/65536*165-40)
	case TempCentigrade:
		// Values at or below the 5000 offset are not real readings.
		if raw > 5000 {
			setTemperature(r, (float64(raw)-5000)/100)
		}
	}
}

func setTemperature(r *models.Reading, celsius float64) {
	fahrenheit := celsius*9/5 + 32
	r.TemperatureC = &celsius
	r.TemperatureF = &fahrenheit
}

func decodeHumidity(r *models.Reading, desc ModelDescriptor, data []byte) {
	if !desc.HasHumidity || len(data) <= 14 {
		return
	}
	humidity := float64(data[14])
	r.Humidity = &humidity
}

func decodeWeight(r *models.Reading, desc ModelDescriptor, data []byte) {
	if !desc.HasWeight || len(data) <= 13 {
		return
	}

	if left := binary.LittleEndian.Uint16(data[10:12]); left != weightSentinel {
		lbs := (float64(left) - 32767) / 100
		r.WeightLeftLbs = &lbs
	}
	if right := binary.LittleEndian.Uint16(data[12:14]); right != weightSentinel {
		lbs := (float64(right) - 32767) / 100
		r.WeightRightLbs = &lbs
	}

	switch {
	case r.WeightLeftLbs != nil && r.WeightRightLbs != nil:
		total := (*r.WeightLeftLbs + *r.WeightRightLbs) / 2 * ScaleFactor
		r.TotalWeightLbs = &total
	case r.WeightLeftLbs != nil:
		total := *r.WeightLeftLbs * ScaleFactor
		r.TotalWeightLbs = &total
	case r.WeightRightLbs != nil:
		total := *r.WeightRightLbs * ScaleFactor
		r.TotalWeightLbs = &total
	}

	// Newer firmware reports the total directly in bytes 19-20. When
	// present and non-sentinel it replaces the two-sided estimate.
	if len(data) >= 21 {
		if raw := binary.LittleEndian.Uint16(data[19:21]); raw != weightSentinel {
			total := (float64(raw) - 32767) / 100 * ScaleFactor
			r.TotalWeightLbs = &total
		}
	}
}
