package broodminder

import "fmt"

// ManufacturerID is the BLE company identifier for IF, LLC (BroodMinder).
const ManufacturerID uint16 = 0x028D

// ScaleFactor converts the measured load-cell weight to the full hive
// weight. It assumes the standard mount: front of the hive resting on a
// 2x4, back on the scale, so the scale carries roughly half the load.
// See https://doc.mybroodminder.com/87_physics_and_tech_stuff/
const ScaleFactor = 2.0

// weightSentinel is the raw value firmware reports when a load cell has
// no valid reading.
const weightSentinel uint16 = 0x7FFF

// TempFormula selects how a model's raw 16-bit temperature is converted
// to Celsius.
type TempFormula int

const (
	// TempNone means the model does not report temperature.
	TempNone TempFormula = iota
	// TempLegacy is the first-generation formula: raw/65536*165 - 40.
	TempLegacy
	// TempCentigrade is the current formula: raw is centi-degrees offset
	// by 5000; values at or below 5000 are not valid readings.
	TempCentigrade
)

// ModelDescriptor describes what a model measures and how.
type ModelDescriptor struct {
	Name        string
	Temp        TempFormula
	HasHumidity bool
	HasWeight   bool
}

// modelTable maps the model code (payload byte 0) to its capabilities.
// Adding a model is a data change here, not a decoder change.
var modelTable = map[uint8]ModelDescriptor{
	41: {Name: "BroodMinder-T", Temp: TempLegacy},
	42: {Name: "BroodMinder-TH", Temp: TempLegacy, HasHumidity: true},
	43: {Name: "BroodMinder-W", Temp: TempLegacy, HasWeight: true},
	47: {Name: "BroodMinder-TMWC", Temp: TempCentigrade, HasHumidity: true, HasWeight: true},
	49: {Name: "BroodMinder-XLR", Temp: TempCentigrade, HasWeight: true},
	52: {Name: "BroodMinder-SubHub", Temp: TempCentigrade},
	56: {Name: "BroodMinder-WS", Temp: TempCentigrade, HasWeight: true},
	57: {Name: "BroodMinder-WSLR", Temp: TempCentigrade, HasWeight: true},
	58: {Name: "BroodMinder-WSXLR", Temp: TempCentigrade, HasWeight: true},
}

// DescriptorFor resolves the descriptor for a model code. Unknown codes
// get a synthesized name and, for codes 47 and above, the current
// temperature formula; they never claim humidity or weight.
func DescriptorFor(code uint8) ModelDescriptor {
	if d, ok := modelTable[code]; ok {
		return d
	}
	d := ModelDescriptor{Name: fmt.Sprintf("Unknown-%d", code)}
	if code >= 47 {
		d.Temp = TempCentigrade
	}
	return d
}

// KnownModel reports whether the code is in the model table.
func KnownModel(code uint8) bool {
	_, ok := modelTable[code]
	return ok
}
