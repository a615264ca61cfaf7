package models

import "fmt"

// Reading represents one decoded BroodMinder advertisement.
//
// Optional quantities are pointers: nil means the payload did not carry
// that quantity (too short, or the model doesn't measure it). A nil field
// is "not measured", never zero, and downstream consumers must keep that
// distinction.
type Reading struct {
	Address         string   `json:"address"`
	Name            *string  `json:"name,omitempty"`
	FriendlyName    *string  `json:"friendly_name,omitempty"`
	RSSI            int16    `json:"rssi"`
	ModelNumber     uint8    `json:"model_number"`
	ModelName       string   `json:"model_name"`
	FirmwareVersion string   `json:"firmware_version"`
	Battery         *int     `json:"battery,omitempty"`
	ElapsedMinutes  *int     `json:"elapsed_time,omitempty"`
	TemperatureC    *float64 `json:"temperature_c,omitempty"`
	TemperatureF    *float64 `json:"temperature_f,omitempty"`
	Humidity        *float64 `json:"humidity,omitempty"`
	WeightLeftLbs   *float64 `json:"weight_left_lbs,omitempty"`
	WeightRightLbs  *float64 `json:"weight_right_lbs,omitempty"`
	TotalWeightLbs  *float64 `json:"total_weight_lbs,omitempty"`
	RawPayload      []byte   `json:"-"`
}

// DisplayName returns the best human-facing label for the device:
// friendly name, then advertised/remembered name, then the address.
func (r *Reading) DisplayName() string {
	if r.FriendlyName != nil && *r.FriendlyName != "" {
		return *r.FriendlyName
	}
	if r.Name != nil && *r.Name != "" {
		return *r.Name
	}
	return r.Address
}

// String returns a one-line summary, used for debug logging.
func (r *Reading) String() string {
	return fmt.Sprintf("%s %s (model %d) fw %s rssi %d dBm",
		r.Address, r.ModelName, r.ModelNumber, r.FirmwareVersion, r.RSSI)
}
