package models

// Advertisement is one raw BLE advertisement event as delivered by the
// scanner: identity of the sender plus the manufacturer-id-keyed payloads
// it carried. The decoder only looks at the BroodMinder vendor entry.
type Advertisement struct {
	Address          string
	LocalName        string
	RSSI             int16
	ManufacturerData map[uint16][]byte
}
