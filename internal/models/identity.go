package models

// DeviceIdentity is the persisted record for one device address.
//
// Name tracks the last advertised local name seen for the address.
// FriendlyName is a user-assigned label; nothing in this codebase ever
// writes it, it is only carried through load/persist cycles.
type DeviceIdentity struct {
	Address      string  `json:"address"`
	Name         *string `json:"name"`
	FriendlyName *string `json:"friendly_name"`
}
