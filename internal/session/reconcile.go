package session

import (
	"github.com/afroash/hive-monitor/internal/models"
	"github.com/afroash/hive-monitor/internal/registry"
)

// AttachIdentity fills each reading's friendly name from the registry
// entry for its address, leaving it absent when the registry has none.
// Readings are updated in place and returned for chaining.
func AttachIdentity(readings []*models.Reading, store registry.Store) []*models.Reading {
	for _, r := range readings {
		identity, ok := store[r.Address]
		if !ok || identity.FriendlyName == nil {
			continue
		}
		friendly := *identity.FriendlyName
		r.FriendlyName = &friendly
	}
	return readings
}
