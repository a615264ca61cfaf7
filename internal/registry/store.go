// Package registry persists device identities across scanning sessions,
// so a hive keeps its name between runs.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/afroash/hive-monitor/internal/models"
)

// Store maps a device address to its persisted identity.
type Store map[string]*models.DeviceIdentity

// DefaultPath returns the registry file location inside the per-user
// configuration directory.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, "broodminder", "devices.json"), nil
}

// Load reads the registry file. A missing file is a normal first run and
// yields an empty store with no error. A file that exists but cannot be
// read or parsed also yields an empty store, with the cause returned so
// the caller can log a warning; it is never fatal.
func Load(path string) (Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return Store{}, fmt.Errorf("read registry: %w", err)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil {
		return Store{}, fmt.Errorf("parse registry: %w", err)
	}
	if store == nil {
		store = Store{}
	}
	return store, nil
}

// Reconcile folds a session's readings into the store: unseen addresses
// get a fresh identity, and the remembered name is updated only when the
// reading actually resolved one. Friendly names are user-owned and are
// never written here.
func Reconcile(store Store, readings []*models.Reading) {
	for _, r := range readings {
		identity, ok := store[r.Address]
		if !ok {
			identity = &models.DeviceIdentity{Address: r.Address}
			store[r.Address] = identity
		}
		if r.Name != nil {
			name := *r.Name
			identity.Name = &name
		}
	}
}

// Persist writes the full store to path atomically: the content goes to
// a temp file in the same directory which is then renamed over the
// target, so a concurrent reader never sees a half-written file.
func Persist(store Store, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "devices-*.json")
	if err != nil {
		return fmt.Errorf("create temp registry: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close registry: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}
