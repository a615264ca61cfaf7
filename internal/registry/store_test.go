package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/afroash/hive-monitor/internal/models"
)

func strPtr(s string) *string { return &s }

func TestLoad_MissingFile(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "devices.json"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for missing file", err)
	}
	if len(store) != 0 {
		t.Errorf("Load() = %d entries, want empty store", len(store))
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := Load(path)
	if err == nil {
		t.Error("Load() error = nil, want parse warning for corrupt file")
	}
	if store == nil || len(store) != 0 {
		t.Errorf("Load() = %v, want usable empty store", store)
	}
}

func TestReconcile(t *testing.T) {
	store := Store{}
	name := "Hive1"

	Reconcile(store, []*models.Reading{
		{Address: "AA:BB", Name: &name},
	})

	identity, ok := store["AA:BB"]
	if !ok {
		t.Fatal("Reconcile() did not create identity for AA:BB")
	}
	if identity.Name == nil || *identity.Name != "Hive1" {
		t.Errorf("Name = %v, want Hive1", identity.Name)
	}
	if identity.FriendlyName != nil {
		t.Errorf("FriendlyName = %q, want absent", *identity.FriendlyName)
	}

	// A later session without an advertised name must not erase the
	// remembered one.
	Reconcile(store, []*models.Reading{
		{Address: "AA:BB", Name: nil},
	})
	if identity.Name == nil || *identity.Name != "Hive1" {
		t.Errorf("Name after nameless reconcile = %v, want Hive1 preserved", identity.Name)
	}
}

func TestReconcile_NeverTouchesFriendlyName(t *testing.T) {
	store := Store{
		"AA:BB": {
			Address:      "AA:BB",
			Name:         strPtr("old"),
			FriendlyName: strPtr("Back Yard Hive"),
		},
	}

	Reconcile(store, []*models.Reading{
		{Address: "AA:BB", Name: strPtr("new")},
	})

	identity := store["AA:BB"]
	if *identity.Name != "new" {
		t.Errorf("Name = %q, want new", *identity.Name)
	}
	if identity.FriendlyName == nil || *identity.FriendlyName != "Back Yard Hive" {
		t.Errorf("FriendlyName = %v, want Back Yard Hive untouched", identity.FriendlyName)
	}
}

func TestPersistLoad_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		store Store
	}{
		{name: "empty store", store: Store{}},
		{
			name: "single entry, all absent",
			store: Store{
				"AA:BB": {Address: "AA:BB"},
			},
		},
		{
			name: "multiple entries",
			store: Store{
				"AA:BB": {Address: "AA:BB", Name: strPtr("Hive1")},
				"CC:DD": {Address: "CC:DD", Name: strPtr("Hive2"), FriendlyName: strPtr("Orchard")},
				"EE:FF": {Address: "EE:FF", FriendlyName: strPtr("Shed")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "devices.json")
			if err := Persist(tt.store, path); err != nil {
				t.Fatalf("Persist() error = %v", err)
			}

			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(loaded) != len(tt.store) {
				t.Fatalf("Load() = %d entries, want %d", len(loaded), len(tt.store))
			}
			for addr, want := range tt.store {
				got, ok := loaded[addr]
				if !ok {
					t.Errorf("missing entry %s", addr)
					continue
				}
				if got.Address != want.Address {
					t.Errorf("%s: Address = %q, want %q", addr, got.Address, want.Address)
				}
				if !strPtrEqual(got.Name, want.Name) {
					t.Errorf("%s: Name = %v, want %v", addr, got.Name, want.Name)
				}
				if !strPtrEqual(got.FriendlyName, want.FriendlyName) {
					t.Errorf("%s: FriendlyName = %v, want %v", addr, got.FriendlyName, want.FriendlyName)
				}
			}
		})
	}
}

func TestPersist_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "devices.json")
	if err := Persist(Store{}, path); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("registry file missing after Persist: %v", err)
	}
}

func TestPersist_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devices.json")
	if err := Persist(Store{"AA:BB": {Address: "AA:BB"}}, path); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "devices.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("registry dir contents = %v, want only devices.json", names)
	}
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
