package preferences

import "github.com/fystack/appprefs/pkg/settings"

const (
	isYdbMigratedKey = "isYdbMigrated1"
	didEverUseYdbKey = "didEverUseYdb"
)

// Markers are one-way migration flags kept in the settings store, outside any
// preference transaction.
type Markers struct {
	store settings.Store
}

func NewMarkers(store settings.Store) *Markers {
	return &Markers{store: store}
}

func (m *Markers) IsYdbMigrated() (bool, error) {
	return settings.GetBool(m.store, isYdbMigratedKey, false)
}

func (m *Markers) SetIsYdbMigrated(v bool) error {
	return settings.SetBool(m.store, isYdbMigratedKey, v)
}

func (m *Markers) DidEverUseYdb() (bool, error) {
	return settings.GetBool(m.store, didEverUseYdbKey, false)
}

func (m *Markers) SetDidEverUseYdb(v bool) error {
	return settings.SetBool(m.store, didEverUseYdbKey, v)
}
