package shop

import (
	"context"

	"github.com/ValentinKolb/dShop/lib/catalog"
)

// StoreSettings returns the settings singleton. While the slot is absent
// the seed settings are returned.
func (s *Shop) StoreSettings() (catalog.StoreSettings, error) {
	return readSlot(s, SettingsSlot, s.seed.Settings)
}

// SaveStoreSettings validates and overwrites the settings singleton.
func (s *Shop) SaveStoreSettings(ctx context.Context, settings catalog.StoreSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.withLocks(ctx, func() error {
		return writeSlot(s, SettingsSlot, settings)
	}, SettingsSlot)
}
