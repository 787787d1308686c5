package driven

import "github.com/custodia-labs/docintel/internal/core/domain"

// SettingsStore loads and persists application settings.
// Implementations handle file formats and environment overrides.
type SettingsStore interface {
	// Load returns the effective settings.
	Load() (domain.Settings, error)

	// Save persists the given settings.
	Save(settings domain.Settings) error

	// Path returns the configuration file path.
	Path() string
}

// TypeTableSource loads the document type table.
type TypeTableSource interface {
	// LoadTypes returns the validated table.
	LoadTypes() (*domain.TypeTable, error)
}
