// Package file provides file-based implementations of driven port interfaces.
// These adapters read and persist configuration on the local filesystem.
//
// Adapters:
//   - SettingsStore: TOML settings with .env and environment overrides
//   - TypeTableSource: YAML document type table
package file
