package file

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

// Ensure TypeTableSource implements the interface.
var _ driven.TypeTableSource = (*TypeTableSource)(nil)

// TypeTableSource reads the document type table from a YAML file:
//
//	types:
//	  - name: invoice
//	    fields: [invoice_number, date, total_amount]
//	    keywords: [invoice, amount due, total]
//
// An empty path yields the built-in table.
type TypeTableSource struct {
	path string
}

// NewTypeTableSource creates a source for path.
func NewTypeTableSource(path string) *TypeTableSource {
	return &TypeTableSource{path: expandHome(path)}
}

type typesFile struct {
	Types []domain.DocumentType `yaml:"types"`
}

// LoadTypes returns the validated table.
func (s *TypeTableSource) LoadTypes() (*domain.TypeTable, error) {
	if s.path == "" {
		return domain.DefaultTypeTable(), nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read types file: %w", err)
	}

	var f typesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidTypeTable, s.path, err)
	}
	return domain.NewTypeTable(f.Types)
}

// WriteTypes saves types as YAML, for seeding a user-editable file.
func WriteTypes(path string, types []domain.DocumentType) error {
	data, err := yaml.Marshal(typesFile{Types: types})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
