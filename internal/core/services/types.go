package services

import (
	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
)

// Ensure TypeCatalog implements the interface.
var _ driving.TypeService = (*TypeCatalog)(nil)

// TypeCatalog exposes the document type table.
type TypeCatalog struct {
	types *domain.TypeTable
}

// NewTypeCatalog creates a catalog over the table.
func NewTypeCatalog(types *domain.TypeTable) *TypeCatalog {
	return &TypeCatalog{types: types}
}

// Types returns the known types in declared order.
func (c *TypeCatalog) Types() []domain.DocumentType {
	return c.types.Types()
}
