package domain

import (
	"fmt"
	"strings"
)

// UnknownType is the sentinel label used when no classification method
// produces sufficient evidence.
const UnknownType = "unknown"

// DocumentType describes one kind of document the system recognises.
type DocumentType struct {
	// Name is the identifier, e.g. "invoice".
	Name string `json:"name" yaml:"name"`

	// Fields are the entity fields expected for this type.
	Fields []string `json:"fields" yaml:"fields"`

	// Keywords is the lexical vocabulary used by keyword scoring.
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// TypeTable is the ordered set of known document types.
// Construct it with NewTypeTable; the zero value is empty.
// A TypeTable is never mutated after construction and is safe
// for concurrent use.
type TypeTable struct {
	types []DocumentType
	index map[string]int
}

// NewTypeTable validates and freezes the given types. Declared order is
// preserved and used as the tie-break order when scores are equal.
func NewTypeTable(types []DocumentType) (*TypeTable, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: no document types", ErrInvalidTypeTable)
	}

	t := &TypeTable{
		types: make([]DocumentType, 0, len(types)),
		index: make(map[string]int, len(types)),
	}
	for i, dt := range types {
		name := strings.TrimSpace(dt.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: type %d has no name", ErrInvalidTypeTable, i)
		}
		if name == UnknownType {
			return nil, fmt.Errorf("%w: %q is reserved", ErrInvalidTypeTable, UnknownType)
		}
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate type %q", ErrInvalidTypeTable, name)
		}

		fields, err := uniqueNonEmpty(dt.Fields, false)
		if err != nil {
			return nil, fmt.Errorf("%w: type %q fields: %v", ErrInvalidTypeTable, name, err)
		}
		keywords, err := uniqueNonEmpty(dt.Keywords, true)
		if err != nil {
			return nil, fmt.Errorf("%w: type %q keywords: %v", ErrInvalidTypeTable, name, err)
		}

		t.index[name] = len(t.types)
		t.types = append(t.types, DocumentType{Name: name, Fields: fields, Keywords: keywords})
	}
	return t, nil
}

func uniqueNonEmpty(values []string, lower bool) ([]string, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v == "" {
			return nil, fmt.Errorf("blank entry")
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

// Len returns the number of known types.
func (t *TypeTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.types)
}

// Names returns the type names in declared order.
func (t *TypeTable) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.types))
	for i, dt := range t.types {
		names[i] = dt.Name
	}
	return names
}

// Types returns a copy of the table in declared order.
func (t *TypeTable) Types() []DocumentType {
	if t == nil {
		return nil
	}
	out := make([]DocumentType, len(t.types))
	for i, dt := range t.types {
		out[i] = DocumentType{
			Name:     dt.Name,
			Fields:   append([]string(nil), dt.Fields...),
			Keywords: append([]string(nil), dt.Keywords...),
		}
	}
	return out
}

// Lookup returns the named type.
func (t *TypeTable) Lookup(name string) (DocumentType, bool) {
	if t == nil {
		return DocumentType{}, false
	}
	i, ok := t.index[name]
	if !ok {
		return DocumentType{}, false
	}
	dt := t.types[i]
	return DocumentType{
		Name:     dt.Name,
		Fields:   append([]string(nil), dt.Fields...),
		Keywords: append([]string(nil), dt.Keywords...),
	}, true
}

// Has reports whether name is a known type.
func (t *TypeTable) Has(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[name]
	return ok
}

// Position returns the declared index of name, or -1.
func (t *TypeTable) Position(name string) int {
	if t == nil {
		return -1
	}
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// DefaultDocumentTypes returns the built-in document types.
func DefaultDocumentTypes() []DocumentType {
	return []DocumentType{
		{
			Name: "invoice",
			Fields: []string{
				"invoice_number", "date", "due_date", "total_amount",
				"vendor_name", "vendor_address", "customer_name", "customer_address",
			},
			Keywords: []string{
				"invoice", "bill", "amount due", "total", "subtotal",
				"tax", "payment terms", "vendor", "supplier",
			},
		},
		{
			Name:   "receipt",
			Fields: []string{"store_name", "date", "total_amount", "items", "payment_method"},
			Keywords: []string{
				"receipt", "purchased", "store", "cashier", "thank you",
				"change", "payment method", "card", "cash",
			},
		},
		{
			Name: "contract",
			Fields: []string{
				"contract_number", "parties", "start_date", "end_date",
				"contract_value", "terms",
			},
			Keywords: []string{
				"contract", "agreement", "party", "terms", "conditions",
				"signature", "effective date", "termination",
			},
		},
		{
			Name: "id_document",
			Fields: []string{
				"full_name", "id_number", "date_of_birth", "expiry_date", "issuing_authority",
			},
			Keywords: []string{
				"identification", "license", "passport", "id card",
				"date of birth", "expires", "issued by",
			},
		},
		{
			Name: "bank_statement",
			Fields: []string{
				"account_number", "statement_period", "opening_balance",
				"closing_balance", "bank_name",
			},
			Keywords: []string{
				"statement", "account", "balance", "transaction",
				"deposit", "withdrawal", "bank", "branch",
			},
		},
	}
}

// DefaultTypeTable returns the built-in table. It panics only if the
// built-in definitions are themselves invalid.
func DefaultTypeTable() *TypeTable {
	t, err := NewTypeTable(DefaultDocumentTypes())
	if err != nil {
		panic(err)
	}
	return t
}
