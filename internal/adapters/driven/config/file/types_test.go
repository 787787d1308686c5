package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

func TestTypeTableSource_EmptyPathUsesDefaults(t *testing.T) {
	table, err := NewTypeTableSource("").LoadTypes()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTypeTable().Names(), table.Names())
}

func TestTypeTableSource_LoadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.yaml")
	content := `
types:
  - name: payslip
    fields: [employee_name, net_pay]
    keywords: [Payslip, net pay, gross]
  - name: memo
    fields: [author]
    keywords: [memo]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	table, err := NewTypeTableSource(path).LoadTypes()

	require.NoError(t, err)
	assert.Equal(t, []string{"payslip", "memo"}, table.Names())
	payslip, ok := table.Lookup("payslip")
	require.True(t, ok)
	assert.Equal(t, []string{"payslip", "net pay", "gross"}, payslip.Keywords)
}

func TestTypeTableSource_InvalidTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.yaml")
	content := `
types:
  - name: unknown
    fields: [a]
    keywords: [b]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	_, err := NewTypeTableSource(path).LoadTypes()

	assert.ErrorIs(t, err, domain.ErrInvalidTypeTable)
}

func TestTypeTableSource_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.yaml")
	require.NoError(t, os.WriteFile(path, []byte("types: [unclosed"), 0600))

	_, err := NewTypeTableSource(path).LoadTypes()

	assert.ErrorIs(t, err, domain.ErrInvalidTypeTable)
}

func TestTypeTableSource_MissingFile(t *testing.T) {
	_, err := NewTypeTableSource(filepath.Join(t.TempDir(), "nope.yaml")).LoadTypes()

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteTypes_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.yaml")

	require.NoError(t, WriteTypes(path, domain.DefaultDocumentTypes()))
	table, err := NewTypeTableSource(path).LoadTypes()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTypeTable().Names(), table.Names())
}
