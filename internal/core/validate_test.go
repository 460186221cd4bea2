package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSchema() *Schema {
	s := NewSchema("users")
	s.Columns = []*ColumnDef{
		{Name: "id", Type: "INT", Length: "11", Unsigned: true, AutoIncrement: true, Primary: true},
		{Name: "email", Type: "VARCHAR", Length: "255", Unique: true},
	}
	return s
}

func TestValidateOK(t *testing.T) {
	require.NoError(t, validSchema().Validate())
}

func TestValidateNoColumns(t *testing.T) {
	s := NewSchema("empty")
	err := s.Validate()
	require.Error(t, err)
	ve := requireValidationError(t, err)
	assert.Equal(t, "columns", ve.Rule)
}

func TestValidateDropOnlyColumns(t *testing.T) {
	s := NewSchema("t")
	s.Columns = []*ColumnDef{{Name: "old", Drop: true}}
	err := s.Validate()
	require.Error(t, err)
	assert.Equal(t, "columns", requireValidationError(t, err).Rule)
}

func TestValidateNoPrimaryKey(t *testing.T) {
	s := NewSchema("t")
	s.Columns = []*ColumnDef{{Name: "name", Type: "VARCHAR", Length: "255"}}
	err := s.Validate()
	ve := requireValidationError(t, err)
	assert.Equal(t, "primary-key", ve.Rule)
	assert.True(t, ve.AutoFixable)
	assert.NotEmpty(t, ve.Suggestion)
}

func TestValidateTimestampsMissing(t *testing.T) {
	s := validSchema()
	s.Timestamps = true
	err := s.Validate()
	ve := requireValidationError(t, err)
	assert.Equal(t, "timestamps", ve.Rule)
	assert.Equal(t, "created_at", ve.Column)
}

func TestValidateTimestampsPresent(t *testing.T) {
	s := validSchema()
	s.Timestamps = true
	s.Columns = append(s.Columns,
		&ColumnDef{Name: "created_at", Type: "TIMESTAMP"},
		&ColumnDef{Name: "updated_at", Type: "TIMESTAMP"},
	)
	require.NoError(t, s.Validate())
}

func TestValidateEnumWithoutValues(t *testing.T) {
	s := validSchema()
	s.Columns = append(s.Columns, &ColumnDef{Name: "status", Type: "ENUM"})
	err := s.Validate()
	assert.Equal(t, "enum-values", requireValidationError(t, err).Rule)
}

func TestValidateDecimalLength(t *testing.T) {
	s := validSchema()
	s.Columns = append(s.Columns, &ColumnDef{Name: "price", Type: "DECIMAL", Length: "10"})
	err := s.Validate()
	assert.Equal(t, "decimal-length", requireValidationError(t, err).Rule)

	s.FindColumn("price").Length = "10,2"
	require.NoError(t, s.Validate())
}

func TestValidateUnsignedOnNonNumeric(t *testing.T) {
	s := validSchema()
	s.Columns = append(s.Columns, &ColumnDef{Name: "label", Type: "VARCHAR", Length: "64", Unsigned: true})
	err := s.Validate()
	assert.Equal(t, "unsigned", requireValidationError(t, err).Rule)
}

func TestValidateCompositeIndexUnknownColumn(t *testing.T) {
	s := validSchema()
	s.CompositeIndexes["idx_a_b"] = []string{"email", "missing"}
	err := s.Validate()
	assert.Equal(t, "composite-index", requireValidationError(t, err).Rule)
}

func TestValidatePartitionColumnMissing(t *testing.T) {
	s := validSchema()
	s.Partition = &Partition{Kind: PartitionHash, Column: "tenant_id", Count: 4}
	err := s.Validate()
	assert.Equal(t, "partition-column", requireValidationError(t, err).Rule)
}

func TestValidatePartitionColumnNotInPrimaryKey(t *testing.T) {
	s := validSchema()
	s.Columns = append(s.Columns, &ColumnDef{Name: "tenant_id", Type: "INT", Length: "11"})
	s.Partition = &Partition{Kind: PartitionHash, Column: "tenant_id", Count: 4}
	err := s.Validate()
	ve := requireValidationError(t, err)
	assert.Equal(t, "partition-key", ve.Rule)
	assert.True(t, ve.AutoFixable)
}

func TestValidatePartitionOK(t *testing.T) {
	s := validSchema()
	s.Columns = append(s.Columns, &ColumnDef{Name: "tenant_id", Type: "INT", Length: "11", Primary: true})
	s.Partition = &Partition{Kind: PartitionHash, Column: "tenant_id", Count: 4}
	require.NoError(t, s.Validate())
}

func TestValidationErrorAsInvalidModel(t *testing.T) {
	s := NewSchema("t")
	err := s.Validate()
	ve := requireValidationError(t, err)
	tagged := ve.AsInvalidModel()
	assert.Equal(t, ErrInvalidModel, tagged.Kind)
	assert.True(t, IsKind(tagged, ErrInvalidModel))
}

func requireValidationError(t *testing.T, err error) *ValidationError {
	t.Helper()
	require.Error(t, err)
	ve, ok := err.(*ValidationError)
	require.True(t, ok, "expected *ValidationError, got %T", err)
	return ve
}
