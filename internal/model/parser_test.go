package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemasync/internal/core"
)

func parse(t *testing.T, text string) *core.Schema {
	t.Helper()
	s, err := NewParser().Parse(strings.NewReader(text))
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

func parseErr(t *testing.T, text string) error {
	t.Helper()
	_, err := NewParser().Parse(strings.NewReader(text))
	require.Error(t, err)
	return err
}

const userModel = `
// @tablecomment "Signed-up user accounts"
// @compositeUnique unq_tenant_email (tenant_id, email)
// @composite (tenant_id, created_at)
model User {
    table      = "users"
    timestamps = true

    // @column @autonumber
    id

    // @column @int @unsigned @index
    tenant_id

    // @column @varchar 255 @unique @comment "login email"
    email

    // @column @enum free,pro,enterprise @default free
    plan

    // @column @json @nullable
    settings

    // @column @decimal @nullable
    balance

    // not a column at all
    helper
}
`

func TestParseFullModel(t *testing.T) {
	s := parse(t, userModel)

	assert.Equal(t, "users", s.TableName)
	assert.Equal(t, "Signed-up user accounts", s.TableComment)
	assert.True(t, s.Timestamps)

	// 6 declared columns plus injected created_at / updated_at;
	// the annotation-free property is excluded.
	require.Len(t, s.Columns, 8)

	id := s.FindColumn("id")
	require.NotNil(t, id)
	assert.Equal(t, "INT", id.Type)
	assert.Equal(t, "11", id.Length)
	assert.True(t, id.Unsigned)
	assert.True(t, id.AutoIncrement)
	assert.True(t, id.Primary)

	tenant := s.FindColumn("tenant_id")
	require.NotNil(t, tenant)
	assert.True(t, tenant.Unsigned)
	assert.True(t, tenant.Index)

	email := s.FindColumn("email")
	require.NotNil(t, email)
	assert.Equal(t, "VARCHAR", email.Type)
	assert.Equal(t, "255", email.Length)
	assert.True(t, email.Unique)
	assert.Equal(t, "login email", email.Comment)

	plan := s.FindColumn("plan")
	require.NotNil(t, plan)
	assert.Equal(t, "ENUM", plan.Type)
	assert.Equal(t, []string{"free", "pro", "enterprise"}, plan.Values)
	require.NotNil(t, plan.Default)
	assert.Equal(t, "free", *plan.Default)

	settings := s.FindColumn("settings")
	require.NotNil(t, settings)
	assert.Equal(t, "JSON", settings.Type)
	assert.True(t, settings.Nullable)

	assert.Equal(t, []string{"tenant_id", "email"}, s.CompositeUniqueIndexes["unq_tenant_email"])
	assert.Equal(t, []string{"tenant_id", "created_at"}, s.CompositeIndexes["idx_tenant_id_created_at"])
}

// DECIMAL with no explicit length defaults to 10,2.
func TestParseDecimalDefaultLength(t *testing.T) {
	s := parse(t, userModel)
	balance := s.FindColumn("balance")
	require.NotNil(t, balance)
	assert.Equal(t, "DECIMAL", balance.Type)
	assert.Equal(t, "10,2", balance.Length)
}

func TestParseTimestampsInjection(t *testing.T) {
	s := parse(t, userModel)
	for _, name := range []string{"created_at", "updated_at"} {
		col := s.FindColumn(name)
		require.NotNil(t, col, name)
		assert.Equal(t, "TIMESTAMP", col.Type)
		require.NotNil(t, col.Default)
		assert.Equal(t, "CURRENT_TIMESTAMP", *col.Default)
	}
}

func TestParseTableDefaultsToModelName(t *testing.T) {
	s := parse(t, `
model Invoice {
    // @column @autonumber
    id
}
`)
	assert.Equal(t, "invoice", s.TableName)
}

func TestParseBooleanAlias(t *testing.T) {
	for _, token := range []string{"@boolean", "@bool"} {
		s := parse(t, `
model T {
    // @column `+token+`
    active
    // @column @autonumber
    id
}
`)
		col := s.FindColumn("active")
		require.NotNil(t, col, token)
		assert.Equal(t, "TINYINT", col.Type)
		assert.Equal(t, "1", col.Length)
		require.NotNil(t, col.Default)
		assert.Equal(t, "0", *col.Default)
	}
}

func TestParseUUID(t *testing.T) {
	s := parse(t, `
model T {
    // @column @uuid
    id
}
`)
	col := s.FindColumn("id")
	require.NotNil(t, col)
	assert.Equal(t, "CHAR", col.Type)
	assert.Equal(t, "36", col.Length)
	assert.True(t, col.Primary)
}

func TestParseVarcharExplicitLength(t *testing.T) {
	s := parse(t, `
model T {
    // @column @varchar 64 @nullable @after email
    display_name
    // @column @autonumber
    id
}
`)
	col := s.FindColumn("display_name")
	require.NotNil(t, col)
	assert.Equal(t, "64", col.Length)
	assert.True(t, col.Nullable)
	assert.Equal(t, "email", col.After)
}

func TestParseDropShortCircuits(t *testing.T) {
	s := parse(t, `
model T {
    // @column @varchar 50 @drop @unique
    legacy
    // @column @autonumber
    id
}
`)
	col := s.FindColumn("legacy")
	require.NotNil(t, col)
	assert.True(t, col.Drop)
	// Nothing else is read off a dropped property.
	assert.Empty(t, col.Type)
	assert.False(t, col.Unique)
}

func TestParseRename(t *testing.T) {
	s := parse(t, `
model Post {
    table = "posts"
    // @column @rename headline @varchar 200
    title
    // @column @autonumber
    id
}
`)
	col := s.FindColumn("title")
	require.NotNil(t, col)
	assert.Equal(t, "headline", col.Rename)
	assert.Equal(t, "VARCHAR", col.Type)
	assert.Equal(t, "200", col.Length)
}

func TestParseForeignKey(t *testing.T) {
	s := parse(t, `
model Post {
    // @column @int @unsigned
    // @foreign users(id) @ondelete CASCADE
    user_id
    // @column @autonumber
    id
}
`)
	col := s.FindColumn("user_id")
	require.NotNil(t, col)
	require.NotNil(t, col.Foreign)
	assert.Equal(t, "users", col.Foreign.RefTable)
	assert.Equal(t, "id", col.Foreign.RefColumn)
	assert.Equal(t, core.RefCascade, col.Foreign.OnDelete)
	assert.Equal(t, core.RefRestrict, col.Foreign.OnUpdate)
}

func TestParsePartitionKinds(t *testing.T) {
	s := parse(t, `
// @partition hash(tenant_id) 8
model T {
    // @column @autonumber
    id
    // @column @int @primary
    tenant_id
}
`)
	require.NotNil(t, s.Partition)
	assert.Equal(t, core.PartitionHash, s.Partition.Kind)
	assert.Equal(t, "tenant_id", s.Partition.Column)
	assert.Equal(t, 8, s.Partition.Count)
}

// RANGE and LIST parse; the generator rejects them later.
func TestParsePartitionRangeAccepted(t *testing.T) {
	s := parse(t, `
// @partition range(created_on)
model T {
    // @column @autonumber
    id
    // @column @date @primary
    created_on
}
`)
	require.NotNil(t, s.Partition)
	assert.Equal(t, core.PartitionRange, s.Partition.Kind)
	assert.Zero(t, s.Partition.Count)
}

func TestParsePartitionHashRequiresCount(t *testing.T) {
	err := parseErr(t, `
// @partition hash(tenant_id)
model T {
    // @column @autonumber
    id
}
`)
	assert.True(t, core.IsKind(err, core.ErrInvalidModel))
}

func TestParseColumnWithoutType(t *testing.T) {
	err := parseErr(t, `
model T {
    // @column @nullable
    mystery
}
`)
	assert.True(t, core.IsKind(err, core.ErrInvalidModel))
	assert.Contains(t, err.Error(), "mystery")
}

func TestParseUnknownAnnotation(t *testing.T) {
	err := parseErr(t, `
model T {
    // @column @xint
    n
}
`)
	assert.True(t, core.IsKind(err, core.ErrInvalidModel))
	assert.Contains(t, err.Error(), "@xint")
}

func TestParseUnknownClassAnnotation(t *testing.T) {
	err := parseErr(t, `
// @tablecoment "typo"
model T {
    // @column @autonumber
    id
}
`)
	assert.True(t, core.IsKind(err, core.ErrInvalidModel))
}

func TestParseEnumValuesTrimmed(t *testing.T) {
	s := parse(t, `
model T {
    // @column @set a , b ,c
    flags
    // @column @autonumber
    id
}
`)
	assert.Equal(t, []string{"a", "b", "c"}, s.FindColumn("flags").Values)
}

func TestParseDefaultKeywordsPassThrough(t *testing.T) {
	s := parse(t, `
model T {
    // @column @datetime @default CURRENT_TIMESTAMP
    seen_at
    // @column @varchar 10 @nullable @default NULL
    note
    // @column @autonumber
    id
}
`)
	require.NotNil(t, s.FindColumn("seen_at").Default)
	assert.Equal(t, "CURRENT_TIMESTAMP", *s.FindColumn("seen_at").Default)
	require.NotNil(t, s.FindColumn("note").Default)
	assert.Equal(t, "NULL", *s.FindColumn("note").Default)
}

func TestParseStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no model", "// just a comment\n"},
		{"unterminated body", "model T {\n"},
		{"stray brace", "}\n"},
		{"bad property name", "model T {\n  1bad\n}\n"},
		{"bad key", "model T {\n  shard = 3\n}\n"},
		{"bad timestamps value", "model T {\n  timestamps = maybe\n}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseErr(t, tt.text)
			assert.True(t, core.IsKind(err, core.ErrInvalidModel), err.Error())
		})
	}
}

func TestParseBlankLineResetsCommentBlock(t *testing.T) {
	s := parse(t, `
model T {
    // @column @varchar 50

    orphaned_comment_target

    // @column @autonumber
    id
}
`)
	// The blank line detached the comment block from the property.
	assert.Nil(t, s.FindColumn("orphaned_comment_target"))
	require.NotNil(t, s.FindColumn("id"))
}
