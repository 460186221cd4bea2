package ddl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemasync/internal/core"
)

func sampleSchema() *core.Schema {
	s := core.NewSchema("users")
	s.TableComment = "Signed-up user accounts"
	s.Columns = []*core.ColumnDef{
		{Name: "id", Type: "INT", Length: "11", Unsigned: true, AutoIncrement: true, Primary: true},
		{Name: "tenant_id", Type: "INT", Length: "11", Unsigned: true, Index: true,
			Foreign: &core.ForeignKey{RefTable: "tenants", RefColumn: "id",
				OnDelete: core.RefCascade, OnUpdate: core.RefRestrict}},
		{Name: "email", Type: "VARCHAR", Length: "255", Unique: true},
		{Name: "bio", Type: "TEXT", Nullable: true, Fulltext: true},
	}
	s.CompositeUniqueIndexes["unq_tenant_email"] = []string{"tenant_id", "email"}
	return s
}

func TestCreateTableShape(t *testing.T) {
	sql := CreateTable(sampleSchema())

	want := "CREATE TABLE `users` (\n" +
		"  `id` INT(11) UNSIGNED NOT NULL AUTO_INCREMENT,\n" +
		"  `tenant_id` INT(11) UNSIGNED NOT NULL,\n" +
		"  `email` VARCHAR(255) NOT NULL,\n" +
		"  `bio` TEXT NULL,\n" +
		"  PRIMARY KEY (`id`),\n" +
		"  UNIQUE KEY `email_unique` (`email`),\n" +
		"  KEY `tenant_id_index` (`tenant_id`),\n" +
		"  UNIQUE KEY `unq_tenant_email` (`tenant_id`,`email`),\n" +
		"  FULLTEXT KEY `bio_fulltext` (`bio`),\n" +
		"  CONSTRAINT `fk_users_tenant_id` FOREIGN KEY (`tenant_id`) REFERENCES `tenants`(`id`) ON DELETE CASCADE ON UPDATE RESTRICT\n" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci COMMENT='Signed-up user accounts';"

	assert.Equal(t, want, sql)
}

func TestCreateTableKeyClauseOrder(t *testing.T) {
	sql := CreateTable(sampleSchema())

	order := []string{
		"PRIMARY KEY",
		"UNIQUE KEY `email_unique`",
		"KEY `tenant_id_index`",
		"UNIQUE KEY `unq_tenant_email`",
		"FULLTEXT KEY",
		"CONSTRAINT `fk_users_tenant_id`",
	}
	last := -1
	for _, marker := range order {
		idx := strings.Index(sql, marker)
		require.GreaterOrEqual(t, idx, 0, marker)
		assert.Greater(t, idx, last, "clause %q out of order", marker)
		last = idx
	}
}

func TestCreateTableSkipsDroppedColumns(t *testing.T) {
	s := core.NewSchema("t")
	s.Columns = []*core.ColumnDef{
		{Name: "id", Type: "INT", Length: "11", Primary: true},
		{Name: "legacy", Drop: true},
	}
	sql := CreateTable(s)
	assert.NotContains(t, sql, "legacy")
}

func TestCreateTablePartitionClause(t *testing.T) {
	s := core.NewSchema("events")
	s.Columns = []*core.ColumnDef{
		{Name: "id", Type: "BIGINT", Length: "20", Primary: true},
		{Name: "source", Type: "INT", Length: "11", Primary: true},
	}
	s.Partition = &core.Partition{Kind: core.PartitionHash, Column: "source", Count: 32}

	sql := CreateTable(s)
	assert.Contains(t, sql, "PRIMARY KEY (`id`,`source`)")
	assert.True(t, strings.HasSuffix(sql,
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci PARTITION BY HASH(`source`) PARTITIONS 32;"), sql)
}

func TestCreateTableEmptyOptionsFallBack(t *testing.T) {
	s := &core.Schema{TableName: "bare",
		CompositeIndexes:       map[string][]string{},
		CompositeUniqueIndexes: map[string][]string{}}
	s.Columns = []*core.ColumnDef{{Name: "id", Type: "INT", Length: "11", Primary: true}}

	sql := CreateTable(s)
	assert.Contains(t, sql, "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci")
}
