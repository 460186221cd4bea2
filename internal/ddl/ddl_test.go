package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"schemasync/internal/core"
)

func strptr(v string) *string { return &v }

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, "`users`", QuoteIdentifier("users"))
	assert.Equal(t, "`we``ird`", QuoteIdentifier("we`ird"))
	assert.Equal(t, "`x`", QuoteIdentifier("  x  "))
}

func TestTypeClause(t *testing.T) {
	tests := []struct {
		name string
		col  core.ColumnDef
		want string
	}{
		{"varchar", core.ColumnDef{Type: "VARCHAR", Length: "255"}, "VARCHAR(255)"},
		{"int unsigned", core.ColumnDef{Type: "INT", Length: "11", Unsigned: true}, "INT(11) UNSIGNED"},
		{"decimal", core.ColumnDef{Type: "DECIMAL", Length: "10,2"}, "DECIMAL(10,2)"},
		{"bare json", core.ColumnDef{Type: "JSON"}, "JSON"},
		{"enum", core.ColumnDef{Type: "ENUM", Values: []string{"a", "b"}}, "ENUM('a','b')"},
		{"set", core.ColumnDef{Type: "SET", Values: []string{"x"}}, "SET('x')"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeClause(&tt.col))
		})
	}
}

func TestColumnClause(t *testing.T) {
	col := &core.ColumnDef{
		Name: "email", Type: "VARCHAR", Length: "255",
		Default: strptr("none"), Comment: "login email",
	}
	assert.Equal(t,
		"`email` VARCHAR(255) NOT NULL DEFAULT 'none' COMMENT 'login email'",
		ColumnClause(col))
}

func TestColumnClauseAutoIncrement(t *testing.T) {
	col := &core.ColumnDef{Name: "id", Type: "INT", Length: "11", Unsigned: true, AutoIncrement: true}
	assert.Equal(t, "`id` INT(11) UNSIGNED NOT NULL AUTO_INCREMENT", ColumnClause(col))
}

func TestColumnClauseCheck(t *testing.T) {
	col := &core.ColumnDef{Name: "age", Type: "INT", Length: "11", Check: "age >= 0"}
	assert.Equal(t, "`age` INT(11) NOT NULL CHECK (age >= 0)", ColumnClause(col))
}

// The add-a-nullable-column shape: one statement with position.
func TestAddColumnWithPosition(t *testing.T) {
	col := &core.ColumnDef{Name: "display_name", Type: "VARCHAR", Length: "64", Nullable: true, After: "email"}
	assert.Equal(t,
		"ALTER TABLE `users` ADD COLUMN `display_name` VARCHAR(64) NULL AFTER `email`;",
		AddColumn("users", col))

	col.After = ""
	col.First = true
	assert.Equal(t,
		"ALTER TABLE `users` ADD COLUMN `display_name` VARCHAR(64) NULL FIRST;",
		AddColumn("users", col))
}

// The rename-with-type-change shape.
func TestChangeColumn(t *testing.T) {
	col := &core.ColumnDef{Name: "title", Type: "VARCHAR", Length: "200"}
	assert.Equal(t,
		"ALTER TABLE `posts` CHANGE `headline` `title` VARCHAR(200) NOT NULL;",
		ChangeColumn("posts", "headline", col))
}

func TestModifyAndDropColumn(t *testing.T) {
	col := &core.ColumnDef{Name: "n", Type: "BIGINT", Length: "20"}
	assert.Equal(t, "ALTER TABLE `t` MODIFY COLUMN `n` BIGINT(20) NOT NULL;", ModifyColumn("t", col))
	assert.Equal(t, "ALTER TABLE `t` DROP COLUMN `legacy`;", DropColumn("t", "legacy"))
}

// The FK replacement shape with the conventional constraint name.
func TestForeignKeyStatements(t *testing.T) {
	col := &core.ColumnDef{
		Name: "user_id", Type: "INT", Length: "11", Unsigned: true,
		Foreign: &core.ForeignKey{
			RefTable: "users", RefColumn: "id",
			OnDelete: core.RefCascade, OnUpdate: core.RefRestrict,
		},
	}
	assert.Equal(t,
		"ALTER TABLE `posts` ADD CONSTRAINT `fk_posts_user_id` FOREIGN KEY (`user_id`) REFERENCES `users`(`id`) ON DELETE CASCADE ON UPDATE RESTRICT;",
		AddForeignKey("posts", col))
	assert.Equal(t,
		"ALTER TABLE `posts` DROP FOREIGN KEY `fk_posts_user_id`;",
		DropForeignKey("posts", "fk_posts_user_id"))
}

func TestIndexStatements(t *testing.T) {
	assert.Equal(t,
		"ALTER TABLE `t` ADD INDEX `idx_a_b` (`a`,`b`);",
		AddIndex("t", "idx_a_b", []string{"a", "b"}, false))
	assert.Equal(t,
		"ALTER TABLE `t` ADD UNIQUE INDEX `email_unique` (`email`);",
		AddIndex("t", "email_unique", []string{"email"}, true))
	assert.Equal(t,
		"ALTER TABLE `t` ADD FULLTEXT INDEX `body_fulltext` (`body`);",
		AddFulltextIndex("t", "body_fulltext", []string{"body"}))
	assert.Equal(t,
		"ALTER TABLE `t` DROP INDEX `idx_a_b`;",
		DropIndex("t", "idx_a_b"))
}

// The partitioning-switch shape.
func TestPartitionStatements(t *testing.T) {
	p := &core.Partition{Kind: core.PartitionHash, Column: "source", Count: 32}
	assert.Equal(t,
		"ALTER TABLE `events` PARTITION BY HASH(`source`) PARTITIONS 32;",
		PartitionBy("events", p))
	assert.Equal(t,
		"ALTER TABLE `events` REMOVE PARTITIONING;",
		RemovePartitioning("events"))
}

func TestTableStatements(t *testing.T) {
	assert.Equal(t, "DROP TABLE IF EXISTS `t`;", DropTableIfExists("t"))
	assert.Equal(t, "DROP TABLE `t`;", DropTable("t"))
	assert.Equal(t, "RENAME TABLE `a` TO `b`;", RenameTable("a", "b"))
	assert.Equal(t, "DELETE FROM `t`;", TruncateRows("t"))
}

func TestCheckStatements(t *testing.T) {
	assert.Equal(t, "chk_orders_total", CheckConstraintName("orders", "total"))
	assert.Equal(t,
		"ALTER TABLE `orders` ADD CONSTRAINT `chk_orders_total` CHECK (total >= 0);",
		AddCheck("orders", "chk_orders_total", "total >= 0"))
	assert.Equal(t,
		"ALTER TABLE `orders` DROP CHECK `chk_orders_total`;",
		DropCheck("orders", "chk_orders_total"))
}
