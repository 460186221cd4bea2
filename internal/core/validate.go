package core

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError reports a violated schema invariant together with the
// metadata interactive callers need to offer a fix.
type ValidationError struct {
	Table  string
	Column string
	// Rule identifies the violated invariant (e.g. "primary-key").
	Rule    string
	Message string
	// Suggestion is a human-readable remediation.
	Suggestion string
	// AutoFixable marks violations a caller can repair by inserting a
	// property into the model.
	AutoFixable bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("table %q column %q: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("table %q: %s", e.Table, e.Message)
}

// AsInvalidModel wraps the validation error into the tagged error the
// CLI reports.
func (e *ValidationError) AsInvalidModel() *Error {
	return &Error{Kind: ErrInvalidModel, Message: e.Error(), Err: e}
}

var decimalLengthRe = regexp.MustCompile(`^\d+,\d+$`)

// Validate applies the schema-only invariants to a parsed schema. The
// live foreign-key checks run separately in the reconciler, because they
// need a database connection.
func (s *Schema) Validate() error {
	if err := s.validateColumnsPresent(); err != nil {
		return err
	}
	if err := s.validatePrimaryKey(); err != nil {
		return err
	}
	if err := s.validateTimestamps(); err != nil {
		return err
	}
	for _, c := range s.Columns {
		if c.Drop {
			continue
		}
		if err := s.validateColumn(c); err != nil {
			return err
		}
	}
	if err := s.validateCompositeIndexes(); err != nil {
		return err
	}
	return s.validatePartition()
}

func (s *Schema) validateColumnsPresent() error {
	for _, c := range s.Columns {
		if !c.Drop {
			return nil
		}
	}
	return &ValidationError{
		Table:      s.TableName,
		Rule:       "columns",
		Message:    "schema declares no columns",
		Suggestion: "add at least one property annotated with @column",
	}
}

func (s *Schema) validatePrimaryKey() error {
	if len(s.PrimaryColumns()) > 0 {
		return nil
	}
	return &ValidationError{
		Table:       s.TableName,
		Rule:        "primary-key",
		Message:     "no column is marked @primary",
		Suggestion:  "add an @autonumber id property or mark an existing column with @primary",
		AutoFixable: true,
	}
}

func (s *Schema) validateTimestamps() error {
	if !s.Timestamps {
		return nil
	}
	for _, name := range []string{"created_at", "updated_at"} {
		if s.FindColumn(name) == nil {
			return &ValidationError{
				Table:       s.TableName,
				Column:      name,
				Rule:        "timestamps",
				Message:     fmt.Sprintf("timestamps are declared but column %q is missing", name),
				Suggestion:  fmt.Sprintf("declare a %s property with @timestamp, or disable timestamps", name),
				AutoFixable: true,
			}
		}
	}
	return nil
}

func (s *Schema) validateColumn(c *ColumnDef) error {
	if !ValidIdentifier(c.Name) {
		return &ValidationError{
			Table:      s.TableName,
			Column:     c.Name,
			Rule:       "identifier",
			Message:    fmt.Sprintf("column name %q is not a valid identifier", c.Name),
			Suggestion: "use only letters, digits, and underscores, starting with a letter or underscore",
		}
	}

	typ := strings.ToUpper(c.Type)
	if typ == "ENUM" || typ == "SET" {
		if len(c.Values) == 0 {
			return &ValidationError{
				Table:      s.TableName,
				Column:     c.Name,
				Rule:       "enum-values",
				Message:    fmt.Sprintf("%s column declares no values", typ),
				Suggestion: fmt.Sprintf("list the members after the token, e.g. @%s active,archived", strings.ToLower(typ)),
			}
		}
	}

	if typ == "DECIMAL" && c.Length != "" && !decimalLengthRe.MatchString(c.Length) {
		return &ValidationError{
			Table:      s.TableName,
			Column:     c.Name,
			Rule:       "decimal-length",
			Message:    fmt.Sprintf("DECIMAL length %q is not precision,scale", c.Length),
			Suggestion: "use @decimal 10,2 style precision and scale",
		}
	}

	if c.Unsigned && !NumericType(typ) {
		return &ValidationError{
			Table:      s.TableName,
			Column:     c.Name,
			Rule:       "unsigned",
			Message:    fmt.Sprintf("@unsigned is not valid on type %s", typ),
			Suggestion: "remove @unsigned or change the column to a numeric type",
		}
	}

	return nil
}

func (s *Schema) validateCompositeIndexes() error {
	for _, group := range []map[string][]string{s.CompositeIndexes, s.CompositeUniqueIndexes} {
		for _, name := range SortedKeys(group) {
			for _, col := range group[name] {
				if s.FindColumn(col) == nil {
					return &ValidationError{
						Table:      s.TableName,
						Column:     col,
						Rule:       "composite-index",
						Message:    fmt.Sprintf("composite index %q references unknown column %q", name, col),
						Suggestion: "declare the column or remove it from the index list",
					}
				}
			}
		}
	}
	return nil
}

func (s *Schema) validatePartition() error {
	p := s.Partition
	if p == nil {
		return nil
	}
	if s.FindColumn(p.Column) == nil {
		return &ValidationError{
			Table:      s.TableName,
			Column:     p.Column,
			Rule:       "partition-column",
			Message:    fmt.Sprintf("partition column %q does not exist", p.Column),
			Suggestion: "partition by one of the declared columns",
		}
	}
	for _, pk := range s.PrimaryColumns() {
		if strings.EqualFold(pk, p.Column) {
			return nil
		}
	}
	return &ValidationError{
		Table:       s.TableName,
		Column:      p.Column,
		Rule:        "partition-key",
		Message:     fmt.Sprintf("partition column %q is not part of the primary key", p.Column),
		Suggestion:  fmt.Sprintf("add @primary to %q; MySQL requires the partition column in every unique key", p.Column),
		AutoFixable: true,
	}
}
