package internal

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrTableMissing is returned by CheckTable when the table does not exist.
var ErrTableMissing = errors.New("table does not exist")

// Column describes one column as the backend reports it. Type is lower case.
type Column struct {
	Type     string
	Nullable bool
}

// TableSchema lists the columns a table must have. Extra columns are allowed.
type TableSchema struct {
	Name    string
	Columns map[string]Column
}

// SchemaError reports every difference found between a table and its schema.
type SchemaError struct {
	Table      string
	Missing    []string
	Mismatched []string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "table %s does not match schema", e.Table)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "; missing columns: %s", strings.Join(e.Missing, ", "))
	}
	if len(e.Mismatched) > 0 {
		fmt.Fprintf(&b, "; mismatched columns: %s", strings.Join(e.Mismatched, ", "))
	}
	return b.String()
}

// CheckTable compares the columns found in the database against want. A nil
// actual map means the table was not found.
func CheckTable(want TableSchema, actual map[string]Column) error {
	if actual == nil {
		return fmt.Errorf("check %s: %w", want.Name, ErrTableMissing)
	}

	schemaErr := &SchemaError{Table: want.Name}

	for _, name := range slices.Sorted(maps.Keys(want.Columns)) {
		expected := want.Columns[name]

		got, ok := actual[name]
		if !ok {
			schemaErr.Missing = append(schemaErr.Missing, name)
			continue
		}

		if got.Type != expected.Type {
			schemaErr.Mismatched = append(schemaErr.Mismatched,
				fmt.Sprintf("%s type %s, want %s", name, got.Type, expected.Type))
		}
		if got.Nullable != expected.Nullable {
			schemaErr.Mismatched = append(schemaErr.Mismatched,
				fmt.Sprintf("%s nullable=%t, want %t", name, got.Nullable, expected.Nullable))
		}
	}

	if len(schemaErr.Missing) > 0 || len(schemaErr.Mismatched) > 0 {
		return schemaErr
	}
	return nil
}
