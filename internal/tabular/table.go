// Package tabular provides the in-memory table abstraction and its
// Parquet/CSV/JSON codecs.
package tabular

import (
	"fmt"
	"strings"
)

// Column kinds. Parquet maps these onto physical/logical types; CSV flattens
// STRING_LIST to a delimited string.
const (
	KindString     = "STRING"
	KindDouble     = "DOUBLE"
	KindStringList = "STRING_LIST"
)

// ListSeparator joins list values when a codec cannot represent lists natively.
const ListSeparator = "|"

// Field is one column of a table schema.
type Field struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Schema is an ordered column list.
type Schema struct {
	Fields []Field `json:"fields"`
}

// Field returns the field with the given name, if present.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns column names in schema order.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Row is a single record keyed by column name. Values are string, float64,
// []string or nil.
type Row map[string]any

// Table is an ordered-schema batch of rows.
type Table struct {
	Schema *Schema
	Rows   []Row
}

// NewTable creates an empty table with the given schema.
func NewTable(schema *Schema) *Table {
	return &Table{Schema: schema}
}

// Append adds a row.
func (t *Table) Append(row Row) {
	t.Rows = append(t.Rows, row)
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// StringAt returns a string cell, tolerating nil.
func (t *Table) StringAt(row int, col string) string {
	v, _ := t.Rows[row][col].(string)
	return v
}

// FloatAt returns a float cell. Malformed or missing values yield an error so
// callers can flag the row instead of failing the batch.
func (t *Table) FloatAt(row int, col string) (float64, error) {
	switch v := t.Rows[row][col].(type) {
	case float64:
		return v, nil
	case nil:
		return 0, fmt.Errorf("column %q is null", col)
	default:
		return 0, fmt.Errorf("column %q has non-numeric value %v", col, v)
	}
}

// ListAt returns a list cell, accepting either a native list or a delimited
// string (the CSV representation).
func (t *Table) ListAt(row int, col string) []string {
	switch v := t.Rows[row][col].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return strings.Split(v, ListSeparator)
	default:
		return nil
	}
}

// JoinList flattens a list value to the delimited-string form.
func JoinList(values []string) string {
	return strings.Join(values, ListSeparator)
}
