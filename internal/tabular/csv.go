package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// WriteCSV encodes the table as CSV with a header row. List columns are
// flattened to delimited strings; the element structure is not recoverable.
func WriteCSV(t *Table) ([]byte, error) {
	if t == nil || t.Schema == nil {
		return nil, fmt.Errorf("table schema is required")
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	if err := w.Write(t.Schema.Names()); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for i, row := range t.Rows {
		record := make([]string, 0, len(t.Schema.Fields))
		for _, f := range t.Schema.Fields {
			record = append(record, csvCell(row[f.Name], f.Kind))
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadCSV decodes CSV produced by WriteCSV. Scalar columns round-trip; list
// columns come back as plain delimited strings, so the returned schema
// demotes STRING_LIST to STRING.
func ReadCSV(data []byte, schema *Schema) (*Table, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema is required")
	}

	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv is missing a header row")
	}

	header := records[0]
	flat := flattenSchema(schema)
	table := NewTable(flat)
	for rowIdx, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("csv row %d has %d columns, want %d", rowIdx, len(record), len(header))
		}
		row := Row{}
		for colIdx, name := range header {
			f, ok := flat.Field(name)
			if !ok {
				continue
			}
			cell := record[colIdx]
			if f.Kind == KindDouble {
				if cell == "" {
					row[name] = nil
					continue
				}
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("csv row %d column %q: %w", rowIdx, name, err)
				}
				row[name] = v
				continue
			}
			row[name] = cell
		}
		table.Append(row)
	}
	return table, nil
}

func csvCell(v any, kind string) string {
	switch kind {
	case KindStringList:
		switch t := v.(type) {
		case []string:
			return JoinList(t)
		case string:
			return t
		default:
			return ""
		}
	case KindDouble:
		if f, ok := v.(float64); ok {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return ""
	default:
		if s, ok := v.(string); ok {
			return s
		}
		return ""
	}
}

// flattenSchema copies a schema with list columns demoted to strings.
func flattenSchema(s *Schema) *Schema {
	out := &Schema{Fields: make([]Field, 0, len(s.Fields))}
	for _, f := range s.Fields {
		if f.Kind == KindStringList {
			out.Fields = append(out.Fields, Field{Name: f.Name, Kind: KindString})
			continue
		}
		out.Fields = append(out.Fields, f)
	}
	return out
}
