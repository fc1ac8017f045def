package tabular

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
)

// WriteJSON encodes the table as JSONL, one object per row. Lists and types
// are preserved in full.
func WriteJSON(t *Table) ([]byte, error) {
	if t == nil || t.Schema == nil {
		return nil, fmt.Errorf("table schema is required")
	}

	buf := &bytes.Buffer{}
	for i, row := range t.Rows {
		line, err := json.Marshal(projectRow(row, t.Schema))
		if err != nil {
			return nil, fmt.Errorf("encode row %d: %w", i, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// ReadJSON decodes JSONL produced by WriteJSON.
func ReadJSON(data []byte, schema *Schema) (*Table, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema is required")
	}

	table := NewTable(schema)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	line := 0
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		var generic map[string]any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return nil, fmt.Errorf("decode json line %d: %w", line, err)
		}
		row := Row{}
		for _, f := range schema.Fields {
			row[f.Name] = coerceValue(generic[f.Name], f.Kind)
		}
		table.Append(row)
		line++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan json lines: %w", err)
	}
	return table, nil
}

// Encode serializes a table in the named format ("parquet", "csv", "json").
func Encode(t *Table, format string) ([]byte, error) {
	switch format {
	case "parquet":
		return WriteParquet(t)
	case "csv":
		return WriteCSV(t)
	case "json":
		return WriteJSON(t)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// Decode deserializes a table in the named format.
func Decode(data []byte, schema *Schema, format string) (*Table, error) {
	switch format {
	case "parquet":
		return ReadParquet(data, schema)
	case "csv":
		return ReadCSV(data, schema)
	case "json":
		return ReadJSON(data, schema)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// Ext returns the file extension for a format.
func Ext(format string) string {
	return "." + format
}
