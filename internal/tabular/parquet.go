package tabular

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go-source/buffer"
	writerfile "github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

const parquetParallelism = 4

// WriteParquet encodes the table as a single SNAPPY-compressed Parquet blob.
// List columns are written as Parquet LIST groups so the round-trip preserves
// their element structure.
func WriteParquet(t *Table) ([]byte, error) {
	if t == nil || t.Schema == nil {
		return nil, fmt.Errorf("table schema is required")
	}

	buf := &bytes.Buffer{}
	pfw := writerfile.NewWriterFile(buf)
	pw, err := writer.NewJSONWriter(parquetSchema(t.Schema), pfw, parquetParallelism)
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, row := range t.Rows {
		line, err := json.Marshal(projectRow(row, t.Schema))
		if err != nil {
			_ = pw.WriteStop()
			return nil, fmt.Errorf("encode row %d: %w", i, err)
		}
		if err := pw.Write(string(line)); err != nil {
			_ = pw.WriteStop()
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalize parquet: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadParquet decodes a Parquet blob produced by WriteParquet back into a
// table with the given schema.
func ReadParquet(data []byte, schema *Schema) (*Table, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema is required")
	}

	pf := buffer.NewBufferFileFromBytes(data)
	pr, err := reader.NewParquetReader(pf, nil, parquetParallelism)
	if err != nil {
		return nil, fmt.Errorf("create parquet reader: %w", err)
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	raw, err := pr.ReadByNumber(num)
	if err != nil {
		return nil, fmt.Errorf("read parquet rows: %w", err)
	}

	// ReadByNumber yields reflect-built structs whose field names are the
	// capitalized column names; round-trip through JSON to get maps back.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("decode parquet rows: %w", err)
	}
	var generic []map[string]any
	if err := json.Unmarshal(encoded, &generic); err != nil {
		return nil, fmt.Errorf("decode parquet rows: %w", err)
	}

	table := NewTable(schema)
	for _, g := range generic {
		row := Row{}
		for _, f := range schema.Fields {
			row[f.Name] = coerceValue(lookupFold(g, f.Name), f.Kind)
		}
		table.Append(row)
	}
	return table, nil
}

// parquetSchema builds the parquet-go JSON schema for a table schema.
func parquetSchema(s *Schema) string {
	fields := make([]map[string]any, 0, len(s.Fields))
	for _, f := range s.Fields {
		switch f.Kind {
		case KindStringList:
			fields = append(fields, map[string]any{
				"Tag": fmt.Sprintf("name=%s, type=LIST, repetitiontype=OPTIONAL", f.Name),
				"Fields": []map[string]any{
					{"Tag": "name=element, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=REQUIRED"},
				},
			})
		case KindDouble:
			fields = append(fields, map[string]any{
				"Tag": fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", f.Name),
			})
		default:
			fields = append(fields, map[string]any{
				"Tag": fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", f.Name),
			})
		}
	}
	out := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": fields,
	}
	b, _ := json.Marshal(out)
	return string(b)
}

// projectRow keeps only schema columns so stray keys never reach the writer.
func projectRow(row Row, s *Schema) map[string]any {
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		out[f.Name] = row[f.Name]
	}
	return out
}

// lookupFold finds a key case-insensitively; parquet-go capitalizes the first
// letter of column names on read.
func lookupFold(m map[string]any, name string) any {
	if v, ok := m[name]; ok {
		return v
	}
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return nil
}

func coerceValue(v any, kind string) any {
	if v == nil {
		return nil
	}
	switch kind {
	case KindDouble:
		if f, ok := v.(float64); ok {
			return f
		}
		return nil
	case KindStringList:
		items, ok := v.([]any)
		if !ok {
			return nil
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		if s, ok := v.(string); ok {
			return s
		}
		return nil
	}
}
