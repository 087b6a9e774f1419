// Package parquet serializes derived tables to the columnar format written
// to the processed bucket, and reads them back for warehouse loading. The
// schema is inferred from the table's data; the declared key column is
// carried in the file's schema metadata so a round trip reproduces it.
package parquet

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"github.com/pkg/errors"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/table"
)

const keyColumnMetadataKey = "key_column"

// Write serializes the table to Parquet bytes.
func Write(t table.Table) ([]byte, error) {
	fields := make([]arrow.Field, len(t.Columns))
	for i, col := range t.Columns {
		dt, err := inferColumnType(t, col)
		if err != nil {
			return nil, errors.Wrapf(err, "table %q", t.Name)
		}
		fields[i] = arrow.Field{Name: col, Type: dt, Nullable: true}
	}
	md := arrow.NewMetadata([]string{keyColumnMetadataKey}, []string{t.KeyColumn})
	schema := arrow.NewSchema(fields, &md)

	alloc := memory.NewGoAllocator()
	builder := array.NewRecordBuilder(alloc, schema)
	defer builder.Release()

	for rowIdx, row := range t.Rows {
		for i, col := range t.Columns {
			if err := appendValue(builder.Field(i), row[col]); err != nil {
				return nil, errors.Wrapf(err, "table %q row %d column %q", t.Name, rowIdx, col)
			}
		}
	}
	rec := builder.NewRecord()
	defer rec.Release()

	buf := bytes.Buffer{}
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	w, err := pqarrow.NewFileWriter(schema, &buf, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return nil, errors.Wrap(err, "unable to create parquet writer")
	}
	if err := w.Write(rec); err != nil {
		_ = w.Close()
		return nil, errors.Wrapf(err, "unable to write table %q", t.Name)
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrapf(err, "unable to finalise table %q", t.Name)
	}
	return buf.Bytes(), nil
}

// inferColumnType scans the column's values and picks the narrowest arrow
// type that holds them all. Integers are promoted to float64 when the column
// mixes both; any other mixture is malformed data and fails the table.
func inferColumnType(t table.Table, col string) (arrow.DataType, error) {
	var sawInt, sawFloat, sawString, sawBool bool
	for _, row := range t.Rows {
		switch row[col].(type) {
		case nil:
		case int64:
			sawInt = true
		case float64:
			sawFloat = true
		case string:
			sawString = true
		case bool:
			sawBool = true
		default:
			return nil, fmt.Errorf("column %q holds unsupported value type %T", col, row[col])
		}
	}
	switch {
	case sawString && !sawInt && !sawFloat && !sawBool:
		return arrow.BinaryTypes.String, nil
	case sawBool && !sawInt && !sawFloat && !sawString:
		return arrow.FixedWidthTypes.Boolean, nil
	case sawFloat && !sawString && !sawBool:
		return arrow.PrimitiveTypes.Float64, nil
	case sawInt && !sawString && !sawBool:
		return arrow.PrimitiveTypes.Int64, nil
	case !sawInt && !sawFloat && !sawString && !sawBool:
		// A column of nulls still needs a physical type.
		return arrow.BinaryTypes.String, nil
	default:
		return nil, fmt.Errorf("column %q mixes incompatible value types", col)
	}
}

func appendValue(b array.Builder, v interface{}) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	switch fb := b.(type) {
	case *array.StringBuilder:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		fb.Append(s)
	case *array.Int64Builder:
		i, ok := v.(int64)
		if !ok {
			return fmt.Errorf("expected int64, got %T", v)
		}
		fb.Append(i)
	case *array.Float64Builder:
		switch n := v.(type) {
		case float64:
			fb.Append(n)
		case int64:
			fb.Append(float64(n))
		default:
			return fmt.Errorf("expected numeric, got %T", v)
		}
	case *array.BooleanBuilder:
		bv, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		fb.Append(bv)
	default:
		return fmt.Errorf("unsupported builder type %T", b)
	}
	return nil
}
