package parquet

import (
	"bytes"
	"context"
	"fmt"

	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet/file"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"github.com/pkg/errors"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/table"
)

// Read parses Parquet bytes back into a table. The key column is recovered
// from the schema metadata written by Write.
func Read(tableName string, data []byte) (table.Table, error) {
	rdr, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return table.Table{}, errors.Wrapf(err, "unable to open parquet data for table %q", tableName)
	}
	defer rdr.Close()

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return table.Table{}, errors.Wrapf(err, "unable to read parquet schema for table %q", tableName)
	}
	arrowTable, err := fr.ReadTable(context.Background())
	if err != nil {
		return table.Table{}, errors.Wrapf(err, "unable to read parquet table %q", tableName)
	}
	defer arrowTable.Release()

	schema := arrowTable.Schema()
	keyColumn := ""
	if kv := rdr.MetaData().KeyValueMetadata(); kv != nil {
		if v := kv.FindValue(keyColumnMetadataKey); v != nil {
			keyColumn = *v
		}
	}

	cols := make([]string, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		cols[i] = schema.Field(i).Name
	}
	out := table.New(tableName, keyColumn, cols)

	numRows := int(arrowTable.NumRows())
	rows := make([]table.Row, numRows)
	for i := range rows {
		rows[i] = make(table.Row, len(cols))
	}
	for colIdx, colName := range cols {
		rowIdx := 0
		chunked := arrowTable.Column(colIdx).Data()
		for _, chunk := range chunked.Chunks() {
			for j := 0; j < chunk.Len(); j++ {
				if chunk.IsNull(j) {
					rows[rowIdx][colName] = nil
					rowIdx++
					continue
				}
				switch arr := chunk.(type) {
				case *array.String:
					rows[rowIdx][colName] = arr.Value(j)
				case *array.Int64:
					rows[rowIdx][colName] = arr.Value(j)
				case *array.Float64:
					rows[rowIdx][colName] = arr.Value(j)
				case *array.Boolean:
					rows[rowIdx][colName] = arr.Value(j)
				default:
					return table.Table{}, fmt.Errorf("table %q column %q has unsupported arrow type %T", tableName, colName, chunk)
				}
				rowIdx++
			}
		}
	}
	out.Rows = rows
	return out, nil
}
