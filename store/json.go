package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/constants"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/table"
)

// EncodeSnapshot serializes a table as a JSON array of row objects, one
// object per row, fields in the table's column order. Timestamps are written
// in ISO-8601 with millisecond precision, matching what the transform stage
// expects to slice apart.
func EncodeSnapshot(t table.Table) ([]byte, error) {
	buf := bytes.Buffer{}
	buf.WriteByte('[')
	for i, row := range t.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, col := range t.Columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			name, err := json.Marshal(col)
			if err != nil {
				return nil, err
			}
			buf.Write(name)
			buf.WriteByte(':')
			val, err := marshalValue(row[col])
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %q", i, col)
			}
			buf.Write(val)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalValue(v interface{}) ([]byte, error) {
	switch tv := v.(type) {
	case time.Time:
		return json.Marshal(tv.Format(constants.TimeFormatTimestampJSON))
	case nil, string, bool, int, int32, int64, float32, float64, json.Number:
		return json.Marshal(tv)
	case []byte:
		return json.Marshal(string(tv))
	default:
		return json.Marshal(fmt.Sprintf("%v", tv))
	}
}

// DecodeSnapshot parses a JSON snapshot back into a table. Numbers are kept
// as int64 where they are integral, float64 otherwise, so surrogate ids do
// not pick up a floating point representation. The column list is the sorted
// union of the field names observed; downstream projections look columns up
// by name so the order carries no meaning for source snapshots.
func DecodeSnapshot(tableName string, data []byte) (table.Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw []map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return table.Table{}, err
	}
	colSet := make(map[string]struct{})
	rows := make([]table.Row, 0, len(raw))
	for _, obj := range raw {
		row := make(table.Row, len(obj))
		for k, v := range obj {
			colSet[k] = struct{}{}
			row[k] = normalizeValue(v)
		}
		rows = append(rows, row)
	}
	cols := make([]string, 0, len(colSet))
	for c := range colSet {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	t := table.New(tableName, "", cols)
	t.Rows = rows
	return t, nil
}

func normalizeValue(v interface{}) interface{} {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return v
}
