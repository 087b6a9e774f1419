// Package table holds the in-memory representation of one source snapshot or
// one derived warehouse table. A Table is an immutable-by-convention value:
// each transform builds a fresh Table rather than mutating its inputs.
package table

import (
	"fmt"
	"sort"

	om "github.com/cevaris/ordered_map"
)

// Row is one record keyed by column name. Values are whatever the snapshot
// decoder produced: string, int64, float64, bool or nil for database nulls.
type Row map[string]interface{}

// Table is a named set of rows with an ordered column list and exactly one
// declared primary-key column. Column order defines the serialized column
// order in the columnar output.
type Table struct {
	Name      string
	KeyColumn string
	Columns   []string
	Rows      []Row
}

// New returns an empty Table with the given name, key column and column order.
// The key column must be present in cols.
func New(name, keyColumn string, cols []string) Table {
	return Table{
		Name:      name,
		KeyColumn: keyColumn,
		Columns:   append([]string(nil), cols...),
		Rows:      make([]Row, 0),
	}
}

// AppendRow adds a row to the table. The caller owns the Row and must not
// reuse it afterwards.
func (t *Table) AppendRow(r Row) {
	t.Rows = append(t.Rows, r)
}

// HasColumn reports whether the named column is declared on the table.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Value fetches a named column value from row i.
// It returns an error if the column is not declared on the table.
func (t Table) Value(i int, column string) (interface{}, error) {
	if !t.HasColumn(column) {
		return nil, fmt.Errorf("table %q has no column %q", t.Name, column)
	}
	return t.Rows[i][column], nil
}

// Project builds a new table by selecting and renaming columns of t.
// The mapping is source column -> target column and its order defines the
// output column order. Missing source columns are an error so a malformed
// snapshot fails the derivation rather than producing a partial table.
func (t Table) Project(name, keyColumn string, mapping *om.OrderedMap) (Table, error) {
	cols := make([]string, 0, mapping.Len())
	srcs := make([]string, 0, mapping.Len())
	iter := mapping.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		src := kv.Key.(string)
		tgt := kv.Value.(string)
		if !t.HasColumn(src) {
			return Table{}, fmt.Errorf("table %q is missing expected column %q", t.Name, src)
		}
		srcs = append(srcs, src)
		cols = append(cols, tgt)
	}
	out := New(name, keyColumn, cols)
	for _, r := range t.Rows {
		nr := make(Row, len(cols))
		for i, src := range srcs {
			nr[cols[i]] = r[src]
		}
		out.AppendRow(nr)
	}
	return out, nil
}

// SortByKey orders the rows ascending by the string form of the key column.
// Only used where the output contract requires total ordering (dim_date).
func (t *Table) SortByKey() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return fmt.Sprintf("%v", t.Rows[i][t.KeyColumn]) < fmt.Sprintf("%v", t.Rows[j][t.KeyColumn])
	})
}

// KeyStrings returns the string form of every key value in row order.
func (t Table) KeyStrings() []string {
	keys := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		keys[i] = fmt.Sprintf("%v", r[t.KeyColumn])
	}
	return keys
}

// Identity builds an ordered mapping where each column maps to itself,
// preserving the supplied order. Convenience for straight column subsets.
func Identity(cols ...string) *om.OrderedMap {
	m := om.NewOrderedMap()
	for _, c := range cols {
		m.Set(c, c)
	}
	return m
}
