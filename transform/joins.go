package transform

import (
	"fmt"

	om "github.com/cevaris/ordered_map"
	"github.com/pkg/errors"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/table"
)

// DimCounterparty inner-joins counterparty to address on
// legal_address_id = address_id and re-prefixes the joined address columns
// as counterparty_legal_* fields. A counterparty whose address id has no
// match is dropped; one address may back many counterparties without
// duplicating counterparty rows.
func DimCounterparty(counterparty, address table.Table) (table.Table, error) {
	cp, err := counterparty.Project("counterparty", "counterparty_id",
		table.Identity("counterparty_id", "counterparty_legal_name", "legal_address_id"))
	if err != nil {
		return table.Table{}, err
	}
	addressCols := om.NewOrderedMap()
	addressCols.Set("address_line_1", "counterparty_legal_address_line_1")
	addressCols.Set("address_line_2", "counterparty_legal_address_line_2")
	addressCols.Set("district", "counterparty_legal_district")
	addressCols.Set("city", "counterparty_legal_city")
	addressCols.Set("postal_code", "counterparty_legal_postal_code")
	addressCols.Set("country", "counterparty_legal_country")
	addressCols.Set("phone", "counterparty_legal_phone_number")

	joined, err := innerJoin(joinSpec{
		name:      "dim_counterparty",
		keyColumn: "counterparty_id",
		left:      cp,
		leftKey:   "legal_address_id",
		leftCols:  table.Identity("counterparty_id", "counterparty_legal_name"),
		right:     address,
		rightKey:  "address_id",
		rightCols: addressCols,
	})
	if err != nil {
		return table.Table{}, err
	}
	return joined.Table, nil
}

// DimStaff inner-joins staff to department on department_id and projects to
// staff identity plus the department's name and office location string.
// Staff with an unresolved department are dropped.
func DimStaff(staff, department table.Table) (table.Table, error) {
	st, err := staff.Project("staff", "staff_id",
		table.Identity("staff_id", "first_name", "last_name", "department_id", "email_address"))
	if err != nil {
		return table.Table{}, err
	}
	joined, err := innerJoin(joinSpec{
		name:      "dim_staff",
		keyColumn: "staff_id",
		left:      st,
		leftKey:   "department_id",
		leftCols:  table.Identity("staff_id", "first_name", "last_name"),
		right:     department,
		rightKey:  "department_id",
		rightCols: table.Identity("department_name", "location"),
	})
	if err != nil {
		return table.Table{}, err
	}
	// email_address goes after the department columns in the output contract.
	return joined.appendColumnFrom(st, "email_address")
}

type joinSpec struct {
	name      string
	keyColumn string
	left      table.Table
	leftKey   string
	leftCols  *om.OrderedMap
	right     table.Table
	rightKey  string
	rightCols *om.OrderedMap
}

// joined wraps the join output so callers can stitch trailing columns back
// on in declared order. Row order matches the left table's row order minus
// dropped rows, so positional lookups against the left input stay valid via
// the recorded source indexes.
type joined struct {
	table.Table
	leftIndexes []int
}

// innerJoin builds one output row per left row whose key resolves in the
// right table. Unresolved keys are silently dropped per the inner-join
// contract; a missing column is malformed input and fails the derivation.
func innerJoin(spec joinSpec) (joined, error) {
	for _, c := range []struct {
		t   table.Table
		col string
	}{{spec.left, spec.leftKey}, {spec.right, spec.rightKey}} {
		if !c.t.HasColumn(c.col) {
			return joined{}, errors.Errorf("table %q is missing join column %q", c.t.Name, c.col)
		}
	}
	rightProjected, err := spec.right.Project("right", spec.rightKey, spec.rightCols)
	if err != nil {
		return joined{}, err
	}
	// Index the right side once; many left rows may share one right row.
	rightIndex := make(map[string]table.Row, len(spec.right.Rows))
	for i, r := range spec.right.Rows {
		rightIndex[joinKey(r[spec.rightKey])] = rightProjected.Rows[i]
	}
	leftProjected, err := spec.left.Project("left", spec.keyColumn, spec.leftCols)
	if err != nil {
		return joined{}, err
	}

	cols := append(append([]string(nil), leftProjected.Columns...), rightProjected.Columns...)
	out := joined{Table: table.New(spec.name, spec.keyColumn, cols)}
	for i, l := range spec.left.Rows {
		match, ok := rightIndex[joinKey(l[spec.leftKey])]
		if !ok { // unresolved foreign key: drop the row, never emit nulls.
			continue
		}
		row := make(table.Row, len(cols))
		for k, v := range leftProjected.Rows[i] {
			row[k] = v
		}
		for k, v := range match {
			row[k] = v
		}
		out.AppendRow(row)
		out.leftIndexes = append(out.leftIndexes, i)
	}
	return out, nil
}

func (j joined) appendColumnFrom(src table.Table, column string) (table.Table, error) {
	if !src.HasColumn(column) {
		return table.Table{}, errors.Errorf("table %q is missing expected column %q", src.Name, column)
	}
	out := j.Table
	out.Columns = append(out.Columns, column)
	for outIdx, srcIdx := range j.leftIndexes {
		out.Rows[outIdx][column] = src.Rows[srcIdx][column]
	}
	return out, nil
}

// joinKey normalises a join value so int64 and string forms of the same id
// compare equal regardless of how the snapshot decoder typed them.
func joinKey(v interface{}) string {
	return fmt.Sprintf("%v", v)
}
