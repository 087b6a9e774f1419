package transform

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/table"
)

// factColumns is the output column order of fact_sales_order.
var factColumns = []string{
	"sales_record_id",
	"sales_order_id",
	"created_date",
	"created_time",
	"last_updated_date",
	"last_updated_time",
	"sales_staff_id",
	"counterparty_id",
	"units_sold",
	"unit_price",
	"currency_id",
	"design_id",
	"agreed_payment_date",
	"agreed_delivery_date",
	"agreed_delivery_location_id",
}

// passthroughColumns are copied from sales_order to the fact table unchanged.
var passthroughColumns = []string{
	"counterparty_id",
	"units_sold",
	"unit_price",
	"currency_id",
	"design_id",
	"agreed_payment_date",
	"agreed_delivery_date",
	"agreed_delivery_location_id",
}

// timestampLayouts are tried in order when parsing created_at/last_updated.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FactSalesOrder derives the fact table from the sales_order snapshot.
// created_at and last_updated are split into a date part and a time part
// with millisecond precision (truncated, not rounded); staff_id is renamed
// sales_staff_id; order_id becomes sales_order_id; sales_record_id is a
// 1-based surrogate assigned in snapshot row order. The surrogate depends on
// input ordering and is not stable across re-runs.
func FactSalesOrder(salesOrder table.Table) (table.Table, error) {
	orderIDColumn := "order_id"
	if !salesOrder.HasColumn(orderIDColumn) && salesOrder.HasColumn("sales_order_id") {
		orderIDColumn = "sales_order_id"
	}
	required := append([]string{orderIDColumn, "staff_id", "created_at", "last_updated"}, passthroughColumns...)
	for _, col := range required {
		if !salesOrder.HasColumn(col) {
			return table.Table{}, errors.Errorf("table %q is missing expected column %q", salesOrder.Name, col)
		}
	}

	out := table.New("fact_sales_order", "sales_record_id", factColumns)
	for i, src := range salesOrder.Rows {
		createdDate, createdTime, err := splitTimestamp(src["created_at"])
		if err != nil {
			return table.Table{}, errors.Wrapf(err, "row %d created_at", i)
		}
		updatedDate, updatedTime, err := splitTimestamp(src["last_updated"])
		if err != nil {
			return table.Table{}, errors.Wrapf(err, "row %d last_updated", i)
		}
		row := table.Row{
			"sales_record_id":   int64(i + 1),
			"sales_order_id":    src[orderIDColumn],
			"created_date":      createdDate,
			"created_time":      createdTime,
			"last_updated_date": updatedDate,
			"last_updated_time": updatedTime,
			"sales_staff_id":    src["staff_id"],
		}
		for _, col := range passthroughColumns {
			row[col] = src[col]
		}
		out.AppendRow(row)
	}
	return out, nil
}

// splitTimestamp parses an ISO-8601 timestamp string and returns its date
// part and its time part formatted HH:MM:SS.mmm. Sub-millisecond digits are
// truncated.
func splitTimestamp(v interface{}) (string, string, error) {
	s, ok := v.(string)
	if !ok {
		return "", "", errors.Errorf("expected a timestamp string, got %v (%T)", v, v)
	}
	t, err := parseTimestamp(s)
	if err != nil {
		return "", "", err
	}
	date := t.Format("2006-01-02")
	clock := fmt.Sprintf("%02d:%02d:%02d.%03d", t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/1e6)
	return date, clock, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unable to parse timestamp %q", s)
}
