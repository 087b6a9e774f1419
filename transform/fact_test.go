package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/table"
)

func TestFactSalesOrderShape(t *testing.T) {
	src := salesOrderFixture(orderRow(nil))
	got, err := FactSalesOrder(src)
	require.NoError(t, err)
	assert.Equal(t, factColumns, got.Columns)
	assert.Equal(t, "sales_record_id", got.KeyColumn)
	require.Len(t, got.Rows, 1)
	row := got.Rows[0]
	assert.Equal(t, int64(1), row["sales_order_id"], "order_id is carried through as sales_order_id")
	assert.Equal(t, int64(10), row["sales_staff_id"], "staff_id is renamed sales_staff_id")
	assert.Equal(t, "2023-01-05", row["created_date"])
	assert.Equal(t, "10:00:00.000", row["created_time"])
	assert.Equal(t, 2.5, row["unit_price"])
	assert.False(t, got.HasColumn("staff_id"))
	assert.False(t, got.HasColumn("created_at"))
}

func TestFactSalesOrderSurrogateIsRowOrder(t *testing.T) {
	src := salesOrderFixture(
		orderRow(table.Row{"order_id": int64(42)}),
		orderRow(table.Row{"order_id": int64(7)}),
		orderRow(table.Row{"order_id": int64(9001)}),
	)
	got, err := FactSalesOrder(src)
	require.NoError(t, err)
	require.Len(t, got.Rows, 3)
	for i, row := range got.Rows {
		assert.Equal(t, int64(i+1), row["sales_record_id"], "surrogate ids are contiguous from 1 in snapshot order")
	}
	assert.Equal(t, int64(42), got.Rows[0]["sales_order_id"])
	assert.Equal(t, int64(9001), got.Rows[2]["sales_order_id"])
}

func TestFactSalesOrderTruncatesToMilliseconds(t *testing.T) {
	src := salesOrderFixture(orderRow(table.Row{
		"created_at":   "2023-01-05T12:34:56.789999",
		"last_updated": "2023-01-05T12:34:56.789000",
	}))
	got, err := FactSalesOrder(src)
	require.NoError(t, err)
	assert.Equal(t, "12:34:56.789", got.Rows[0]["created_time"], "sub-millisecond digits are truncated, not rounded")
	assert.Equal(t, "12:34:56.789", got.Rows[0]["last_updated_time"])
}

func TestFactSalesOrderAcceptsExistingSalesOrderID(t *testing.T) {
	src := table.New("sales_order", "sales_order_id", []string{
		"sales_order_id", "staff_id", "counterparty_id", "currency_id", "design_id",
		"units_sold", "unit_price", "created_at", "last_updated",
		"agreed_payment_date", "agreed_delivery_date", "agreed_delivery_location_id",
	})
	src.AppendRow(orderRowRenamed())
	got, err := FactSalesOrder(src)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Rows[0]["sales_order_id"])
}

func orderRowRenamed() table.Row {
	r := orderRow(nil)
	r["sales_order_id"] = int64(5)
	delete(r, "order_id")
	return r
}

func TestFactSalesOrderMissingColumnFails(t *testing.T) {
	src := table.New("sales_order", "order_id", []string{"order_id", "created_at", "last_updated"})
	src.AppendRow(table.Row{"order_id": int64(1), "created_at": "2023-01-05T10:00:00.000", "last_updated": "2023-01-05T10:00:00.000"})
	_, err := FactSalesOrder(src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staff_id")
}

func TestFactSalesOrderBadTimestampFails(t *testing.T) {
	src := salesOrderFixture(orderRow(table.Row{"last_updated": "yesterday-ish"}))
	_, err := FactSalesOrder(src)
	assert.Error(t, err)
}
