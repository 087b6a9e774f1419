package parquet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/table"
)

func TestRoundTripPreservesNamesRowsAndValues(t *testing.T) {
	src := table.New("dim_currency", "currency_id", []string{"currency_id", "currency_code", "currency_name", "rate"})
	src.AppendRow(table.Row{"currency_id": int64(1), "currency_code": "GBP", "currency_name": "Great British Pounds", "rate": 1.0})
	src.AppendRow(table.Row{"currency_id": int64(2), "currency_code": "XYZ", "currency_name": nil, "rate": 0.75})

	data, err := Write(src)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	got, err := Read("dim_currency", data)
	require.NoError(t, err)
	assert.Equal(t, src.Columns, got.Columns)
	assert.Equal(t, "currency_id", got.KeyColumn)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, int64(1), got.Rows[0]["currency_id"])
	assert.Equal(t, "GBP", got.Rows[0]["currency_code"])
	assert.Equal(t, 1.0, got.Rows[0]["rate"])
	assert.Nil(t, got.Rows[1]["currency_name"])
}

func TestWritePromotesMixedNumericColumn(t *testing.T) {
	src := table.New("t", "id", []string{"id", "unit_price"})
	src.AppendRow(table.Row{"id": int64(1), "unit_price": int64(2)})
	src.AppendRow(table.Row{"id": int64(2), "unit_price": 2.5})

	data, err := Write(src)
	require.NoError(t, err)
	got, err := Read("t", data)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Rows[0]["unit_price"])
	assert.Equal(t, 2.5, got.Rows[1]["unit_price"])
}

func TestWriteRejectsIncompatibleColumn(t *testing.T) {
	src := table.New("t", "id", []string{"id"})
	src.AppendRow(table.Row{"id": int64(1)})
	src.AppendRow(table.Row{"id": "one"})
	_, err := Write(src)
	assert.Error(t, err)
}

func TestWriteEmptyTable(t *testing.T) {
	src := table.New("dim_date", "date_id", []string{"date_id", "year"})
	data, err := Write(src)
	require.NoError(t, err)
	got, err := Read("dim_date", data)
	require.NoError(t, err)
	assert.Len(t, got.Rows, 0)
	assert.Equal(t, []string{"date_id", "year"}, got.Columns)
}
