package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/table"
)

func TestDimDesignIsAPureProjection(t *testing.T) {
	src := table.New("design", "design_id", []string{"design_id", "design_name", "file_location", "file_name", "created_at", "last_updated"})
	src.AppendRow(table.Row{
		"design_id": int64(8), "design_name": "Wooden", "file_location": "/usr",
		"file_name": "wooden-20220717.json", "created_at": "2022-07-17T10:00:00.000", "last_updated": "2022-07-17T10:00:00.000",
	})
	got, err := DimDesign(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"design_id", "design_name", "file_location", "file_name"}, got.Columns)
	assert.Equal(t, "design_id", got.KeyColumn)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "Wooden", got.Rows[0]["design_name"])
	assert.False(t, got.HasColumn("created_at"))
}

func TestDimLocationRenamesKey(t *testing.T) {
	src := table.New("address", "address_id", []string{
		"address_id", "address_line_1", "address_line_2", "district", "city", "postal_code", "country", "phone", "created_at",
	})
	src.AppendRow(table.Row{
		"address_id": int64(15), "address_line_1": "6826 Herzog Via", "address_line_2": nil,
		"district": "Avon", "city": "New Patienceburgh", "postal_code": "28441",
		"country": "Turkey", "phone": "1803 637401", "created_at": "x",
	})
	got, err := DimLocation(src)
	require.NoError(t, err)
	assert.Equal(t, "location_id", got.KeyColumn)
	assert.Equal(t, int64(15), got.Rows[0]["location_id"])
	assert.False(t, got.HasColumn("address_id"))
	assert.Nil(t, got.Rows[0]["address_line_2"])
}

func TestDimCurrencyLookup(t *testing.T) {
	src := table.New("currency", "currency_id", []string{"currency_id", "currency_code", "created_at"})
	src.AppendRow(table.Row{"currency_id": int64(1), "currency_code": "GBP", "created_at": "x"})
	src.AppendRow(table.Row{"currency_id": int64(2), "currency_code": "USD", "created_at": "x"})
	src.AppendRow(table.Row{"currency_id": int64(3), "currency_code": "EUR", "created_at": "x"})
	src.AppendRow(table.Row{"currency_id": int64(4), "currency_code": "XYZ", "created_at": "x"})

	got, err := DimCurrency(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"currency_id", "currency_code", "currency_name"}, got.Columns)
	require.Len(t, got.Rows, 4, "unknown codes keep their row")
	assert.Equal(t, "Great British Pounds", got.Rows[0]["currency_name"])
	assert.Equal(t, "United States Dollars", got.Rows[1]["currency_name"])
	assert.Equal(t, "Euro", got.Rows[2]["currency_name"])
	assert.Nil(t, got.Rows[3]["currency_name"], "unrecognised code yields a null name, not a dropped row")
}

func TestDimCurrencyMissingColumnFails(t *testing.T) {
	src := table.New("currency", "currency_id", []string{"currency_id"})
	src.AppendRow(table.Row{"currency_id": int64(1)})
	_, err := DimCurrency(src)
	assert.Error(t, err)
}
