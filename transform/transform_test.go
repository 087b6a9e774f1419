package transform

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/aws/s3"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/logger"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/parquet"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/store"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/table"
)

const testRunToken = "20230105_101112"

func testLogger() logger.Logger {
	return logger.NewLogger("transform-test", "error", false)
}

// seedRun writes a full, consistent set of source snapshots for one run.
func seedRun(t *testing.T, ingestion *store.Store) {
	t.Helper()
	sources := []table.Table{
		salesOrderFixture(
			orderRow(nil),
			orderRow(table.Row{
				"order_id":             int64(2),
				"staff_id":             int64(11),
				"created_at":           "2023-01-06T09:15:00.000",
				"last_updated":         "2023-01-06T09:15:00.000",
				"agreed_payment_date":  "2023-01-12",
				"agreed_delivery_date": "2023-01-08",
			}),
		),
		designTableFixture(),
		addressFixture(),
		counterpartyFixture(
			table.Row{"counterparty_id": int64(20), "counterparty_legal_name": "Fahey and Sons", "legal_address_id": int64(15), "created_at": "x"},
		),
		staffFixture(
			table.Row{"staff_id": int64(10), "first_name": "Jeremie", "last_name": "Franey", "department_id": int64(2), "email_address": "jeremie.franey@terrifictotes.com", "created_at": "x"},
			table.Row{"staff_id": int64(11), "first_name": "Deron", "last_name": "Beier", "department_id": int64(2), "email_address": "deron.beier@terrifictotes.com", "created_at": "x"},
		),
		departmentFixture(),
		currencyTableFixture(),
	}
	for _, src := range sources {
		_, err := ingestion.PutSnapshot(src, testRunToken)
		require.NoError(t, err)
	}
}

func designTableFixture() table.Table {
	d := table.New("design", "design_id", []string{"design_id", "design_name", "file_location", "file_name", "created_at"})
	d.AppendRow(table.Row{"design_id": int64(5), "design_name": "Wooden", "file_location": "/usr", "file_name": "wooden-20220717.json", "created_at": "x"})
	return d
}

func currencyTableFixture() table.Table {
	c := table.New("currency", "currency_id", []string{"currency_id", "currency_code", "created_at"})
	c.AppendRow(table.Row{"currency_id": int64(1), "currency_code": "GBP", "created_at": "x"})
	return c
}

func TestRunDerivesEveryWarehouseTable(t *testing.T) {
	ingestionClient := s3.NewMemoryClient()
	processedClient := s3.NewMemoryClient()
	ingestion := store.New(ingestionClient)
	processed := store.New(processedClient)
	seedRun(t, ingestion)

	result := Run(testLogger(), ingestion, processed, testRunToken)

	require.Len(t, result.Outcomes, 7)
	assert.True(t, result.Ok())
	assert.Empty(t, result.FailedStatusCodes())
	for _, o := range result.Outcomes {
		assert.Equal(t, http.StatusOK, o.StatusCode, o.Table)
		assert.NotEmpty(t, o.Key, o.Table)
	}

	// The written objects round-trip through the columnar reader.
	dateData, err := processed.GetColumnar("dim_date", testRunToken)
	require.NoError(t, err)
	dimDate, err := parquet.Read("dim_date", dateData)
	require.NoError(t, err)
	// Two orders spanning 2023-01-05/06 plus payment dates 10 and 12 and
	// delivery dates 06 and 08.
	assert.Equal(t, []string{"2023-01-05", "2023-01-06", "2023-01-08", "2023-01-10", "2023-01-12"}, dimDate.KeyStrings())

	factData, err := processed.GetColumnar("fact_sales_order", testRunToken)
	require.NoError(t, err)
	fact, err := parquet.Read("fact_sales_order", factData)
	require.NoError(t, err)
	require.Len(t, fact.Rows, 2)
	assert.Equal(t, int64(1), fact.Rows[0]["sales_record_id"])
	assert.Equal(t, int64(11), fact.Rows[1]["sales_staff_id"])
}

func TestRunRecordsWriteFailureAndContinues(t *testing.T) {
	ingestion := store.New(s3.NewMemoryClient())
	processedClient := s3.NewMemoryClient()
	processedClient.FailKeys = map[string]error{
		store.Key("dim_currency", testRunToken, ".parquet"): errors.New("simulated write refusal"),
	}
	processed := store.New(processedClient)
	seedRun(t, ingestion)

	result := Run(testLogger(), ingestion, processed, testRunToken)

	require.Len(t, result.Outcomes, 7)
	assert.False(t, result.Ok())
	assert.Equal(t, []int{http.StatusInternalServerError}, result.FailedStatusCodes())
	for _, o := range result.Outcomes {
		if o.Table == "dim_currency" {
			assert.Equal(t, http.StatusInternalServerError, o.StatusCode)
			assert.Contains(t, o.Err, "simulated write refusal")
			continue
		}
		assert.Equal(t, http.StatusOK, o.StatusCode, "failure of one table does not stop the others: %s", o.Table)
	}
}

func TestRunMissingSnapshotFailsOnlyDependents(t *testing.T) {
	ingestionClient := s3.NewMemoryClient()
	ingestion := store.New(ingestionClient)
	processed := store.New(s3.NewMemoryClient())
	seedRun(t, ingestion)
	require.NoError(t, ingestionClient.Delete(store.Key("currency", testRunToken, ".json")))

	result := Run(testLogger(), ingestion, processed, testRunToken)

	byTable := make(map[string]WriteOutcome)
	for _, o := range result.Outcomes {
		byTable[o.Table] = o
	}
	assert.Equal(t, http.StatusInternalServerError, byTable["dim_currency"].StatusCode)
	assert.Equal(t, http.StatusOK, byTable["dim_date"].StatusCode)
	assert.Equal(t, http.StatusOK, byTable["fact_sales_order"].StatusCode)
	assert.Equal(t, http.StatusOK, byTable["dim_staff"].StatusCode)
}

func TestRunMissingSalesOrderFailsDateAndFact(t *testing.T) {
	ingestionClient := s3.NewMemoryClient()
	ingestion := store.New(ingestionClient)
	processed := store.New(s3.NewMemoryClient())
	seedRun(t, ingestion)
	require.NoError(t, ingestionClient.Delete(store.Key("sales_order", testRunToken, ".json")))

	result := Run(testLogger(), ingestion, processed, testRunToken)

	byTable := make(map[string]WriteOutcome)
	for _, o := range result.Outcomes {
		byTable[o.Table] = o
	}
	assert.Equal(t, http.StatusInternalServerError, byTable["dim_date"].StatusCode)
	assert.Equal(t, http.StatusInternalServerError, byTable["fact_sales_order"].StatusCode)
	assert.Equal(t, http.StatusOK, byTable["dim_design"].StatusCode)
	assert.Equal(t, http.StatusOK, byTable["dim_counterparty"].StatusCode)
}
