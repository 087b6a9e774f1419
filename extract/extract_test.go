package extract

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/aws/s3"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/logger"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/store"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/table"
)

// fakeSource stands in for the operational database.
type fakeSource struct {
	tables   []string
	data     map[string]table.Table
	listErr  error
	fetchErr map[string]error
}

func (f *fakeSource) ListTables(context.Context) ([]string, error) {
	return f.tables, f.listErr
}

func (f *fakeSource) FetchTable(_ context.Context, name string) (table.Table, error) {
	if err := f.fetchErr[name]; err != nil {
		return table.Table{}, err
	}
	return f.data[name], nil
}

func (f *fakeSource) Close() error { return nil }

func testLogger() logger.Logger {
	return logger.NewLogger("extract-test", "error", false)
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2023, 1, 5, 10, 11, 12, 0, time.UTC)
	}
}

func currencyTable(rows int) table.Table {
	t := table.New("currency", "currency_id", []string{"currency_id", "currency_code"})
	for i := 0; i < rows; i++ {
		t.AppendRow(table.Row{"currency_id": int64(i + 1), "currency_code": "GBP"})
	}
	return t
}

func staffTable(rows int) table.Table {
	t := table.New("staff", "staff_id", []string{"staff_id", "first_name"})
	for i := 0; i < rows; i++ {
		t.AppendRow(table.Row{"staff_id": int64(i + 1), "first_name": "Jeremie"})
	}
	return t
}

func TestRunSnapshotsEveryTable(t *testing.T) {
	client := s3.NewMemoryClient()
	src := &fakeSource{
		tables: []string{"currency", "staff"},
		data:   map[string]table.Table{"currency": currencyTable(2), "staff": staffTable(3)},
	}
	r := NewWithClock(testLogger(), src, store.New(client), fixedClock())

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "20230105_101112", result.RunToken)
	assert.Equal(t, []string{
		"data/20230105_101112/currency.json",
		"data/20230105_101112/staff.json",
	}, result.Keys)
	assert.Equal(t, "logs/2023-01-05_10-11-12.log", result.LogKey)
	assert.Empty(t, result.Skipped)

	// The snapshots round-trip through the store reader.
	got, err := store.New(client).ReadTable("staff", result.RunToken)
	require.NoError(t, err)
	assert.Len(t, got.Rows, 3)

	// The manifest names each uploaded key.
	manifest, err := client.Get(result.LogKey)
	require.NoError(t, err)
	assert.Contains(t, string(manifest), "Uploaded: data/20230105_101112/currency.json at 2023-01-05_10-11-12")
	assert.Contains(t, string(manifest), "Uploaded: data/20230105_101112/staff.json at 2023-01-05_10-11-12")
}

func TestRunSkipsEmptyTables(t *testing.T) {
	client := s3.NewMemoryClient()
	src := &fakeSource{
		tables: []string{"currency", "staff"},
		data:   map[string]table.Table{"currency": currencyTable(0), "staff": staffTable(1)},
	}
	r := NewWithClock(testLogger(), src, store.New(client), fixedClock())

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"currency"}, result.Skipped)
	assert.Equal(t, []string{"data/20230105_101112/staff.json"}, result.Keys)

	_, err = client.Get("data/20230105_101112/currency.json")
	assert.ErrorIs(t, err, s3.ErrKeyNotFound, "empty tables leave no snapshot object")
}

func TestRunAllTablesEmptyIsAnError(t *testing.T) {
	src := &fakeSource{
		tables: []string{"currency"},
		data:   map[string]table.Table{"currency": currencyTable(0)},
	}
	r := NewWithClock(testLogger(), src, store.New(s3.NewMemoryClient()), fixedClock())
	_, err := r.Run(context.Background())
	assert.Error(t, err)
}

func TestRunFetchFailureAbortsWithoutManifest(t *testing.T) {
	client := s3.NewMemoryClient()
	src := &fakeSource{
		tables:   []string{"currency", "staff"},
		data:     map[string]table.Table{"currency": currencyTable(1)},
		fetchErr: map[string]error{"staff": errors.New("connection reset")},
	}
	r := NewWithClock(testLogger(), src, store.New(client), fixedClock())

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staff")

	keys, err := client.List("logs/")
	require.NoError(t, err)
	assert.Empty(t, keys, "a failed run writes no manifest, so its token is never consumed")
}

func TestRunListFailure(t *testing.T) {
	src := &fakeSource{listErr: errors.New("database unavailable")}
	r := NewWithClock(testLogger(), src, store.New(s3.NewMemoryClient()), fixedClock())
	_, err := r.Run(context.Background())
	assert.Error(t, err)
}
