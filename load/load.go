// Package load implements the final pipeline stage: it reads one run's
// columnar warehouse tables from the processed bucket and replaces the
// contents of the warehouse with them.
package load

import (
	"context"

	"github.com/pkg/errors"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/constants"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/logger"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/parquet"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/store"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/table"
)

// Result reports one completed load run.
type Result struct {
	RunToken string
	RowCount map[string]int // rows loaded per warehouse table
}

// Runner owns the collaborators of the load stage.
type Runner struct {
	log       logger.Logger
	warehouse Warehouse
	processed *store.Store
}

func New(log logger.Logger, warehouse Warehouse, processed *store.Store) *Runner {
	return &Runner{log: log, warehouse: warehouse, processed: processed}
}

// Run replaces the warehouse contents with the run token's tables. All seven
// columnar objects are read and decoded before any warehouse row is touched,
// so a missing or corrupt object leaves the warehouse unchanged. Cleanup
// deletes the fact table first so its foreign keys never dangle; inserts go
// dimensions first for the same reason.
func (r *Runner) Run(ctx context.Context, runToken string) (Result, error) {
	result := Result{RunToken: runToken, RowCount: make(map[string]int)}
	r.log.Info("starting load run ", runToken)

	tables := make([]table.Table, 0, len(constants.WarehouseTables))
	for _, name := range constants.WarehouseTables {
		data, err := r.processed.GetColumnar(name, runToken)
		if err != nil {
			return result, err
		}
		t, err := parquet.Read(name, data)
		if err != nil {
			return result, errors.Wrapf(err, "unable to decode columnar table %q", name)
		}
		tables = append(tables, t)
	}

	if err := r.warehouse.Clear(ctx, cleanupOrder()); err != nil {
		return result, err
	}
	for _, t := range tables {
		if err := r.warehouse.Insert(ctx, t); err != nil {
			return result, err
		}
		result.RowCount[t.Name] = len(t.Rows)
	}
	r.log.Info("load run ", runToken, " complete")
	return result, nil
}

// cleanupOrder reverses the load order: the fact table goes first so deleting
// dimension rows never violates its foreign keys.
func cleanupOrder() []string {
	names := make([]string, len(constants.WarehouseTables))
	for i, name := range constants.WarehouseTables {
		names[len(names)-1-i] = name
	}
	return names
}
