package load

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"github.com/pkg/errors"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/logger"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/rdbms"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/table"
)

// Warehouse is what the load stage needs from the target database.
type Warehouse interface {
	// Clear deletes all rows of the named tables, in the order given.
	Clear(ctx context.Context, tableNames []string) error
	// Insert writes every row of one derived table inside one transaction.
	Insert(ctx context.Context, t table.Table) error
	Close() error
}

// SQLWarehouse is the Postgres-backed Warehouse.
type SQLWarehouse struct {
	log logger.Logger
	db  *sql.DB
}

// ConnectWarehouse opens and pings the warehouse described by the connection
// details.
func ConnectWarehouse(ctx context.Context, log logger.Logger, details rdbms.ConnectionDetails) (*SQLWarehouse, error) {
	dsn, err := details.DSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open warehouse connection")
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "unable to reach warehouse %v", details)
	}
	log.Debug("connected to warehouse ", details.String())
	return &SQLWarehouse{log: log, db: db}, nil
}

func (w *SQLWarehouse) Close() error {
	return w.db.Close()
}

// Clear deletes in the caller's order inside one transaction, so the
// warehouse is never observed half-cleared.
func (w *SQLWarehouse) Clear(ctx context.Context, tableNames []string) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "unable to begin cleanup transaction")
	}
	for _, name := range tableNames {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("delete from %s", quoteIdentifier(name))); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "unable to clear warehouse table %q", name)
		}
		w.log.Debug("cleared warehouse table ", name)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "unable to commit cleanup transaction")
	}
	return nil
}

// Insert writes the table's rows in column order inside one transaction.
func (w *SQLWarehouse) Insert(ctx context.Context, t table.Table) error {
	if len(t.Columns) == 0 {
		return errors.Errorf("table %q has no columns", t.Name)
	}
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "unable to begin transaction for table %q", t.Name)
	}
	stmt, err := tx.PrepareContext(ctx, insertStatement(t))
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrapf(err, "unable to prepare insert for table %q", t.Name)
	}
	for i, row := range t.Rows {
		args := make([]interface{}, len(t.Columns))
		for idx, col := range t.Columns {
			args[idx] = row[col]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return errors.Wrapf(err, "unable to insert row %d into table %q", i, t.Name)
		}
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return errors.Wrapf(err, "error closing insert statement for table %q", t.Name)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "unable to commit inserts for table %q", t.Name)
	}
	w.log.Info("loaded ", len(t.Rows), " rows into ", t.Name)
	return nil
}

// insertStatement builds the parameterized insert for one derived table.
func insertStatement(t table.Table) string {
	cols := make([]string, len(t.Columns))
	params := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quoteIdentifier(c)
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("insert into %s (%s) values (%s)",
		quoteIdentifier(t.Name), strings.Join(cols, ", "), strings.Join(params, ", "))
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
