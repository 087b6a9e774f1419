// Package rdbms connects the extract stage to the operational Postgres
// database. Connections are opened through database/sql with the pgx driver;
// the rest of the pipeline only sees the Source interface so tests can
// substitute a fake.
package rdbms

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"github.com/pkg/errors"
	"github.com/xo/dburl"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/aws/secrets"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/logger"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/table"
)

// Source is what the extract stage needs from a database.
type Source interface {
	ListTables(ctx context.Context) ([]string, error)
	FetchTable(ctx context.Context, tableName string) (table.Table, error)
	Close() error
}

// ConnectionDetails holds either a ready-made DSN or the credential record
// retrieved from the secret store. The DSN wins when both are set.
type ConnectionDetails struct {
	Dsn         string `errorTxt:"data source name i.e. connect string"`
	Credentials secrets.Credentials
}

// DSN returns the connect string, building one from the credential record
// when no explicit DSN was supplied.
func (c ConnectionDetails) DSN() (string, error) {
	if c.Dsn != "" {
		if _, err := dburl.Parse(c.Dsn); err != nil {
			return "", errors.Wrapf(err, "DSN could not be parsed")
		}
		return c.Dsn, nil
	}
	if c.Credentials.Host == "" || c.Credentials.Database == "" {
		return "", errors.New("connection details need a DSN or a host and database name")
	}
	port := c.Credentials.Port
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Credentials.Username, c.Credentials.Password),
		Host:   fmt.Sprintf("%s:%s", c.Credentials.Host, port),
		Path:   "/" + c.Credentials.Database,
	}
	return u.String(), nil
}

// String returns the DSN with a redacted password.
func (c ConnectionDetails) String() string {
	dsn, err := c.DSN()
	if err != nil {
		return fmt.Sprintf("<invalid connection details: %v>", err)
	}
	u, err := dburl.Parse(dsn)
	if err != nil {
		return "<unparseable DSN>"
	}
	return u.Redacted()
}

// Database is the Postgres-backed Source.
type Database struct {
	log logger.Logger
	db  *sql.DB
}

// Connect opens and pings the database described by the connection details.
func Connect(ctx context.Context, log logger.Logger, details ConnectionDetails) (*Database, error) {
	dsn, err := details.DSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open database connection")
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "unable to reach database %v", details)
	}
	log.Debug("connected to source database ", details.String())
	return &Database{log: log, db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// ListTables returns the user tables of the public schema, excluding the
// migration bookkeeping tables some deployments carry.
func (d *Database) ListTables(ctx context.Context) ([]string, error) {
	const q = `select table_name from information_schema.tables
		where table_schema = 'public' and table_type = 'BASE TABLE'
		order by table_name`
	rows, err := d.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "unable to list tables")
	}
	defer func() {
		_ = rows.Close()
	}()
	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "error scanning table name")
		}
		if isInternalTable(name) {
			continue
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// isInternalTable filters schema-management tables out of the snapshot set.
func isInternalTable(name string) bool {
	switch name {
	case "_prisma_migrations", "schema_migrations":
		return true
	}
	return false
}

// FetchTable reads every row of one table, scanning values dynamically the
// way the column types dictate.
func (d *Database) FetchTable(ctx context.Context, tableName string) (table.Table, error) {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("select * from %s", quoteIdentifier(tableName)))
	if err != nil {
		return table.Table{}, errors.Wrapf(err, "error querying table %q", tableName)
	}
	defer func() {
		_ = rows.Close()
	}()
	cols, err := rows.Columns()
	if err != nil {
		return table.Table{}, errors.Wrapf(err, "error fetching columns of table %q", tableName)
	}
	t := table.New(tableName, keyColumnFor(tableName), cols)
	scanPtrs := make([]interface{}, len(cols))
	scanVals := make([]interface{}, len(cols))
	for idx := range cols {
		scanPtrs[idx] = &scanVals[idx]
	}
	for rows.Next() {
		select { // quit if asked to, else continue...
		case <-ctx.Done():
			return table.Table{}, ctx.Err()
		default:
		}
		if err := rows.Scan(scanPtrs...); err != nil {
			return table.Table{}, errors.Wrapf(err, "error scanning row of table %q", tableName)
		}
		row := make(table.Row, len(cols))
		for idx, col := range cols {
			row[col] = normalizeValue(scanVals[idx])
		}
		t.AppendRow(row)
	}
	if err := rows.Err(); err != nil {
		return table.Table{}, errors.Wrapf(err, "error iterating table %q", tableName)
	}
	d.log.Debug("fetched ", len(t.Rows), " rows from table ", tableName)
	return t, nil
}

// keyColumnFor returns the primary key column for the known source tables.
// Unknown tables fall back to the <name>_id convention the source schema uses.
func keyColumnFor(tableName string) string {
	switch tableName {
	case "sales_order":
		return "order_id"
	case "address":
		return "address_id"
	}
	return tableName + "_id"
}

// quoteIdentifier quotes the table name interpolated into select statements.
func quoteIdentifier(name string) string {
	out := make([]rune, 0, len(name)+2)
	out = append(out, '"')
	for _, r := range name {
		if r == '"' {
			out = append(out, '"')
		}
		out = append(out, r)
	}
	return string(append(out, '"'))
}

// normalizeValue maps driver scan values onto the small set of types the
// snapshot encoder understands.
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case int64:
		return val
	case float32:
		return float64(val)
	case time.Time:
		return val
	default:
		return val
	}
}
