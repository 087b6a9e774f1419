// Package transform is the dimensional transformer: it reads one run's
// source snapshots and derives the star-schema tables written back to the
// processed bucket in columnar form.
//
// Failure policy: one table's derivation or write failure is recorded as
// that table's outcome and the remaining tables are still attempted. There
// is no retry and no rollback of writes that already succeeded, so a run
// token with any non-200 outcome must be treated as invalid and re-run from
// the extract stage.
package transform

import (
	"fmt"
	"net/http"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/logger"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/parquet"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/store"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/table"
)

// WriteOutcome reports the result of deriving and writing one warehouse table.
type WriteOutcome struct {
	Table      string `json:"table"`
	Key        string `json:"key,omitempty"`
	StatusCode int    `json:"statusCode"`
	Err        string `json:"error,omitempty"`
}

// Result aggregates the per-table outcomes of one transform run.
type Result struct {
	RunToken string
	Outcomes []WriteOutcome
}

// Ok reports whether every table derived and wrote successfully.
func (r Result) Ok() bool {
	for _, o := range r.Outcomes {
		if o.StatusCode != http.StatusOK {
			return false
		}
	}
	return true
}

// FailedStatusCodes returns the distinct set of non-200 status codes
// observed, in outcome order.
func (r Result) FailedStatusCodes() []int {
	seen := make(map[int]struct{})
	codes := make([]int, 0)
	for _, o := range r.Outcomes {
		if o.StatusCode == http.StatusOK {
			continue
		}
		if _, ok := seen[o.StatusCode]; !ok {
			seen[o.StatusCode] = struct{}{}
			codes = append(codes, o.StatusCode)
		}
	}
	return codes
}

// snapshots holds the decoded source tables for one run, with per-table read
// errors so a missing snapshot only fails the derivations that need it.
type snapshots struct {
	tables map[string]table.Table
	errs   map[string]error
}

func (s snapshots) get(name string) (table.Table, error) {
	if err := s.errs[name]; err != nil {
		return table.Table{}, err
	}
	return s.tables[name], nil
}

// derivations lists the warehouse tables in production order with their
// source tables and derivation functions.
var derivations = []struct {
	name   string
	inputs []string
	fn     func(s snapshots) (table.Table, error)
}{
	{"dim_date", []string{"sales_order"}, func(s snapshots) (table.Table, error) {
		in, err := s.get("sales_order")
		if err != nil {
			return table.Table{}, err
		}
		return DimDate(in)
	}},
	{"dim_design", []string{"design"}, func(s snapshots) (table.Table, error) {
		in, err := s.get("design")
		if err != nil {
			return table.Table{}, err
		}
		return DimDesign(in)
	}},
	{"dim_location", []string{"address"}, func(s snapshots) (table.Table, error) {
		in, err := s.get("address")
		if err != nil {
			return table.Table{}, err
		}
		return DimLocation(in)
	}},
	{"dim_counterparty", []string{"counterparty", "address"}, func(s snapshots) (table.Table, error) {
		cp, err := s.get("counterparty")
		if err != nil {
			return table.Table{}, err
		}
		addr, err := s.get("address")
		if err != nil {
			return table.Table{}, err
		}
		return DimCounterparty(cp, addr)
	}},
	{"dim_staff", []string{"staff", "department"}, func(s snapshots) (table.Table, error) {
		st, err := s.get("staff")
		if err != nil {
			return table.Table{}, err
		}
		dep, err := s.get("department")
		if err != nil {
			return table.Table{}, err
		}
		return DimStaff(st, dep)
	}},
	{"dim_currency", []string{"currency"}, func(s snapshots) (table.Table, error) {
		in, err := s.get("currency")
		if err != nil {
			return table.Table{}, err
		}
		return DimCurrency(in)
	}},
	{"fact_sales_order", []string{"sales_order"}, func(s snapshots) (table.Table, error) {
		in, err := s.get("sales_order")
		if err != nil {
			return table.Table{}, err
		}
		return FactSalesOrder(in)
	}},
}

// Run derives all warehouse tables for the run token and writes each to the
// processed store in columnar form. Every table is attempted; the result
// carries one outcome per table.
func Run(log logger.Logger, ingestion *store.Store, processed *store.Store, runToken string) Result {
	snaps := snapshots{
		tables: make(map[string]table.Table),
		errs:   make(map[string]error),
	}
	// Read each source snapshot once; several derivations share sales_order
	// and address.
	wanted := make(map[string]struct{})
	for _, d := range derivations {
		for _, in := range d.inputs {
			wanted[in] = struct{}{}
		}
	}
	for name := range wanted {
		t, err := ingestion.ReadTable(name, runToken)
		if err != nil {
			log.Error("unable to read source snapshot ", name, ": ", err)
			snaps.errs[name] = err
			continue
		}
		snaps.tables[name] = t
		log.Debug("read snapshot ", name, " with ", len(t.Rows), " rows")
	}

	result := Result{RunToken: runToken}
	for _, d := range derivations {
		result.Outcomes = append(result.Outcomes, deriveAndWrite(log, processed, runToken, d.name, func() (table.Table, error) {
			return d.fn(snaps)
		}))
	}
	return result
}

func deriveAndWrite(log logger.Logger, processed *store.Store, runToken, name string, derive func() (table.Table, error)) WriteOutcome {
	t, err := derive()
	if err != nil {
		log.Error("derivation of ", name, " failed: ", err)
		return WriteOutcome{Table: name, StatusCode: http.StatusInternalServerError, Err: err.Error()}
	}
	data, err := parquet.Write(t)
	if err != nil {
		log.Error("columnar serialization of ", name, " failed: ", err)
		return WriteOutcome{Table: name, StatusCode: http.StatusInternalServerError, Err: err.Error()}
	}
	key, err := processed.PutColumnar(name, runToken, data)
	if err != nil {
		log.Error("write of ", name, " failed: ", err)
		return WriteOutcome{Table: name, Key: key, StatusCode: http.StatusInternalServerError, Err: err.Error()}
	}
	log.Info("wrote ", key, " (", len(t.Rows), " rows)")
	return WriteOutcome{Table: name, Key: key, StatusCode: http.StatusOK}
}

// asString renders a snapshot value for lookups that key on its text form.
func asString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
