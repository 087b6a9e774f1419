package transform

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/constants"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/table"
)

// dateBearingColumns are the sales_order columns that feed the date dimension.
var dateBearingColumns = []string{
	"created_at",
	"last_updated",
	"agreed_delivery_date",
	"agreed_payment_date",
}

var dayNames = map[int]string{
	1: "monday",
	2: "tuesday",
	3: "wednesday",
	4: "thursday",
	5: "friday",
	6: "saturday",
	7: "sunday",
}

var monthNames = map[int]string{
	1:  "january",
	2:  "february",
	3:  "march",
	4:  "april",
	5:  "may",
	6:  "june",
	7:  "july",
	8:  "august",
	9:  "september",
	10: "october",
	11: "november",
	12: "december",
}

// DimDate builds the date dimension from the union of the four date-bearing
// columns of sales_order. Each value is truncated to its calendar date (the
// first 10 characters of the ISO-8601 form), duplicates are collapsed across
// columns and rows, and the output is sorted ascending by date.
func DimDate(salesOrder table.Table) (table.Table, error) {
	for _, col := range dateBearingColumns {
		if !salesOrder.HasColumn(col) {
			return table.Table{}, errors.Errorf("table %q is missing expected column %q", salesOrder.Name, col)
		}
	}
	seen := make(map[string]struct{})
	for _, row := range salesOrder.Rows {
		for _, col := range dateBearingColumns {
			s, ok := row[col].(string)
			if !ok {
				return table.Table{}, errors.Errorf("column %q holds a non-string value %v", col, row[col])
			}
			if len(s) > 10 {
				s = s[:10]
			}
			seen[s] = struct{}{}
		}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := table.New("dim_date", "date_id",
		[]string{"date_id", "year", "month", "day", "day_of_week", "day_name", "month_name", "quarter"})
	for _, d := range dates {
		row, err := dateRow(d)
		if err != nil {
			return table.Table{}, err
		}
		out.AppendRow(row)
	}
	return out, nil
}

// dateRow derives the attributes of one unique calendar date. Year, month
// and day come from fixed-offset slicing of the zero-padded ISO form; the
// weekday follows the proleptic Gregorian calendar (ISO, Monday=1).
func dateRow(d string) (table.Row, error) {
	t, err := time.Parse(constants.TimeFormatDate, d)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to derive date dimension row from %q", d)
	}
	year, err := strconv.Atoi(d[:4])
	if err != nil {
		return nil, errors.Wrapf(err, "bad year in date %q", d)
	}
	month, err := strconv.Atoi(d[5:7])
	if err != nil {
		return nil, errors.Wrapf(err, "bad month in date %q", d)
	}
	day, err := strconv.Atoi(d[8:10])
	if err != nil {
		return nil, errors.Wrapf(err, "bad day in date %q", d)
	}
	weekday := isoWeekday(t)
	return table.Row{
		"date_id":     fmt.Sprintf("%04d-%02d-%02d", year, month, day),
		"year":        int64(year),
		"month":       int64(month),
		"day":         int64(day),
		"day_of_week": int64(weekday),
		"day_name":    dayNames[weekday],
		"month_name":  monthNames[month],
		"quarter":     int64((month-1)/3 + 1),
	}, nil
}

// isoWeekday returns Monday=1 .. Sunday=7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
