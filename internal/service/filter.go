package service

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/iliyamo/checkpoint-revenue/internal/repository"
)

var titleCase = cases.Title(language.English)

var weekdays = map[string]bool{
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true,
	"Friday": true, "Saturday": true, "Sunday": true,
}

// ParseLogFilter reads the dashboard/report query parameters company_id,
// checkpoint, month, year, week, day, hour and date. It never fails: a
// malformed or out-of-range value adds a warning and its predicate is
// dropped, the rest of the filter still applies.
func ParseLogFilter(q url.Values) (repository.LogFilter, []string) {
	var (
		f        repository.LogFilter
		warnings []string
	)
	warn := func(format string, args ...any) { warnings = append(warnings, fmt.Sprintf(format, args...)) }

	if v := strings.TrimSpace(q.Get("company_id")); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil && id > 0 {
			f.CompanyID = &id
		} else {
			warn("ignored company_id %q: not a valid id", v)
		}
	}
	f.Checkpoint = strings.TrimSpace(q.Get("checkpoint"))

	f.Month = intParam(q, "month", 1, 12, warn)
	f.Year = intParam(q, "year", 1970, 9999, warn)
	f.Week = intParam(q, "week", 1, 53, warn)
	f.Hour = intParam(q, "hour", 0, 23, warn)

	if v := strings.TrimSpace(q.Get("day")); v != "" {
		day := titleCase.String(strings.ToLower(v))
		if weekdays[day] {
			f.Day = day
		} else {
			warn("ignored day %q: expected a weekday name", v)
		}
	}

	if v := strings.TrimSpace(q.Get("date")); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			f.Date = &d
		} else {
			warn("ignored date %q: use YYYY-MM-DD", v)
		}
	}
	return f, warnings
}

func intParam(q url.Values, name string, min, max int, warn func(string, ...any)) *int {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		warn("ignored %s %q: expected an integer between %d and %d", name, v, min, max)
		return nil
	}
	return &n
}

// PerformanceFilter selects the officer performance window. Both dates are
// calendar days; End is inclusive.
type PerformanceFilter struct {
	OfficerID *uint64
	Start     *time.Time
	End       *time.Time
}

// ParsePerformanceFilter reads officer_id, start_date and end_date with the
// same warn-and-drop policy as ParseLogFilter.
func ParsePerformanceFilter(q url.Values) (PerformanceFilter, []string) {
	var (
		f        PerformanceFilter
		warnings []string
	)
	if v := strings.TrimSpace(q.Get("officer_id")); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil && id > 0 {
			f.OfficerID = &id
		} else {
			warnings = append(warnings, fmt.Sprintf("ignored officer_id %q: not a valid id", v))
		}
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"start_date", &f.Start}, {"end_date", &f.End}} {
		v := strings.TrimSpace(q.Get(p.name))
		if v == "" {
			continue
		}
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("ignored %s %q: use YYYY-MM-DD", p.name, v))
			continue
		}
		*p.dst = &d
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		warnings = append(warnings, "ignored end_date: before start_date")
		f.End = nil
	}
	return f, warnings
}

// logFilter converts the window into ledger predicates. The end day is
// included in full by bounding on the following midnight.
func (f PerformanceFilter) logFilter() repository.LogFilter {
	lf := repository.LogFilter{OfficerID: f.OfficerID, From: f.Start}
	if f.End != nil {
		next := f.End.AddDate(0, 0, 1)
		lf.To = &next
	}
	return lf
}
