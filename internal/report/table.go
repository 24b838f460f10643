// Package report renders tabular revenue data into downloadable documents
// (Excel, CSV, PDF) and chart images. All exporters consume the same Table,
// so the grand total is identical whichever format is requested.
package report

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Format is an export file format.
type Format string

const (
	FormatExcel Format = "excel"
	FormatCSV   Format = "csv"
	FormatPDF   Format = "pdf"
)

// ParseFormat accepts excel (or xlsx), csv and pdf, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "excel", "xlsx":
		return FormatExcel, nil
	case "csv":
		return FormatCSV, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// Ext is the file extension, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatExcel:
		return ".xlsx"
	case FormatCSV:
		return ".csv"
	case FormatPDF:
		return ".pdf"
	}
	return ""
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Row is one table line. Cells holds every column as text; the cell at the
// table's AmountCol is ignored in favour of Amount, which exporters render
// as a number.
type Row struct {
	Cells  []string
	Amount float64
}

// Table is the format-neutral report body.
type Table struct {
	Title       string
	Headers     []string
	AmountCol   int
	Rows        []Row
	Currency    string
	GeneratedAt time.Time
}

// Total is the sum of every row's amount.
func (t Table) Total() float64 {
	var sum float64
	for _, r := range t.Rows {
		sum += r.Amount
	}
	return sum
}

// Money formats an amount the way documents display it, e.g. "ZMW 1,234.50".
func Money(currency string, v float64) string {
	out := printer.Sprintf("%.2f", v)
	if currency == "" {
		return out
	}
	return currency + " " + out
}

func (t Table) cell(r Row, col int) string {
	if col < len(r.Cells) {
		return r.Cells[col]
	}
	return ""
}
