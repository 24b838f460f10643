package report

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteCSV renders t as comma-separated values with a header line, one line
// per row and a final "Total:" line. Amounts are plain decimals with two
// fraction digits so spreadsheets can re-sum them.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	for _, r := range t.Rows {
		rec := make([]string, len(t.Headers))
		for col := range t.Headers {
			rec[col] = t.cell(r, col)
		}
		if t.AmountCol < len(rec) {
			rec[t.AmountCol] = strconv.FormatFloat(r.Amount, 'f', 2, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	if len(t.Headers) > 0 && t.AmountCol < len(t.Headers) {
		total := make([]string, len(t.Headers))
		if t.AmountCol > 0 {
			total[t.AmountCol-1] = "Total:"
		}
		total[t.AmountCol] = strconv.FormatFloat(t.Total(), 'f', 2, 64)
		if err := cw.Write(total); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
