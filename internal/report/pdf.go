package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMarginTop    = 15.0
	pdfPageBottom   = 277.0 // A4 height minus the footer band
	pdfRowHeight    = 6.0
	pdfFooterText   = "Generated by Vehicle Checkpoint Monitoring System"
	runningTotalHdr = "Running Total"
)

// PDFOptions adds the optional decorations of a PDF export.
type PDFOptions struct {
	LogoPath string // PNG or JPEG; skipped when empty or missing
	Chart    []byte // PNG drawn under the title, e.g. a company pie chart
}

// WritePDF renders t as an A4 document: logo, title, generation time, the
// optional chart, then a paginated table with a running-total column, a
// total line and a footer on every page.
func WritePDF(w io.Writer, t Table, opts PDFOptions) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, pdfMarginTop, 10)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(150, 10, pdfFooterText, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	x := 10.0
	if opts.LogoPath != "" {
		if _, err := os.Stat(opts.LogoPath); err == nil {
			pdf.ImageOptions(opts.LogoPath, 10, pdfMarginTop, 25, 0, false,
				fpdf.ImageOptions{ImageType: imageType(opts.LogoPath), ReadDpi: true}, 0, "")
			x = 40
		}
	}
	pdf.SetXY(x, pdfMarginTop)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr(t.Title), "", 1, "L", false, 0, "")
	pdf.SetX(x)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Generated: "+t.GeneratedAt.Format("2006-01-02 15:04:05"), "", 1, "L", false, 0, "")
	pdf.SetY(pdfMarginTop + 30)

	if len(opts.Chart) > 0 {
		pdf.RegisterImageOptionsReader("chart", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(opts.Chart))
		y := pdf.GetY()
		pdf.ImageOptions("chart", 45, y, 120, 0, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		info := pdf.GetImageInfo("chart")
		if info != nil {
			y += info.Height() * 120 / info.Width()
		}
		pdf.SetY(y + 5)
	}

	headers := append(append([]string{}, t.Headers...), runningTotalHdr)
	widths := columnWidths(len(headers))
	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}
	header()

	running := RunningTotals(t.Rows)
	for i, r := range t.Rows {
		if pdf.GetY()+pdfRowHeight > pdfPageBottom {
			pdf.AddPage()
			header()
		}
		for col := range t.Headers {
			text := t.cell(r, col)
			align := "L"
			if col == t.AmountCol {
				text = Money(t.Currency, r.Amount)
				align = "R"
			}
			pdf.CellFormat(widths[col], pdfRowHeight, tr(truncate(text, 22)), "1", 0, align, false, 0, "")
		}
		pdf.CellFormat(widths[len(headers)-1], pdfRowHeight, Money(t.Currency, running[i]), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if pdf.GetY()+12 > pdfPageBottom {
		pdf.AddPage()
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 8, "Total Revenue: "+Money(t.Currency, t.Total()), "", 1, "L", false, 0, "")

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// RunningTotals returns the cumulative amount after each row.
func RunningTotals(rows []Row) []float64 {
	out := make([]float64, len(rows))
	var sum float64
	for i, r := range rows {
		sum += r.Amount
		out[i] = sum
	}
	return out
}

func columnWidths(n int) []float64 {
	const usable = 190.0
	w := make([]float64, n)
	for i := range w {
		w[i] = usable / float64(n)
	}
	return w
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func imageType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "JPG"
	case ".gif":
		return "GIF"
	}
	return "PNG"
}
