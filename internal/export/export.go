// Package export renders record lists as CSV or PDF tables.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

type Table struct {
	Title       string
	Headers     []string
	Rows        [][]string
	GeneratedAt time.Time
}

// Filename is the download name for the table in the given format.
func (t Table) Filename(f Format) string {
	name := strings.ReplaceAll(strings.ToLower(t.Title), " ", "_")
	return fmt.Sprintf("%s_%s.%s", name, t.GeneratedAt.Format("20060102"), f)
}

func Write(w io.Writer, f Format, t Table) error {
	if f == FormatPDF {
		return WritePDF(w, t)
	}
	return WriteCSV(w, t)
}

// utf-8 byte order mark so spreadsheet tools pick the right encoding
const bom = "\ufeff"

func WriteCSV(w io.Writer, t Table) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return errors.Wrap(err, "could not write csv")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return errors.Wrap(err, "could not write csv header")
	}
	for _, row := range t.Rows {
		safe := make([]string, len(row))
		for i, cell := range row {
			safe[i] = neutralizeFormula(cell)
		}
		if err := cw.Write(safe); err != nil {
			return errors.Wrap(err, "could not write csv rows")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "could not write csv rows")
}

// neutralizeFormula keeps spreadsheets from evaluating user text as a formula.
// Plain numbers such as "-3" pass unchanged.
func neutralizeFormula(cell string) string {
	if cell == "" || !strings.ContainsRune("=+-@\t\r", rune(cell[0])) {
		return cell
	}
	if _, err := strconv.ParseFloat(cell, 64); err == nil {
		return cell
	}
	return "'" + cell
}

const (
	pageMargin = 10.0
	rowHeight  = 7.0
)

func WritePDF(w io.Writer, t Table) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, _ := pdf.GetPageSize()
	colWidth := pageWidth - 2*pageMargin
	if len(t.Headers) > 0 {
		colWidth /= float64(len(t.Headers))
	}

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range t.Headers {
			pdf.CellFormat(colWidth, rowHeight, tr(fit(pdf, h, colWidth)), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}

	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pageMargin)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(0, 5, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(t.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 5, "Generated "+t.GeneratedAt.Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	header()
	for _, row := range t.Rows {
		for i := range t.Headers {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			pdf.CellFormat(colWidth, rowHeight, tr(fit(pdf, cell, colWidth)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "could not render pdf")
	}
	return nil
}

// fit shortens s with an ellipsis until it fits into a cell of width w.
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	s = strings.Join(strings.Fields(s), " ")
	limit := w - 2*pdf.GetCellMargin()
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > limit {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
