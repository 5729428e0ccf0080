package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/phpdave11/gofpdf"

	"bilardo/internal/core"
)

const ContentTypePDF = "application/pdf"

// The core PDF fonts only carry cp1252 glyphs; the Turkish letters outside it
// are folded to their closest Latin form.
var latinFold = strings.NewReplacer(
	"ğ", "g", "Ğ", "G",
	"ş", "s", "Ş", "S",
	"ı", "i", "İ", "I",
	"₺", "TL",
)

// WritePDF renders every sheet of doc on its own page.
func WritePDF(w io.Writer, doc Document) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Name, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	t := func(s string) string { return tr(latinFold.Replace(s)) }

	for _, s := range doc.Sheets {
		pdf.AddPage()

		pdf.SetFont("Helvetica", "B", 16)
		pdf.Cell(0, 10, t(s.Title))
		pdf.Ln(8)
		if s.Subtitle != "" {
			pdf.SetFont("Helvetica", "", 11)
			pdf.Cell(0, 7, t(s.Subtitle))
			pdf.Ln(10)
		}

		widths := s.Widths
		if len(widths) != len(s.Headers) {
			widths = make([]float64, len(s.Headers))
			for i := range widths {
				widths[i] = 180 / float64(len(s.Headers))
			}
		}

		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range s.Headers {
			pdf.CellFormat(widths[i], 7, t(h), "1", 0, align(nil), true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 10)
		for _, row := range s.Rows {
			drawRow(pdf, widths, row, t)
		}
		if s.Footer != nil {
			pdf.SetFont("Helvetica", "B", 10)
			drawRow(pdf, widths, s.Footer, t)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func drawRow(pdf *gofpdf.Fpdf, widths []float64, row []any, t func(string) string) {
	for i, v := range row {
		if i >= len(widths) {
			break
		}
		pdf.CellFormat(widths[i], 6, t(text(v)), "1", 0, align(v), false, 0, "")
	}
	pdf.Ln(-1)
}

func align(v any) string {
	switch v.(type) {
	case core.Money, int:
		return "R"
	}
	return "L"
}
