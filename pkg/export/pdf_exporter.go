package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a single-table A4 report.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ContentType reports the MIME type of rendered output.
func (e *PDFExporter) ContentType() string { return "application/pdf" }

// Extension reports the file extension of rendered output.
func (e *PDFExporter) Extension() string { return "pdf" }

// Render lays out the title, summary lines and the table. The first column
// is left aligned and the rest are right aligned.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, data.Title, "", 1, "C", false, 0, "")
	}
	if len(data.Summary) > 0 {
		pdf.SetFont("Arial", "", 10)
		for _, line := range data.Summary {
			pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	firstWidth := 70.0
	if len(data.Headers) == 1 {
		firstWidth = 190
	}
	restWidth := 0.0
	if len(data.Headers) > 1 {
		restWidth = (190 - firstWidth) / float64(len(data.Headers)-1)
	}
	width := func(i int) float64 {
		if i == 0 {
			return firstWidth
		}
		return restWidth
	}
	align := func(i int) string {
		if i == 0 {
			return "L"
		}
		return "R"
	}

	pdf.SetFont("Arial", "B", 10)
	for i, header := range data.Headers {
		pdf.CellFormat(width(i), 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		fill := false
		if data.Highlight != nil {
			if r, g, b, ok := data.Highlight(row); ok {
				pdf.SetFillColor(r, g, b)
				fill = true
			}
		}
		for i, value := range row {
			pdf.CellFormat(width(i), 7, value, "1", 0, align(i), fill, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
