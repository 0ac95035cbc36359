package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const unicodeFamily = "body"

// PDFExporter lays each row out as a block of "header: value" lines. Without
// a TrueType font only Latin-1 text survives; other runes print as '?'.
type PDFExporter struct {
	fontPath string
}

// NewPDFExporter uses the TrueType font at fontPath when it is non-empty.
func NewPDFExporter(fontPath string) *PDFExporter {
	return &PDFExporter{fontPath: fontPath}
}

func (e *PDFExporter) ContentType() string {
	return "application/pdf"
}

// Render writes title on top and one block per row, the first header as the block heading.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)

	family := "Arial"
	text := latin1(pdf)
	if e.fontPath != "" {
		pdf.AddUTF8Font(unicodeFamily, "", e.fontPath)
		pdf.AddUTF8Font(unicodeFamily, "B", e.fontPath)
		family = unicodeFamily
		text = func(s string) string { return s }
	}
	pdf.AddPage()

	if title != "" {
		pdf.SetFont(family, "B", 15)
		pdf.CellFormat(0, 10, text(title), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	heading, fields := data.Headers[0], data.Headers[1:]
	for i, row := range data.Rows {
		if i > 0 {
			pdf.Ln(3)
			x, y := pdf.GetXY()
			pdf.Line(x, y, 195, y)
			pdf.Ln(3)
		}
		pdf.SetFont(family, "B", 12)
		pdf.MultiCell(0, 7, text(row[heading]), "", "L", false)
		for _, h := range fields {
			v := strings.TrimSpace(row[h])
			if v == "" {
				continue
			}
			pdf.SetFont(family, "B", 9)
			pdf.CellFormat(30, 6, text(h), "", 0, "L", false, 0, "")
			pdf.SetFont(family, "", 9)
			pdf.MultiCell(0, 6, text(v), "", "L", false)
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("layout pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func latin1(pdf *gofpdf.Fpdf) func(string) string {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	return func(s string) string {
		return tr(strings.Map(func(r rune) rune {
			if r > 0xFF {
				return '?'
			}
			return r
		}, s))
	}
}
