// Package export renders tabular data for download.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// utf8BOM lets spreadsheet tools detect UTF-8 for Hangul content.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Dataset is an ordered table; each row is keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

type CSVExporter struct {
	bom bool
}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{bom: true}
}

func (e *CSVExporter) ContentType() string {
	return "text/csv; charset=utf-8"
}

func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	if e.bom {
		buf.Write(utf8BOM)
	}
	w := csv.NewWriter(buf)
	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	record := make([]string, len(data.Headers))
	for _, row := range data.Rows {
		for i, h := range data.Headers {
			record[i] = row[h]
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
