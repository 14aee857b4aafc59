package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// utf8BOM lets spreadsheet apps detect UTF-8 in student and teacher names.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Dataset is a table keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter renders roster tables for spreadsheet use.
type CSVExporter struct {
	bom bool
}

// NewCSVExporter builds an exporter that prefixes output with a UTF-8 BOM.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{bom: true}
}

// WithoutBOM returns a copy that writes plain UTF-8.
func (e *CSVExporter) WithoutBOM() *CSVExporter {
	return &CSVExporter{bom: false}
}

// Render writes headers then one record per row. Cells that a spreadsheet
// would evaluate as a formula get a leading apostrophe.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	if e.bom {
		buf.Write(utf8BOM)
	}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write roster header: %w", err)
	}
	record := make([]string, len(data.Headers))
	for n, row := range data.Rows {
		for i, header := range data.Headers {
			record[i] = neutralise(row[header])
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write roster row %d: %w", n+1, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func neutralise(cell string) string {
	if cell == "" {
		return cell
	}
	if strings.ContainsRune("=+-@\t\r", rune(cell[0])) {
		return "'" + cell
	}
	return cell
}
