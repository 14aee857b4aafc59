package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct {
	SheetName string
}

// NewXLSXExporter builds an XLSX exporter writing into sheetName.
func NewXLSXExporter(sheetName string) *XLSXExporter {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = defaultSheet
	}
	return &XLSXExporter{SheetName: sheetName}
}

// Render writes headers on the first row followed by one row per record.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer f.Close()

	if e.SheetName != defaultSheet {
		if err := f.SetSheetName(defaultSheet, e.SheetName); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}

	header := make([]interface{}, len(data.Headers))
	for i, h := range data.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(e.SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write xlsx headers: %w", err)
	}

	for i, row := range data.Rows {
		record := make([]interface{}, len(data.Headers))
		for j, h := range data.Headers {
			record[j] = row[h]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(e.SheetName, cell, &record); err != nil {
			return nil, fmt.Errorf("write xlsx row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadXLSX parses the first sheet of a workbook into a Dataset keyed by the
// lower-cased, trimmed header row. Blank rows are skipped.
func ReadXLSX(r io.Reader) (Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Dataset{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Dataset{}, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Dataset{}, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return Dataset{}, fmt.Errorf("sheet %s is empty", sheets[0])
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	data := Dataset{Headers: headers}
	for _, raw := range rows[1:] {
		record := make(map[string]string, len(headers))
		blank := true
		for i, h := range headers {
			if h == "" || i >= len(raw) {
				continue
			}
			value := strings.TrimSpace(raw[i])
			if value != "" {
				blank = false
			}
			record[h] = value
		}
		if blank {
			continue
		}
		data.Rows = append(data.Rows, record)
	}
	return data, nil
}

// OpenXLSXBytes is a convenience wrapper over ReadXLSX.
func OpenXLSXBytes(payload []byte) (Dataset, error) {
	return ReadXLSX(bytes.NewReader(payload))
}
