package output

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"invoicex/internal/mapping"
)

// WriteXLSX returns an XLSX workbook (as bytes) with the same table shape as
// the CSV output: header from mapping keys, one row per record.
func WriteXLSX(m *mapping.FieldMapping, records []*mapping.Record, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Invoices"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	for i, name := range m.Names() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, name)
	}

	row := 2
	for _, rec := range records {
		for i, field := range m.Fields() {
			v, ok := rec.Get(field.Name)
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	// Widen all columns a bit; extracted values are short strings.
	lastCol, _ := excelize.ColumnNumberToName(m.Len())
	_ = f.SetColWidth(sheet, "A", lastCol, 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	logger.Info("output.xlsx.ok",
		"rows", len(records),
		"columns", m.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
