package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractSpreadsheetText concatenates cell values row-major per sheet, sheets
// in workbook order. Rows join cells with tabs; a "# sheet:" line separates
// sheets so the model can tell them apart.
func extractSpreadsheetText(raw []byte) (string, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return "", 0, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	var b strings.Builder
	hasContent := false
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", len(sheets), fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		b.WriteString("# sheet: ")
		b.WriteString(sheet)
		b.WriteString("\n")
		for _, row := range rows {
			line := strings.TrimRight(strings.Join(row, "\t"), "\t")
			if strings.TrimSpace(line) == "" {
				continue
			}
			b.WriteString(line)
			b.WriteString("\n")
			hasContent = true
		}
		b.WriteString("\n")
	}
	if !hasContent {
		return "", len(sheets), nil
	}
	return b.String(), len(sheets), nil
}
