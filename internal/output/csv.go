package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"invoicex/internal/mapping"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var bom = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes a header row of mapping keys (declaration order) and one row
// per record. Missing fields leave their cell empty.
func WriteCSV(w io.Writer, m *mapping.FieldMapping, records []*mapping.Record) error {
	if _, err := w.Write(bom); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(m.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		row := make([]string, 0, m.Len())
		for _, f := range m.Fields() {
			v, _ := rec.Get(f.Name)
			row = append(row, v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
