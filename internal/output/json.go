package output

import (
	"encoding/json"
	"fmt"
	"io"

	"invoicex/internal/mapping"
)

// WriteJSON serializes records as one JSON object per document, keys in
// mapping order (Record.MarshalJSON guarantees the ordering). A single record
// is written as an object, several as an array, matching how people diff the
// output by hand.
func WriteJSON(w io.Writer, records []*mapping.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if records == nil {
		records = []*mapping.Record{}
	}
	if len(records) == 1 {
		if err := enc.Encode(records[0]); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		return nil
	}
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return nil
}
