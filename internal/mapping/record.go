package mapping

import (
	"bytes"
	"encoding/json"

	"invoicex/internal/common"
)

// Record is the structured result of processing one document: canonical field
// name -> extracted value. Keys are always a subset of the FieldMapping; the
// record is never mutated after the normalizer produces it.
type Record struct {
	mapping *FieldMapping
	values  map[string]string

	// Missing lists mapped fields the model omitted, in mapping order.
	// Missing fields are left out of JSON output and empty in CSV/XLSX.
	Missing []string

	// SourcePath is the document the record was extracted from.
	SourcePath string
}

// NewRecord builds a Record over the given mapping. Values with keys not
// declared in the mapping are rejected so the mapping invariant holds at the
// type boundary, not just by writer convention.
func NewRecord(m *FieldMapping, values map[string]string) (*Record, error) {
	for k := range values {
		if !m.Has(k) {
			return nil, common.NewAppError("UNMAPPED_FIELD",
				"record value "+k+" is not declared in the field mapping", common.ErrInvalidInput)
		}
	}
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	rec := &Record{mapping: m, values: copied}
	for _, f := range m.Fields() {
		if _, ok := copied[f.Name]; !ok {
			rec.Missing = append(rec.Missing, f.Name)
		}
	}
	return rec, nil
}

// Get returns the value for a canonical field and whether it was extracted.
func (r *Record) Get(name string) (string, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Len returns the number of extracted values.
func (r *Record) Len() int {
	return len(r.values)
}

// Mapping returns the FieldMapping the record was normalized against.
func (r *Record) Mapping() *FieldMapping {
	return r.mapping
}

// MarshalJSON writes the record as a JSON object with keys in mapping order,
// omitting missing fields. encoding/json would sort map keys alphabetically,
// which breaks the mapping-order contract, so the object is built by hand.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, f := range r.mapping.Fields() {
		v, ok := r.values[f.Name]
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
