package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"invoicex/internal/common"
)

// Field pairs a canonical output field name with the user-supplied hint that
// helps locate its value in the source document (e.g. invoice_number -> "Invoice #").
type Field struct {
	Name string
	Hint string
}

// FieldMapping is the user-defined extraction configuration. Field order is
// the declaration order of the mapping file and drives output column order.
// Read-only during a run.
type FieldMapping struct {
	fields []Field
	index  map[string]int
	folded map[string]int // Fold(name) and Fold(hint) -> field index
}

// New builds a FieldMapping from an ordered field list.
func New(fields []Field) (*FieldMapping, error) {
	m := &FieldMapping{
		index:  make(map[string]int, len(fields)),
		folded: make(map[string]int, 2*len(fields)),
	}
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return nil, common.NewAppError("CONFIG_ERROR", "mapping field name must not be empty", common.ErrInvalidInput)
		}
		if _, dup := m.index[name]; dup {
			return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("duplicate mapping field %q", name), common.ErrInvalidInput)
		}
		i := len(m.fields)
		m.index[name] = i
		hint := strings.TrimSpace(f.Hint)
		m.fields = append(m.fields, Field{Name: name, Hint: hint})

		// earlier declarations win folded collisions
		if fn := Fold(name); fn != "" {
			if _, taken := m.folded[fn]; !taken {
				m.folded[fn] = i
			}
		}
		if fh := Fold(hint); fh != "" {
			if _, taken := m.folded[fh]; !taken {
				m.folded[fh] = i
			}
		}
	}
	if len(m.fields) == 0 {
		return nil, common.NewAppError("CONFIG_ERROR", "mapping declares no fields", common.ErrInvalidInput)
	}
	return m, nil
}

// LoadFile reads a mapping file: a single JSON object of
// {"canonical_field": "extraction hint", ...}. Declaration order is preserved.
func LoadFile(path string) (*FieldMapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, common.WrapError(err, "read mapping file")
	}
	return Parse(raw)
}

// Parse decodes a JSON mapping object, walking tokens so that key order
// survives (encoding/json maps would lose it).
func Parse(raw []byte) (*FieldMapping, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", "mapping is not valid JSON", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, common.NewAppError("CONFIG_ERROR", "mapping must be a JSON object", common.ErrInvalidInput)
	}

	var fields []Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, common.NewAppError("CONFIG_ERROR", "mapping is not valid JSON", err)
		}
		name, _ := keyTok.(string)

		var hint string
		if err := dec.Decode(&hint); err != nil {
			return nil, common.NewAppError("CONFIG_ERROR",
				fmt.Sprintf("mapping value for %q must be a string hint", name), err)
		}
		fields = append(fields, Field{Name: name, Hint: hint})
	}
	return New(fields)
}

// Fields returns the fields in declaration order.
func (m *FieldMapping) Fields() []Field {
	return m.fields
}

// Names returns the canonical field names in declaration order.
func (m *FieldMapping) Names() []string {
	names := make([]string, len(m.fields))
	for i, f := range m.fields {
		names[i] = f.Name
	}
	return names
}

// Has reports whether name is a declared canonical field.
func (m *FieldMapping) Has(name string) bool {
	_, ok := m.index[name]
	return ok
}

// Resolve maps a payload key to the canonical field it belongs to: an exact
// name match first, then a folded match against declared names and hints, so
// a model echoing the document label ("Invoice #") still lands on
// invoice_number.
func (m *FieldMapping) Resolve(key string) (string, bool) {
	if _, ok := m.index[key]; ok {
		return key, true
	}
	if i, ok := m.folded[Fold(key)]; ok {
		return m.fields[i].Name, true
	}
	return "", false
}

// Fold lowercases and strips everything but letters and digits, so
// "Invoice #" and "invoice" compare equal, as do "Invoice Number" and
// "invoice_number".
func Fold(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Len returns the number of declared fields.
func (m *FieldMapping) Len() int {
	return len(m.fields)
}
