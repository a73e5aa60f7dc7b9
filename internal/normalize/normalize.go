package normalize

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"invoicex/internal/common"
	"invoicex/internal/mapping"
)

// Normalizer turns a raw model payload into a Record keyed strictly by the
// field mapping. Immediately after the network call the pipeline passes the
// payload through here, so loosely-typed model output never travels further.
type Normalizer struct {
	logger *slog.Logger
}

func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

var moneyRe = regexp.MustCompile(`^[$€£¥]\s*-?[\d,]+(\.\d+)?$|^-?\d{1,3}(,\d{3})+(\.\d+)?$`)

// Normalize parses payload as JSON and resolves a value for each mapped field:
// exact key match first, then a case/punctuation-insensitive match against the
// field's hint. Mapped fields absent from the payload are omitted (recorded in
// Record.Missing); payload keys outside the mapping are dropped and logged.
func (n *Normalizer) Normalize(payload []byte, m *mapping.FieldMapping) (*mapping.Record, error) {
	var parsed map[string]any
	if err := json.Unmarshal(payload, &parsed); err != nil {
		n.logger.Error("normalize.malformed_payload", "error", err, "bytes", len(payload))
		return nil, common.MalformedResponseError("payload is not a JSON object", err)
	}

	// Index payload keys by their folded form for alias lookup.
	folded := make(map[string]string, len(parsed))
	for k := range parsed {
		folded[mapping.Fold(k)] = k
	}

	values := make(map[string]string, m.Len())
	claimed := make(map[string]bool, len(parsed))
	for _, f := range m.Fields() {
		key, ok := resolveKey(parsed, folded, f)
		if !ok {
			continue
		}
		claimed[key] = true
		s, ok := stringify(parsed[key])
		if !ok {
			n.logger.Warn("normalize.unusable_value", "field", f.Name, "payload_key", key)
			continue
		}
		values[f.Name] = CleanValue(s)
	}

	for k := range parsed {
		if !claimed[k] {
			n.logger.Warn("normalize.unmapped_key_dropped", "key", k)
		}
	}

	rec, err := mapping.NewRecord(m, values)
	if err != nil {
		return nil, err
	}
	if len(rec.Missing) > 0 {
		n.logger.Info("normalize.missing_fields", "fields", rec.Missing)
	}
	return rec, nil
}

func resolveKey(parsed map[string]any, folded map[string]string, f mapping.Field) (string, bool) {
	if _, ok := parsed[f.Name]; ok {
		return f.Name, true
	}
	if k, ok := folded[mapping.Fold(f.Name)]; ok {
		return k, true
	}
	if f.Hint != "" {
		if k, ok := folded[mapping.Fold(f.Hint)]; ok {
			return k, true
		}
	}
	return "", false
}

func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t)), true
		}
		return fmt.Sprintf("%.2f", t), true
	case bool:
		return fmt.Sprintf("%t", t), true
	default:
		return "", false
	}
}

// CleanValue trims whitespace and, for money-shaped values, strips the
// currency symbol and thousands separators ("$1,250.00" -> "1250.00").
func CleanValue(s string) string {
	s = strings.TrimSpace(s)
	if !moneyRe.MatchString(s) {
		return s
	}
	s = strings.TrimLeft(s, "$€£¥ ")
	return strings.ReplaceAll(s, ",", "")
}
