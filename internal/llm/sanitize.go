package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"invoicex/internal/mapping"
)

// SanitizePayload normalizes a raw model reply into a clean JSON object that
// only contains mapped string fields:
//   - strips markdown code fences the model sometimes wraps JSON in
//   - renames alias keys (a field's hint, or a case/punctuation variant of
//     its name) to the canonical field name
//   - drops keys that resolve to no mapped field (unmapped output is flagged,
//     never merged)
//   - drops null and empty values
//   - coerces numeric and boolean values to strings
//
// Returns the cleaned payload and the list of dropped/renamed/coerced keys.
func SanitizePayload(raw []byte, m *mapping.FieldMapping, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	trimmed := StripCodeFences(raw)

	var in map[string]any
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	out := make(map[string]string, len(in))
	dropped := make([]string, 0, 4)
	for k, v := range in {
		name, ok := m.Resolve(k)
		if !ok {
			dropped = append(dropped, k+"(unmapped)")
			continue
		}
		if _, taken := out[name]; taken && name != k {
			// an exact-name key already claimed this field
			dropped = append(dropped, k+"(duplicate)")
			continue
		}
		if name != k {
			dropped = append(dropped, k+"(renamed)")
		}
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") {
				dropped = append(dropped, k+"(empty)")
				continue
			}
			out[name] = s
		case float64:
			out[name] = formatNumber(t)
			dropped = append(dropped, k+"(coerced)")
		case bool:
			out[name] = fmt.Sprintf("%t", t)
			dropped = append(dropped, k+"(coerced)")
		case nil:
			dropped = append(dropped, k+"(null)")
		default:
			// objects/arrays have no place in a flat record
			dropped = append(dropped, k+"(type)")
		}
	}

	bs, err := json.Marshal(out)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.sanitize.adjusted", "keys", dropped)
	}
	return bs, dropped, nil
}

// StripCodeFences removes a surrounding ```json ... ``` (or plain ```) fence.
func StripCodeFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return []byte(s)
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// drop the language tag line ("json", "JSON", or empty)
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(strings.TrimSpace(s))
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%.2f", f)
}
