package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"invoicex/internal/common"
)

// MergeChunkPayloads folds per-chunk sanitized payloads into one JSON object.
// The first chunk to report a field wins; a later chunk reporting a different
// value for the same field is logged and dropped. One document always yields
// one record, however many chunks it was split into.
func MergeChunkPayloads(payloads [][]byte, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	merged := make(map[string]string)
	for i, p := range payloads {
		var m map[string]string
		if err := json.Unmarshal(p, &m); err != nil {
			return nil, common.MalformedResponseError(fmt.Sprintf("chunk %d payload is not a flat JSON object", i+1), err)
		}
		for k, v := range m {
			prev, seen := merged[k]
			if !seen {
				merged[k] = v
				continue
			}
			if prev != v {
				logger.Warn("llm.merge.conflict",
					"field", k, "kept", prev, "dropped", v, "chunk", i+1)
			}
		}
	}
	return json.Marshal(merged)
}
