package llm

import (
	"context"

	"invoicex/internal/mapping"
)

// ExtractRequest carries one chunk of document text plus everything the model
// needs to return mapped field values.
type ExtractRequest struct {
	Text         string
	Mapping      *mapping.FieldMapping
	FilenameHint string

	// ChunkIndex/ChunkCount are 1-based when the document was split; both are
	// 1 for documents that fit in a single request.
	ChunkIndex int
	ChunkCount int
}

// FieldExtractor is the interface the pipeline depends on: one chunk of text
// in, one sanitized JSON object (field name -> value) out. Implementations
// make exactly one outbound call per invocation.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) ([]byte, error)
}
