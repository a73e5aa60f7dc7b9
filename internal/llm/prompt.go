package llm

import (
	"fmt"
	"strings"
)

// BuildSystemPrompt composes the system message: JSON-only output, one entry
// per mapped field, with the user's extraction hints spelled out.
func BuildSystemPrompt(req ExtractRequest) string {
	var fieldLines []string
	for _, f := range req.Mapping.Fields() {
		if f.Hint != "" {
			fieldLines = append(fieldLines, fmt.Sprintf("%q: the value labeled %q in the document", f.Name, f.Hint))
		} else {
			fieldLines = append(fieldLines, fmt.Sprintf("%q: best-matching value in the document", f.Name))
		}
	}

	parts := []string{
		"You are an invoice parser. Return ONLY JSON that matches the provided JSON Schema.",
		"Extract these fields: " + strings.Join(fieldLines, "; ") + ".",
		"Report amounts as plain decimal strings without currency symbols or thousands separators.",
		"Keep dates exactly as printed in the document.",
		"Never output null. If a field is not present in the document, omit it.",
		"Never include fields that are not listed above.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the filename hint and the chunk text. Chunk
// position is included so the model knows it may be seeing a partial document.
func BuildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	if name := strings.TrimSpace(req.FilenameHint); name != "" {
		b.WriteString("Filename: ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	if req.ChunkCount > 1 {
		fmt.Fprintf(&b, "\nDocument text (part %d of %d):\n", req.ChunkIndex, req.ChunkCount)
	} else {
		b.WriteString("\nDocument text:\n")
	}
	b.WriteString(req.Text)
	return b.String()
}
