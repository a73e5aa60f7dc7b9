package document

import "strings"

// Chunk splits text into overlapping pieces of roughly size bytes so long
// documents fit the model's context. When a chunk would cut mid-sentence, the
// break moves back to the last '.' or '\n' inside the overlap window. Text
// that already fits is returned as a single chunk.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		return []string{text}
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end < len(text) {
			lastPeriod := strings.LastIndex(text[end-overlap:end], ".")
			lastNewline := strings.LastIndex(text[end-overlap:end], "\n")
			if bp := max(lastPeriod, lastNewline); bp != -1 {
				// Honor the break only when the next chunk still starts past
				// this one; a break early in a large overlap window would
				// otherwise walk start backwards.
				if moved := end - overlap + bp + 1; moved-overlap > start {
					end = moved
				}
			}
		} else {
			end = len(text)
		}

		chunks = append(chunks, text[start:end])
		if end >= len(text) {
			break
		}
		start = end - overlap
	}
	return chunks
}
