package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	text := "Invoice #: 1001. Total: $250.00"
	chunks := Chunk(text, 2000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunk_BreaksAtSentenceBoundary(t *testing.T) {
	// 60-byte chunks with a 20-byte overlap window; the period inside the
	// window should become the break point.
	text := strings.Repeat("word ", 9) + "end." + strings.Repeat(" more", 20)
	chunks := Chunk(text, 60, 20)

	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0], "end."), "got %q", chunks[0])
}

func TestChunk_OverlapCarriesContext(t *testing.T) {
	text := strings.Repeat("abcdefghij", 50) // 500 bytes, no break points
	chunks := Chunk(text, 100, 20)

	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1][len(chunks[i-1])-20:]
		assert.True(t, strings.HasPrefix(chunks[i], prevTail),
			"chunk %d should start with the last 20 bytes of chunk %d", i, i-1)
	}
}

func TestChunk_CoversWholeText(t *testing.T) {
	text := strings.Repeat("0123456789", 37)
	chunks := Chunk(text, 80, 15)

	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasPrefix(text, chunks[0]))
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))

	// Stitching chunks minus their overlap must reproduce the input.
	rebuilt := chunks[0]
	for _, c := range chunks[1:] {
		rebuilt += c[15:]
	}
	assert.Equal(t, text, rebuilt)
}

func TestChunk_LargeOverlapWithEarlyBreakPoint(t *testing.T) {
	// overlap of two thirds the chunk size, with the document's only period
	// sitting early in the first overlap window. The break must not pull the
	// next start behind the current one.
	text := strings.Repeat("a", 105) + "." + strings.Repeat("b", 2000)
	chunks := Chunk(text, 300, 200)

	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasPrefix(text, chunks[0]))
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 300, "chunk %d exceeds the chunk size", i)
	}
	// bounded chunk count proves every iteration advanced
	assert.LessOrEqual(t, len(chunks), len(text)/(300-200)+1)
}

func TestChunk_DegenerateParams(t *testing.T) {
	text := strings.Repeat("x", 100)
	assert.Equal(t, []string{text}, Chunk(text, 0, 10))
	// overlap >= size is ignored rather than looping forever
	chunks := Chunk(text, 10, 10)
	assert.NotEmpty(t, chunks)
}
