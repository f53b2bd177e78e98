package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTextShortInputSingleChunk(t *testing.T) {
	chunks := SplitText("short text", 1500, 200)

	assert.Equal(t, []string{"short text"}, chunks)
}

func TestSplitTextChunksWithOverlap(t *testing.T) {
	text := strings.Repeat("a", 100)

	chunks := SplitText(text, 40, 10)

	assert.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 40)
	}

	// Consecutive chunks share the overlap region.
	step := 40 - 10
	assert.Equal(t, text[step:step+40], chunks[1])
}

func TestSplitTextOverlapLargerThanChunkSize(t *testing.T) {
	text := strings.Repeat("b", 100)

	// Degenerate overlap falls back to non-overlapping chunks instead of
	// looping forever.
	chunks := SplitText(text, 20, 30)

	assert.Len(t, chunks, 5)
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitTextHandlesMultibyteRunes(t *testing.T) {
	text := strings.Repeat("é", 50)

	chunks := SplitText(text, 20, 5)

	var total int
	for _, chunk := range chunks {
		total = len([]rune(chunk))
		assert.LessOrEqual(t, total, 20)
	}
	assert.Equal(t, "é", string([]rune(chunks[0])[0]))
}
