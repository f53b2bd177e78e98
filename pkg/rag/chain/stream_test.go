package chain

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStreamWordsEmitsConcatenableChunks(t *testing.T) {
	var chunks []string
	err := StreamWords(context.Background(), "hello world again", 0, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{"hello ", "world ", "again"}, chunks)
	assert.Equal(t, "hello world again", strings.Join(chunks, ""))
}

func TestStreamWordsCollapsesWhitespace(t *testing.T) {
	var chunks []string
	err := StreamWords(context.Background(), "  spaced\n\nout  ", 0, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{"spaced ", "out"}, chunks)
}

func TestStreamWordsEmptyAnswer(t *testing.T) {
	calls := 0
	err := StreamWords(context.Background(), "", 0, func(chunk string) error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Zero(t, calls)
}

func TestStreamWordsStopsOnEmitError(t *testing.T) {
	calls := 0
	err := StreamWords(context.Background(), "one two three", 0, func(chunk string) error {
		calls++
		if calls == 2 {
			return assert.AnError
		}
		return nil
	})

	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 2, calls)
}

func TestStreamWordsStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := StreamWords(ctx, "one two three four", 50*time.Millisecond, func(chunk string) error {
		calls++
		if calls == 1 {
			cancel()
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
