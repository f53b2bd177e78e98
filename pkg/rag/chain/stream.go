package chain

import (
	"context"
	"strings"
	"time"
)

// StreamWords emits the answer one word at a time with a delay between
// emissions, simulating token streaming from a buffered answer. Each emitted
// chunk carries its trailing space so the client can concatenate directly.
// Returns early when the context is cancelled or emit reports an error.
func StreamWords(ctx context.Context, answer string, delay time.Duration, emit func(chunk string) error) error {
	words := strings.Fields(answer)
	for i, word := range words {
		chunk := word
		if i < len(words)-1 {
			chunk += " "
		}
		if err := emit(chunk); err != nil {
			return err
		}
		if i == len(words)-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil
}
