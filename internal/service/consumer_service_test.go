package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"support-chatbot-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "EMBED_KNOWLEDGE_DOCUMENT"

func newTestBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
}

func waitForRows(t *testing.T, factory *fakeUowFactory, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(factory.uow.knowledge.rows) >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d knowledge rows, got %d", want, len(factory.uow.knowledge.rows))
}

func TestConsumerProcessesPublishedDocument(t *testing.T) {
	factory := newFakeUowFactory()
	bus := newTestBus()
	defer bus.Close()

	consumer := NewConsumerService(bus, testTopic, factory, &fakeEmbedProvider{}, nil)
	publisher := NewPublisherService(testTopic, bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	err := publisher.PublishEmbedDocument(ctx, &dto.PublishEmbedDocumentMessage{
		DocId:     "faq-export",
		ChatbotId: "bot-1",
		Type:      "txt",
		Source:    "manual",
		Header:    "Exporting data",
		Text:      "Open Settings and choose Export.",
		Metadata:  map[string]interface{}{"file": "faq-export.txt"},
	})
	require.NoError(t, err)

	waitForRows(t, factory, 1)

	row := factory.uow.knowledge.rows[0]
	assert.Equal(t, "faq-export-0", row.DocId)
	assert.Equal(t, "bot-1", row.ChatbotId)
	assert.Equal(t, "txt", row.Type)
	assert.Equal(t, "manual", row.Source)
	assert.Equal(t, "Exporting data", row.Metadata["header"])
	assert.Equal(t, "faq-export.txt", row.Metadata["file"])
	assert.Contains(t, row.Document, "header: Exporting data text: Open Settings")
}

func TestConsumerChunksLongDocuments(t *testing.T) {
	factory := newFakeUowFactory()
	bus := newTestBus()
	defer bus.Close()

	consumer := NewConsumerService(bus, testTopic, factory, &fakeEmbedProvider{}, nil)
	publisher := NewPublisherService(testTopic, bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	err := publisher.PublishEmbedDocument(ctx, &dto.PublishEmbedDocumentMessage{
		DocId:     "long-doc",
		ChatbotId: "bot-1",
		Type:      "txt",
		Source:    "manual",
		Text:      strings.Repeat("export data from settings ", 200), // ~5200 chars
	})
	require.NoError(t, err)

	waitForRows(t, factory, 2)
	time.Sleep(50 * time.Millisecond)

	rows := factory.uow.knowledge.rows
	assert.GreaterOrEqual(t, len(rows), 3)
	assert.Equal(t, "long-doc-0", rows[0].DocId)
	assert.Equal(t, "long-doc-1", rows[1].DocId)
}

func TestConsumerDropsInvalidMessages(t *testing.T) {
	factory := newFakeUowFactory()
	bus := newTestBus()
	defer bus.Close()

	consumer := NewConsumerService(bus, testTopic, factory, &fakeEmbedProvider{}, nil)
	publisher := NewPublisherService(testTopic, bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	// Missing doc_id; acked and dropped without writes.
	err := publisher.PublishEmbedDocument(ctx, &dto.PublishEmbedDocumentMessage{
		ChatbotId: "bot-1",
		Text:      "orphan content",
	})
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, factory.uow.knowledge.rows)
}
