package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"support-chatbot-be/internal/dto"
	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/repository/unitofwork"
	"support-chatbot-be/pkg/embedding"
	"support-chatbot-be/pkg/events"
	pktNats "support-chatbot-be/pkg/nats"
	"support-chatbot-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
	natsPub           *pktNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
	natsPub *pktNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		natsPub:           natsPub,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage chunks, embeds and upserts one knowledge document. Upserts
// are keyed by doc id plus chunk index, so republishing a document replaces
// its previous chunks instead of duplicating them.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedDocumentMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}
	if payload.DocId == "" || payload.ChatbotId == "" {
		log.Printf("[ERROR] Message missing doc_id or chatbot_id, dropping")
		msg.Ack()
		return
	}

	log.Printf("[INFO] Processing knowledge document %s", payload.DocId)

	content := payload.Text
	if payload.Header != "" {
		content = fmt.Sprintf("header: %s text: %s", payload.Header, payload.Text)
	}

	// ChunkSize: 1500 chars (approx 375 tokens) - Ultra safe for context limits
	// Overlap: 200 chars
	chunks := utils.SplitText(content, 1500, 200)
	log.Printf("[INFO] Document %s split into %d chunks", payload.DocId, len(chunks))

	vectors, err := cs.embeddingProvider.EmbedDocuments(ctx, chunks)
	if err != nil {
		log.Printf("[ERROR] Failed to embed document %s: %v", payload.DocId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if len(vectors) != len(chunks) {
		log.Printf("[ERROR] Embedding count mismatch for %s: %d chunks, %d vectors", payload.DocId, len(chunks), len(vectors))
		msg.Nack()
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	now := time.Now()
	for i, chunk := range chunks {
		metadata := map[string]interface{}{
			"header": payload.Header,
			"type":   payload.Type,
		}
		for k, v := range payload.Metadata {
			metadata[k] = v
		}

		row := &entity.KnowledgeEmbedding{
			Id:             uuid.New(),
			DocId:          fmt.Sprintf("%s-%d", payload.DocId, i),
			ChatbotId:      payload.ChatbotId,
			Type:           payload.Type,
			Source:         payload.Source,
			Document:       chunk,
			Metadata:       metadata,
			EmbeddingValue: vectors[i],
			CreatedAt:      now,
		}
		if err := uow.KnowledgeEmbeddingRepository().Upsert(ctx, row); err != nil {
			log.Printf("[ERROR] Failed to upsert chunk %d of %s: %v", i, payload.DocId, err)
			msg.Nack()
			return
		}
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit transaction: %v", err)
		msg.Nack()
		return
	}

	if cs.natsPub != nil {
		evt := events.NewEmbeddingCompletedEvent("", payload.DocId)
		if err := cs.natsPub.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish embedding event for %s: %v", payload.DocId, err)
		}
	}

	log.Printf("[SUCCESS] Document processed: %d chunks for DocId: %s", len(chunks), payload.DocId)
	msg.Ack()
}
