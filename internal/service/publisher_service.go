package service

import (
	"context"
	"encoding/json"

	"support-chatbot-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IPublisherService interface {
	PublishEmbedDocument(ctx context.Context, msg *dto.PublishEmbedDocumentMessage) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

// PublishEmbedDocument queues a document for asynchronous chunking and
// embedding by the consumer service.
func (p *publisherService) PublishEmbedDocument(ctx context.Context, msg *dto.PublishEmbedDocumentMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	m := message.NewMessage(watermill.NewUUID(), payload)
	m.SetContext(ctx)

	return p.pubSub.Publish(p.topicName, m)
}
