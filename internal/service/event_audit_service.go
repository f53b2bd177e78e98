package service

import (
	"context"

	"support-chatbot-be/internal/pkg/logger"
	"support-chatbot-be/pkg/events"
	pktNats "support-chatbot-be/pkg/nats"
)

// IEventAuditService tails the event bus and writes every domain event into
// the isolated event log, where the ops endpoint can surface it.
type IEventAuditService interface {
	Start() error
}

type eventAuditService struct {
	subscriber *pktNats.Subscriber
	logger     logger.ILogger
}

func NewEventAuditService(subscriber *pktNats.Subscriber, log logger.ILogger) IEventAuditService {
	return &eventAuditService{
		subscriber: subscriber,
		logger:     log,
	}
}

func (s *eventAuditService) Start() error {
	return s.subscriber.Subscribe("events.>", "chat-event-audit", func(ctx context.Context, event events.Event) error {
		s.logger.Info("EventAudit", event.EventType(), event.Payload())
		return nil
	})
}
