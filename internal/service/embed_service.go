package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"support-chatbot-be/internal/config"
	"support-chatbot-be/internal/constant"
	"support-chatbot-be/internal/dto"
	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/pkg/logger"
	"support-chatbot-be/internal/repository/specification"
	"support-chatbot-be/internal/repository/unitofwork"
	"support-chatbot-be/internal/websocket"
	"support-chatbot-be/pkg/embedding"
	"support-chatbot-be/pkg/events"
	pktNats "support-chatbot-be/pkg/nats"
	"support-chatbot-be/pkg/rag/vision"
	"support-chatbot-be/pkg/utils"

	"github.com/google/uuid"
)

// Chunking parameters for session documents, matching the ingestion consumer.
const (
	embedChunkSize    = 1500
	embedChunkOverlap = 200
)

type IEmbedService interface {
	// IsEmbedTrigger reports whether a message opens (or resets) a session.
	IsEmbedTrigger(message string) bool
	// ActiveSession returns the live session for the room, expiring stale
	// ones on read. Nil means no session.
	ActiveSession(ctx context.Context, chatbotId, roomId string) (*entity.RoomSession, error)
	// HandleMessage advances the session state machine by one user message.
	HandleMessage(ctx context.Context, req *dto.EmbedMessageRequest) (*dto.EmbedMessageResponse, error)
}

type embedService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
	describer         *vision.Describer
	hub               *websocket.Hub
	natsPub           *pktNats.Publisher
	cfg               config.EmbedSessionConfig
	logger            logger.ILogger
}

func NewEmbedService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
	describer *vision.Describer,
	hub *websocket.Hub,
	natsPub *pktNats.Publisher,
	cfg config.EmbedSessionConfig,
	log logger.ILogger,
) IEmbedService {
	return &embedService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		describer:         describer,
		hub:               hub,
		natsPub:           natsPub,
		cfg:               cfg,
		logger:            log,
	}
}

func (s *embedService) IsEmbedTrigger(message string) bool {
	return strings.TrimSpace(message) == s.cfg.Keyword
}

func (s *embedService) ActiveSession(ctx context.Context, chatbotId, roomId string) (*entity.RoomSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.RoomSessionRepository().FindOne(ctx,
		specification.ByChatbotId{ChatbotId: chatbotId},
		specification.ByRoomId{RoomId: roomId},
	)
	if err != nil || session == nil {
		return nil, err
	}

	if time.Since(session.CreatedAt) > s.cfg.SessionTTL {
		s.logger.Info("EmbedService", "Expiring stale session", map[string]interface{}{"room_id": roomId})
		if err := uow.RoomSessionRepository().DeleteByRoomId(ctx, chatbotId, roomId); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return session, nil
}

func (s *embedService) HandleMessage(ctx context.Context, req *dto.EmbedMessageRequest) (*dto.EmbedMessageResponse, error) {
	session, err := s.ActiveSession(ctx, req.ChatbotId, req.RoomId)
	if err != nil {
		return nil, err
	}

	if s.IsEmbedTrigger(req.Message) {
		// A second keyword discards whatever was collected and starts over.
		if session != nil {
			uow := s.uowFactory.NewUnitOfWork(ctx)
			if err := uow.RoomSessionRepository().DeleteByRoomId(ctx, req.ChatbotId, req.RoomId); err != nil {
				return nil, err
			}
		}
		return s.startSession(ctx, req)
	}

	if session == nil {
		return nil, fmt.Errorf("no active embedding session for room %s", req.RoomId)
	}

	// Images jump the session straight to the image stage and finalize in
	// the same request, regardless of where it was.
	if len(req.ImageUrls) > 0 {
		return s.collectImages(ctx, session, req)
	}

	switch session.Stage {
	case entity.StageStarted, entity.StageAwaitHeader:
		return s.collectHeader(ctx, session, req)
	case entity.StageAwaitText:
		return s.collectText(ctx, session, req)
	case entity.StageAwaitImages:
		// Any message at the image stage finalizes without images.
		return s.finalize(ctx, session, req)
	default:
		return nil, fmt.Errorf("invalid request flow for room %s", req.RoomId)
	}
}

// startSession creates the row at stage 1 and immediately advances it to the
// header stage; the keyword message itself is consumed as the mode switch.
func (s *embedService) startSession(ctx context.Context, req *dto.EmbedMessageRequest) (*dto.EmbedMessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session := &entity.RoomSession{
		Id:        uuid.New(),
		ChatbotId: req.ChatbotId,
		RoomId:    req.RoomId,
		Stage:     entity.StageStarted,
		CreatedAt: time.Now(),
	}
	if err := uow.RoomSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	session.Stage = entity.StageAwaitHeader
	if err := uow.RoomSessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}

	s.hub.SendToRoom(req.RoomId, constant.WSEventStageUpdate, map[string]interface{}{"stage": entity.StageAwaitHeader})

	return &dto.EmbedMessageResponse{
		Stage:   entity.StageAwaitHeader,
		Message: "Embedding session started. Please send a header or title for the document.",
	}, nil
}

func (s *embedService) collectHeader(ctx context.Context, session *entity.RoomSession, req *dto.EmbedMessageRequest) (*dto.EmbedMessageResponse, error) {
	session.Header = strings.TrimSpace(req.Message)
	if session.Header == "" {
		return &dto.EmbedMessageResponse{
			Stage:   entity.StageAwaitHeader,
			Message: "The header cannot be empty. Please send a header or title for the document.",
		}, nil
	}

	session.Stage = entity.StageAwaitText
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.RoomSessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}

	s.hub.SendToRoom(req.RoomId, constant.WSEventStageUpdate, map[string]interface{}{"stage": entity.StageAwaitText})

	return &dto.EmbedMessageResponse{
		Stage:   entity.StageAwaitText,
		Message: "Got it. Now send the text you want embedded.",
	}, nil
}

func (s *embedService) collectText(ctx context.Context, session *entity.RoomSession, req *dto.EmbedMessageRequest) (*dto.EmbedMessageResponse, error) {
	session.Text = strings.TrimSpace(req.Message)
	if session.Text == "" {
		return &dto.EmbedMessageResponse{
			Stage:   entity.StageAwaitText,
			Message: "The text cannot be empty. Please send the text you want embedded.",
		}, nil
	}

	session.Stage = entity.StageAwaitImages
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.RoomSessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}

	s.hub.SendToRoom(req.RoomId, constant.WSEventStageUpdate, map[string]interface{}{"stage": entity.StageAwaitImages})

	return &dto.EmbedMessageResponse{
		Stage:   entity.StageAwaitImages,
		Message: "Text received. Upload any images that belong to this document now, or send any other message to finalize.",
	}, nil
}

// collectImages appends new image URLs exactly once each, describes them and
// finalizes the embed in the same request. Opaque hosts get a static
// description instead of a wasted vision call.
func (s *embedService) collectImages(ctx context.Context, session *entity.RoomSession, req *dto.EmbedMessageRequest) (*dto.EmbedMessageResponse, error) {
	session.Stage = entity.StageAwaitImages

	known := make(map[string]bool, len(session.Images))
	for _, img := range session.Images {
		known[img.Url] = true
	}

	for _, url := range req.ImageUrls {
		if known[url] {
			continue
		}
		known[url] = true

		s.hub.SendToRoom(req.RoomId, constant.WSEventUploadStatus, map[string]interface{}{
			"url":    url,
			"status": "processing",
		})

		description, ok := opaqueImageDescription(url)
		if !ok {
			var err error
			description, err = s.describer.Describe(ctx, []string{url}, session.Header)
			if err != nil {
				s.logger.Warn("EmbedService", "Image description failed", map[string]interface{}{"url": url, "error": err})
				description = ""
			}
		}
		session.Images = append(session.Images, entity.SessionImage{Url: url, Description: description})

		s.hub.SendToRoom(req.RoomId, constant.WSEventUploadStatus, map[string]interface{}{
			"url":    url,
			"status": "done",
		})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.RoomSessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}

	s.hub.SendToRoom(req.RoomId, constant.WSEventStageUpdate, map[string]interface{}{"stage": entity.StageAwaitImages})

	return s.finalize(ctx, session, req)
}

// opaqueImageDescription covers hosts that serve a login wall instead of the
// image; describing those wastes a vision call.
func opaqueImageDescription(url string) (string, bool) {
	if strings.Contains(url, "linkedin") {
		return "LinkedIn image URL, no description fetched.", true
	}
	return "", false
}

// finalize composes the document, chunks it, embeds every chunk and upserts
// the rows. The session is deleted only after the write succeeds.
func (s *embedService) finalize(ctx context.Context, session *entity.RoomSession, req *dto.EmbedMessageRequest) (*dto.EmbedMessageResponse, error) {
	document := s.composeDocument(session)
	chunks := utils.SplitText(document, embedChunkSize, embedChunkOverlap)

	vectors, err := s.embeddingProvider.EmbedDocuments(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to embed session document: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}

	docId := fmt.Sprintf("session-%s-%s", session.RoomId, session.Id)
	imageUrls := make([]string, 0, len(session.Images))
	for _, img := range session.Images {
		imageUrls = append(imageUrls, img.Url)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	now := time.Now()
	for i, chunk := range chunks {
		metadata := map[string]interface{}{
			"header": session.Header,
			"type":   constant.DocTypeUserInput,
		}
		if len(imageUrls) > 0 {
			metadata["image_urls"] = imageUrls
		}

		row := &entity.KnowledgeEmbedding{
			Id:             uuid.New(),
			DocId:          fmt.Sprintf("%s-%d", docId, i),
			ChatbotId:      session.ChatbotId,
			Type:           constant.DocTypeUserInput,
			Source:         "embed_session",
			Document:       chunk,
			Metadata:       metadata,
			EmbeddingValue: vectors[i],
			CreatedAt:      now,
		}
		if err := uow.KnowledgeEmbeddingRepository().Upsert(ctx, row); err != nil {
			return nil, fmt.Errorf("failed to upsert session chunk %d: %w", i, err)
		}
	}

	if err := uow.RoomSessionRepository().DeleteByRoomId(ctx, session.ChatbotId, session.RoomId); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.hub.SendToRoom(req.RoomId, constant.WSEventRemoveThumbnails, nil)
	s.hub.SendToRoom(req.RoomId, constant.WSEventEmbeddingComplete, map[string]interface{}{"doc_id": docId})

	if s.natsPub != nil {
		if err := s.natsPub.Publish(ctx, events.NewEmbeddingCompletedEvent(session.RoomId, docId)); err != nil {
			s.logger.Warn("EmbedService", "Failed to publish embedding event", map[string]interface{}{"error": err})
		}
	}

	s.logger.Info("EmbedService", "Session embedded", map[string]interface{}{
		"room_id": session.RoomId,
		"doc_id":  docId,
		"chunks":  len(chunks),
	})

	return &dto.EmbedMessageResponse{
		Stage:   entity.StageAwaitImages,
		Message: constant.EmbedSuccessMessage,
		Done:    true,
	}, nil
}

// composeDocument renders the session in the embedded-document layout. The
// trigger keyword doubles as the document prefix so session documents remain
// recognizable in the knowledge base.
func (s *embedService) composeDocument(session *entity.RoomSession) string {
	var b strings.Builder
	b.WriteString(s.cfg.Keyword + " header: " + session.Header)
	for _, img := range session.Images {
		b.WriteString(" " + img.Url + " image description: " + img.Description)
	}
	b.WriteString(" text: " + session.Text)
	return b.String()
}
