package service

import (
	"context"
	"fmt"
	"time"

	"support-chatbot-be/internal/config"
	"support-chatbot-be/internal/constant"
	"support-chatbot-be/internal/dto"
	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/pkg/logger"
	"support-chatbot-be/internal/pkg/mailer"
	"support-chatbot-be/internal/repository/specification"
	"support-chatbot-be/internal/repository/unitofwork"
	"support-chatbot-be/internal/websocket"
	"support-chatbot-be/pkg/embedding"
	"support-chatbot-be/pkg/events"
	pktNats "support-chatbot-be/pkg/nats"
	"support-chatbot-be/pkg/rag/chain"

	"github.com/google/uuid"
)

// StreamEmitter sends one named event to the client. Implementations wrap an
// SSE connection.
type StreamEmitter func(event string, data interface{}) error

type IChatService interface {
	Stream(ctx context.Context, req *dto.ChatStreamRequest, emit StreamEmitter) error
	GetHistory(ctx context.Context, chatbotId, roomId string) (*dto.ChatHistoryResponse, error)
	GetLatestRoom(ctx context.Context, chatbotId, userEmail string) (*dto.LatestRoomResponse, error)
	DeleteHistory(ctx context.Context, chatbotId, roomId string) error
	SubmitFeedback(ctx context.Context, req *dto.FeedbackRequest) (*dto.FeedbackResponse, error)
}

type chatService struct {
	uowFactory        unitofwork.RepositoryFactory
	memoryService     IMemoryService
	embedService      IEmbedService
	answerChain       *chain.Chain
	embeddingProvider embedding.Provider
	emailService      mailer.IEmailService
	hub               *websocket.Hub
	natsPub           *pktNats.Publisher
	cfg               *config.Config
	logger            logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	memoryService IMemoryService,
	embedService IEmbedService,
	answerChain *chain.Chain,
	embeddingProvider embedding.Provider,
	emailService mailer.IEmailService,
	hub *websocket.Hub,
	natsPub *pktNats.Publisher,
	cfg *config.Config,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:        uowFactory,
		memoryService:     memoryService,
		embedService:      embedService,
		answerChain:       answerChain,
		embeddingProvider: embeddingProvider,
		emailService:      emailService,
		hub:               hub,
		natsPub:           natsPub,
		cfg:               cfg,
		logger:            log,
	}
}

// Stream answers one question over an already-opened event stream. Pipeline
// errors are reported as stream events, not transport errors, so the client
// always receives a terminal event.
func (s *chatService) Stream(ctx context.Context, req *dto.ChatStreamRequest, emit StreamEmitter) error {
	chatbotId := s.resolveChatbot(req.ChatbotId)

	if err := emit(constant.SSEEventConnected, map[string]interface{}{"room_id": req.RoomId}); err != nil {
		return err
	}

	// Embedding sessions hijack the chat input until they finish.
	session, err := s.embedService.ActiveSession(ctx, chatbotId, req.RoomId)
	if err != nil {
		s.logger.Error("ChatService", "Session lookup failed", map[string]interface{}{"error": err})
	}
	if s.embedService.IsEmbedTrigger(req.Question) || session != nil {
		return s.streamEmbedSession(ctx, chatbotId, req, emit)
	}

	history, err := s.memoryService.Load(ctx, chatbotId, req.RoomId)
	if err != nil {
		return s.streamError(emit, "Failed to load conversation history", err)
	}

	transcript := s.memoryService.Transcript(history)
	isFirstMessage := len(transcript) == 0

	historicalImages, lastQaId := s.memoryService.LastImageContext(history)
	lastImageDescription := s.loadImageDescription(ctx, req.RoomId, lastQaId)

	outcome, err := s.answerChain.Run(ctx, chain.Request{
		Question:             req.Question,
		ImageURLs:            req.ImageUrls,
		History:              transcript,
		HistoricalImageURLs:  historicalImages,
		LastImageDescription: lastImageDescription,
		IsFirstMessage:       isFirstMessage,
	})
	if err != nil {
		return s.streamError(emit, "Failed to generate an answer", err)
	}

	qaId := uuid.New()
	sources := sourceDocsOf(outcome)

	// Persistence failures never cost the user an answer that was already
	// generated; the turn goes on unrecorded.
	if err := s.persistAnswer(ctx, chatbotId, req, outcome, qaId, sources, history, isFirstMessage); err != nil {
		s.logger.Error("ChatService", "Failed to save the answer", map[string]interface{}{"error": err})
	}

	s.ingestUserImages(ctx, chatbotId, req, outcome, qaId)

	delay := time.Duration(s.cfg.Retrieval.StreamTokenDelayMs) * time.Millisecond
	err = chain.StreamWords(ctx, outcome.Answer, delay, func(chunk string) error {
		s.hub.SendToRoom(req.RoomId, constant.WSEventTokenStream, chunk)
		return emit(constant.SSEEventToken, chunk)
	})
	if err != nil {
		return err
	}

	if err := emit(constant.SSEEventComplete, dto.ChatCompleteData{
		Answer:            outcome.Answer,
		QaId:              qaId.String(),
		ConversationTitle: outcome.ConversationTitle,
		Language:          outcome.Language,
		ModelType:         outcome.ModelType,
		Sources:           sources,
	}); err != nil {
		return err
	}

	if s.natsPub != nil {
		evt := events.NewChatAnsweredEvent(req.RoomId, qaId.String(), outcome.Language, outcome.ModelType)
		if err := s.natsPub.Publish(ctx, evt); err != nil {
			s.logger.Warn("ChatService", "Failed to publish chat event", map[string]interface{}{"error": err})
		}
	}

	return emit(constant.SSEEventDone, nil)
}

func (s *chatService) streamEmbedSession(ctx context.Context, chatbotId string, req *dto.ChatStreamRequest, emit StreamEmitter) error {
	res, err := s.embedService.HandleMessage(ctx, &dto.EmbedMessageRequest{
		ChatbotId: chatbotId,
		RoomId:    req.RoomId,
		Message:   req.Question,
		ImageUrls: req.ImageUrls,
	})
	if err != nil {
		return s.streamError(emit, "Embedding session failed", err)
	}

	delay := time.Duration(s.cfg.Retrieval.StreamTokenDelayMs) * time.Millisecond
	err = chain.StreamWords(ctx, res.Message, delay, func(chunk string) error {
		s.hub.SendToRoom(req.RoomId, constant.WSEventTokenStream, chunk)
		return emit(constant.SSEEventToken, chunk)
	})
	if err != nil {
		return err
	}

	if err := emit(constant.SSEEventComplete, dto.ChatCompleteData{
		Answer:    res.Message,
		ModelType: "embed_session",
	}); err != nil {
		return err
	}
	return emit(constant.SSEEventDone, nil)
}

func (s *chatService) streamError(emit StreamEmitter, message string, err error) error {
	s.logger.Error("ChatService", message, map[string]interface{}{"error": err})
	if emitErr := emit(constant.SSEEventError, map[string]interface{}{"message": message}); emitErr != nil {
		return emitErr
	}
	return emit(constant.SSEEventDone, nil)
}

func (s *chatService) persistAnswer(
	ctx context.Context,
	chatbotId string,
	req *dto.ChatStreamRequest,
	outcome *chain.Outcome,
	qaId uuid.UUID,
	sources []entity.SourceDoc,
	history *entity.ChatHistory,
	isFirstMessage bool,
) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	record := &entity.QARecord{
		Id:                     uuid.New(),
		QaId:                   qaId,
		ChatbotId:              chatbotId,
		RoomId:                 req.RoomId,
		Question:               req.Question,
		Answer:                 outcome.Answer,
		ContextualizedQuestion: outcome.ContextualizedQuestion,
		Sources:                sources,
		ImageUrls:              req.ImageUrls,
		Language:               outcome.Language,
		ModelType:              outcome.ModelType,
		CreatedAt:              time.Now(),
	}
	if err := uow.QARecordRepository().Create(ctx, record); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	title := ""
	if isFirstMessage {
		title = outcome.ConversationTitle
	}

	return s.memoryService.RecordExchange(ctx, history, ExchangeParams{
		ChatbotId: chatbotId,
		RoomId:    req.RoomId,
		UserEmail: req.UserEmail,
		Title:     title,
		UserTurn: entity.ChatTurn{
			Type:       entity.TurnTypeUser,
			Message:    req.Question,
			IsComplete: true,
			ImageUrls:  req.ImageUrls,
		},
		ApiTurn: entity.ChatTurn{
			Type:       entity.TurnTypeAPI,
			Message:    outcome.Answer,
			IsComplete: true,
			QaId:       qaId.String(),
			SourceDocs: sources,
		},
	})
}

// ingestUserImages stores described chat uploads in the knowledge base under
// source chat_conversation. That source is excluded from retrieval, so these
// rows only serve audit and later re-inspection. Failures are logged only.
func (s *chatService) ingestUserImages(ctx context.Context, chatbotId string, req *dto.ChatStreamRequest, outcome *chain.Outcome, qaId uuid.UUID) {
	if len(req.ImageUrls) == 0 || outcome.ImageDescription == "" {
		return
	}

	vector, err := s.embeddingProvider.EmbedQuery(ctx, outcome.ImageDescription)
	if err != nil {
		s.logger.Warn("ChatService", "Failed to embed chat image description", map[string]interface{}{"error": err})
		return
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	row := &entity.KnowledgeEmbedding{
		Id:        uuid.New(),
		DocId:     fmt.Sprintf("chat-%s-%s", req.RoomId, qaId),
		ChatbotId: chatbotId,
		Type:      constant.DocTypeUserInput,
		Source:    entity.SourceChatConversation,
		Document:  outcome.ImageDescription,
		Metadata: map[string]interface{}{
			"image_urls": req.ImageUrls,
			"qa_id":      qaId.String(),
		},
		EmbeddingValue: vector,
		CreatedAt:      time.Now(),
	}
	if err := uow.KnowledgeEmbeddingRepository().Upsert(ctx, row); err != nil {
		s.logger.Warn("ChatService", "Failed to store chat image embedding", map[string]interface{}{"error": err})
	}
}

// loadImageDescription recovers the stored description of an earlier upload
// from the chat_conversation knowledge row written alongside its answer.
func (s *chatService) loadImageDescription(ctx context.Context, roomId, qaId string) string {
	if qaId == "" {
		return ""
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	row, err := uow.KnowledgeEmbeddingRepository().FindOne(ctx,
		specification.ByDocId{DocId: fmt.Sprintf("chat-%s-%s", roomId, qaId)},
	)
	if err != nil || row == nil {
		return ""
	}
	return row.Document
}

func (s *chatService) GetHistory(ctx context.Context, chatbotId, roomId string) (*dto.ChatHistoryResponse, error) {
	history, err := s.memoryService.Load(ctx, s.resolveChatbot(chatbotId), roomId)
	if err != nil || history == nil {
		return nil, err
	}

	return &dto.ChatHistoryResponse{
		RoomId:            history.RoomId,
		ConversationTitle: history.ConversationTitle,
		Conversation:      history.Conversation,
		CreatedAt:         history.CreatedAt,
		UpdatedAt:         history.UpdatedAt,
	}, nil
}

func (s *chatService) GetLatestRoom(ctx context.Context, chatbotId, userEmail string) (*dto.LatestRoomResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	histories, err := uow.ChatHistoryRepository().FindAll(ctx,
		specification.ByChatbotId{ChatbotId: s.resolveChatbot(chatbotId)},
		specification.ByUserEmail{Email: userEmail},
		specification.OrderBy{Field: "coalesce(updated_at, created_at)", Desc: true},
		specification.Pagination{Limit: 1, Offset: 0},
	)
	if err != nil || len(histories) == 0 {
		return nil, err
	}

	latest := histories[0]
	return &dto.LatestRoomResponse{
		RoomId:            latest.RoomId,
		ConversationTitle: latest.ConversationTitle,
		UpdatedAt:         latest.UpdatedAt,
		CreatedAt:         latest.CreatedAt,
	}, nil
}

// DeleteHistory removes the transcript and any in-progress embedding session
// for the room. QA records stay for audit.
func (s *chatService) DeleteHistory(ctx context.Context, chatbotId, roomId string) error {
	resolved := s.resolveChatbot(chatbotId)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatHistoryRepository().DeleteByRoomId(ctx, resolved, roomId); err != nil {
		return err
	}
	if err := uow.RoomSessionRepository().DeleteByRoomId(ctx, resolved, roomId); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *chatService) SubmitFeedback(ctx context.Context, req *dto.FeedbackRequest) (*dto.FeedbackResponse, error) {
	qaId, err := uuid.Parse(req.QaId)
	if err != nil {
		return nil, fmt.Errorf("invalid qa id: %w", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	record, err := uow.QARecordRepository().FindOne(ctx, specification.ByQaId{QaId: qaId})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	thumb := req.Thumb
	record.Thumb = &thumb
	if req.Comment != "" {
		comment := req.Comment
		record.Comment = &comment
	}

	if err := uow.QARecordRepository().Update(ctx, record); err != nil {
		return nil, err
	}

	// A thumbs-down with a written comment means the knowledge base is
	// missing something; alert the support team.
	if req.Thumb == entity.ThumbDown && req.Comment != "" && s.cfg.App.FeedbackAlertEmail != "" {
		if err := s.emailService.SendFeedbackAlert(
			s.cfg.App.FeedbackAlertEmail,
			record.RoomId,
			record.Question,
			record.Answer,
			req.Comment,
		); err != nil {
			s.logger.Warn("ChatService", "Failed to send feedback alert", map[string]interface{}{"error": err})
		}
	}

	if s.natsPub != nil {
		if err := s.natsPub.Publish(ctx, events.NewFeedbackReceivedEvent(req.QaId, req.Thumb)); err != nil {
			s.logger.Warn("ChatService", "Failed to publish feedback event", map[string]interface{}{"error": err})
		}
	}

	return &dto.FeedbackResponse{QaId: req.QaId}, nil
}

func (s *chatService) resolveChatbot(chatbotId string) string {
	if chatbotId != "" {
		return chatbotId
	}
	return s.cfg.Retrieval.ChatbotID
}

func sourceDocsOf(outcome *chain.Outcome) []entity.SourceDoc {
	docs := make([]entity.SourceDoc, 0, len(outcome.Sources))
	for _, src := range outcome.Sources {
		// Base64 payloads the retriever attaches for the vision pass have no
		// business being persisted.
		metadata := make(map[string]interface{}, len(src.Document.Metadata))
		for k, v := range src.Document.Metadata {
			if k == "user_image_payloads" {
				continue
			}
			metadata[k] = v
		}
		docs = append(docs, entity.SourceDoc{
			PageContent: src.Document.Content,
			Metadata:    metadata,
			Score:       src.Score,
		})
	}
	return docs
}
