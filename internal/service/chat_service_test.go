package service

import (
	"context"
	"errors"
	"io"
	stdlog "log"
	"testing"
	"time"

	"support-chatbot-be/internal/config"
	"support-chatbot-be/internal/constant"
	"support-chatbot-be/internal/dto"
	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/websocket"
	"support-chatbot-be/pkg/llm"
	"support-chatbot-be/pkg/rag/chain"
	"support-chatbot-be/pkg/rag/history"
	"support-chatbot-be/pkg/rag/input"
	"support-chatbot-be/pkg/rag/language"
	"support-chatbot-be/pkg/rag/retriever"
	"support-chatbot-be/pkg/rag/vision"
	"support-chatbot-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmailService struct {
	alerts []string
	err    error
}

func (f *fakeEmailService) SendFeedbackAlert(toEmail, roomId, question, answer, comment string) error {
	if f.err != nil {
		return f.err
	}
	f.alerts = append(f.alerts, toEmail+" "+roomId+" "+comment)
	return nil
}

func newTestChatService(factory *fakeUowFactory, email *fakeEmailService) IChatService {
	log := &fakeLogger{}
	cfg := &config.Config{
		App: config.AppConfig{FeedbackAlertEmail: "support@example.com"},
		Retrieval: config.RetrievalConfig{
			ChatbotID:          "default-bot",
			StreamTokenDelayMs: 0,
		},
	}

	return NewChatService(
		factory,
		NewMemoryService(factory),
		newTestEmbedService(factory, time.Hour),
		nil, // the answer chain is not exercised by these tests
		&fakeEmbedProvider{},
		email,
		websocket.NewHub(nil, log),
		nil,
		cfg,
		log,
	)
}

// chatScriptedLLM drives a real answer chain through Stream: the
// consolidated processing call gets JSON, everything else a plain answer.
type chatScriptedLLM struct{}

func (chatScriptedLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return `{
		"detectedLanguage": "English",
		"translatedQuestion": "how do I export data",
		"contextualizedQuestion": "how do I export data",
		"conversationTitle": "Exporting data"
	}`, nil
}

func (chatScriptedLLM) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (string, error) {
	return "the export lives under Settings", nil
}

type fakeVectorStore struct {
	results []store.SearchResult
}

func (f *fakeVectorStore) SimilaritySearchVectorWithScore(ctx context.Context, vector []float32, k int, filter store.Filter) ([]store.SearchResult, error) {
	return f.results, nil
}

func (f *fakeVectorStore) Upsert(ctx context.Context, id string, vector []float32, doc store.Document) error {
	return nil
}

func newStreamTestChatService(factory *fakeUowFactory) IChatService {
	log := &fakeLogger{}
	cfg := &config.Config{
		Retrieval: config.RetrievalConfig{
			ChatbotID:          "default-bot",
			StreamTokenDelayMs: 0,
		},
	}

	provider := chatScriptedLLM{}
	embedder := &fakeEmbedProvider{}
	ragLogger := stdlog.New(io.Discard, "", 0)
	vs := &fakeVectorStore{results: []store.SearchResult{
		{Document: store.Document{Content: "export docs"}, Score: 0.5},
	}}

	answerChain := chain.NewChain(
		input.NewProcessor(provider, language.NewService(provider), "Acme"),
		history.NewSelector(embedder),
		retriever.NewRetriever(vs, embedder, retriever.DefaultConfig("default-bot"), ragLogger),
		vision.NewDescriber(provider, "vision-model", "Acme"),
		provider,
		chain.DefaultConfig("Acme", "Acme screenshot"),
		ragLogger,
	)

	return NewChatService(
		factory,
		NewMemoryService(factory),
		newTestEmbedService(factory, time.Hour),
		answerChain,
		embedder,
		&fakeEmailService{},
		websocket.NewHub(nil, log),
		nil,
		cfg,
		log,
	)
}

func TestStreamContinuesWhenPersistenceFails(t *testing.T) {
	factory := newFakeUowFactory()
	factory.uow.commitErr = errors.New("db down")
	s := newStreamTestChatService(factory)

	var events []string
	emit := func(event string, data interface{}) error {
		events = append(events, event)
		return nil
	}

	err := s.Stream(context.Background(), &dto.ChatStreamRequest{
		RoomId:   "room-1",
		Question: "how do I export data",
	}, emit)

	require.NoError(t, err)
	// The generated answer still streams out; the lost write is only logged.
	assert.Contains(t, events, constant.SSEEventToken)
	assert.Contains(t, events, constant.SSEEventComplete)
	assert.Contains(t, events, constant.SSEEventDone)
	assert.NotContains(t, events, constant.SSEEventError)
}

func TestLoadImageDescriptionFromChatUploadRow(t *testing.T) {
	factory := newFakeUowFactory()
	s := newTestChatService(factory, &fakeEmailService{}).(*chatService)
	ctx := context.Background()

	qaId := uuid.New().String()
	factory.uow.knowledge.rows = []*entity.KnowledgeEmbedding{{
		DocId:    "chat-room-1-" + qaId,
		Document: "a stack trace on screen",
	}}

	assert.Equal(t, "a stack trace on screen", s.loadImageDescription(ctx, "room-1", qaId))
	assert.Empty(t, s.loadImageDescription(ctx, "room-1", uuid.New().String()))
	assert.Empty(t, s.loadImageDescription(ctx, "room-1", ""))
}

func TestSourceDocsOfStripsImagePayloads(t *testing.T) {
	outcome := &chain.Outcome{
		Sources: []retriever.ScoredDocument{
			{
				Document: store.Document{
					Content: "export lives under Settings",
					Metadata: map[string]interface{}{
						"type":                "qa_pair",
						"user_image_payloads": []string{"data:image/png;base64,AAAA"},
					},
				},
				Score: 0.42,
			},
		},
	}

	docs := sourceDocsOf(outcome)

	require.Len(t, docs, 1)
	assert.Equal(t, "export lives under Settings", docs[0].PageContent)
	assert.Equal(t, 0.42, docs[0].Score)
	assert.Equal(t, "qa_pair", docs[0].Metadata["type"])
	assert.NotContains(t, docs[0].Metadata, "user_image_payloads")
}

func TestSubmitFeedbackRecordsThumbAndAlertsOnThumbsDown(t *testing.T) {
	factory := newFakeUowFactory()
	email := &fakeEmailService{}
	s := newTestChatService(factory, email)

	qaId := uuid.New()
	factory.uow.qaRecords.records = []*entity.QARecord{{
		Id:       uuid.New(),
		QaId:     qaId,
		RoomId:   "room-1",
		Question: "how do I export",
		Answer:   "Settings > Export",
	}}

	res, err := s.SubmitFeedback(context.Background(), &dto.FeedbackRequest{
		QaId:    qaId.String(),
		Thumb:   entity.ThumbDown,
		Comment: "the answer was wrong",
	})

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, qaId.String(), res.QaId)

	record := factory.uow.qaRecords.records[0]
	require.NotNil(t, record.Thumb)
	assert.Equal(t, entity.ThumbDown, *record.Thumb)
	require.NotNil(t, record.Comment)
	assert.Equal(t, "the answer was wrong", *record.Comment)

	require.Len(t, email.alerts, 1)
	assert.Contains(t, email.alerts[0], "support@example.com")
	assert.Contains(t, email.alerts[0], "the answer was wrong")
}

func TestSubmitFeedbackThumbsUpSendsNoAlert(t *testing.T) {
	factory := newFakeUowFactory()
	email := &fakeEmailService{}
	s := newTestChatService(factory, email)

	qaId := uuid.New()
	factory.uow.qaRecords.records = []*entity.QARecord{{QaId: qaId}}

	_, err := s.SubmitFeedback(context.Background(), &dto.FeedbackRequest{
		QaId:  qaId.String(),
		Thumb: entity.ThumbUp,
	})

	require.NoError(t, err)
	assert.Empty(t, email.alerts)
}

func TestSubmitFeedbackUnknownQaId(t *testing.T) {
	factory := newFakeUowFactory()
	s := newTestChatService(factory, &fakeEmailService{})

	res, err := s.SubmitFeedback(context.Background(), &dto.FeedbackRequest{
		QaId:  uuid.New().String(),
		Thumb: entity.ThumbUp,
	})

	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestSubmitFeedbackInvalidQaId(t *testing.T) {
	s := newTestChatService(newFakeUowFactory(), &fakeEmailService{})

	_, err := s.SubmitFeedback(context.Background(), &dto.FeedbackRequest{
		QaId:  "not-a-uuid",
		Thumb: entity.ThumbUp,
	})

	assert.Error(t, err)
}

func TestGetHistory(t *testing.T) {
	factory := newFakeUowFactory()
	s := newTestChatService(factory, &fakeEmailService{})

	factory.uow.chatHistories.histories = []*entity.ChatHistory{{
		ChatbotId:         "default-bot",
		RoomId:            "room-1",
		ConversationTitle: "Exporting data",
		Conversation: []entity.ChatTurn{
			{Type: entity.TurnTypeUser, Message: "how", IsComplete: true},
		},
	}}

	// An empty chatbot id falls back to the configured one.
	res, err := s.GetHistory(context.Background(), "", "room-1")

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "room-1", res.RoomId)
	assert.Equal(t, "Exporting data", res.ConversationTitle)
	assert.Len(t, res.Conversation, 1)
}

func TestGetHistoryUnknownRoom(t *testing.T) {
	s := newTestChatService(newFakeUowFactory(), &fakeEmailService{})

	res, err := s.GetHistory(context.Background(), "default-bot", "missing-room")

	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestDeleteHistoryRemovesTranscriptAndSession(t *testing.T) {
	factory := newFakeUowFactory()
	s := newTestChatService(factory, &fakeEmailService{})

	factory.uow.chatHistories.histories = []*entity.ChatHistory{{ChatbotId: "default-bot", RoomId: "room-1"}}
	factory.uow.roomSessions.sessions = []*entity.RoomSession{{ChatbotId: "default-bot", RoomId: "room-1", CreatedAt: time.Now()}}
	factory.uow.qaRecords.records = []*entity.QARecord{{ChatbotId: "default-bot", RoomId: "room-1"}}

	err := s.DeleteHistory(context.Background(), "", "room-1")

	require.NoError(t, err)
	assert.Empty(t, factory.uow.chatHistories.histories)
	assert.Empty(t, factory.uow.roomSessions.sessions)
	// QA records stay for audit.
	assert.Len(t, factory.uow.qaRecords.records, 1)
}
