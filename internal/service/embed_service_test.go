package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"support-chatbot-be/internal/config"
	"support-chatbot-be/internal/dto"
	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/websocket"
	"support-chatbot-be/pkg/llm"
	"support-chatbot-be/pkg/rag/vision"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyword = "embed-4831-embed-4831"

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

type fakeEmbedProvider struct {
	err error
}

func (f *fakeEmbedProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

func (f *fakeEmbedProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (f *fakeEmbedProvider) Dimensions() int { return 2 }
func (f *fakeEmbedProvider) Name() string    { return "fake" }

func newTestEmbedService(factory *fakeUowFactory, ttl time.Duration) IEmbedService {
	return newTestEmbedServiceWithLLM(factory, ttl, &fakeLLM{response: "a diagram of the flow"})
}

func newTestEmbedServiceWithLLM(factory *fakeUowFactory, ttl time.Duration, visionLLM *fakeLLM) IEmbedService {
	log := &fakeLogger{}
	return NewEmbedService(
		factory,
		&fakeEmbedProvider{},
		vision.NewDescriber(visionLLM, "vision-model", "Acme"),
		websocket.NewHub(nil, log),
		nil,
		config.EmbedSessionConfig{Keyword: testKeyword, SessionTTL: ttl},
		log,
	)
}

func embedReq(message string, imageUrls ...string) *dto.EmbedMessageRequest {
	return &dto.EmbedMessageRequest{
		ChatbotId: "bot-1",
		RoomId:    "room-1",
		Message:   message,
		ImageUrls: imageUrls,
	}
}

func TestIsEmbedTrigger(t *testing.T) {
	s := newTestEmbedService(newFakeUowFactory(), time.Hour)

	assert.True(t, s.IsEmbedTrigger(testKeyword))
	assert.True(t, s.IsEmbedTrigger("  "+testKeyword+"  "))
	assert.False(t, s.IsEmbedTrigger("hello"))
	assert.False(t, s.IsEmbedTrigger(testKeyword+" extra"))
}

func TestHandleMessageKeywordStartsSession(t *testing.T) {
	factory := newFakeUowFactory()
	s := newTestEmbedService(factory, time.Hour)

	res, err := s.HandleMessage(context.Background(), embedReq(testKeyword))

	require.NoError(t, err)
	assert.Equal(t, entity.StageAwaitHeader, res.Stage)
	assert.False(t, res.Done)
	require.Len(t, factory.uow.roomSessions.sessions, 1)
	assert.Equal(t, entity.StageAwaitHeader, factory.uow.roomSessions.sessions[0].Stage)
}

func TestHandleMessageSecondKeywordResetsSession(t *testing.T) {
	factory := newFakeUowFactory()
	s := newTestEmbedService(factory, time.Hour)
	ctx := context.Background()

	_, err := s.HandleMessage(ctx, embedReq(testKeyword))
	require.NoError(t, err)
	_, err = s.HandleMessage(ctx, embedReq("My document header"))
	require.NoError(t, err)

	// The session is now waiting for text; a second keyword discards it.
	res, err := s.HandleMessage(ctx, embedReq(testKeyword))

	require.NoError(t, err)
	assert.Equal(t, entity.StageAwaitHeader, res.Stage)
	require.Len(t, factory.uow.roomSessions.sessions, 1)
	assert.Empty(t, factory.uow.roomSessions.sessions[0].Header)
}

func TestHandleMessageWithoutSessionFails(t *testing.T) {
	s := newTestEmbedService(newFakeUowFactory(), time.Hour)

	_, err := s.HandleMessage(context.Background(), embedReq("just a question"))

	assert.Error(t, err)
}

func TestHandleMessageEmptyHeaderReprompts(t *testing.T) {
	factory := newFakeUowFactory()
	s := newTestEmbedService(factory, time.Hour)
	ctx := context.Background()

	_, err := s.HandleMessage(ctx, embedReq(testKeyword))
	require.NoError(t, err)

	res, err := s.HandleMessage(ctx, embedReq("   "))

	require.NoError(t, err)
	assert.Equal(t, entity.StageAwaitHeader, res.Stage)
	assert.Equal(t, entity.StageAwaitHeader, factory.uow.roomSessions.sessions[0].Stage)
}

func TestHandleMessageStageNumbering(t *testing.T) {
	factory := newFakeUowFactory()
	s := newTestEmbedService(factory, time.Hour)
	ctx := context.Background()

	res, err := s.HandleMessage(ctx, embedReq(testKeyword))
	require.NoError(t, err)
	assert.Equal(t, entity.StageAwaitHeader, res.Stage)

	res, err = s.HandleMessage(ctx, embedReq("Pocket Milling Guide"))
	require.NoError(t, err)
	assert.Equal(t, entity.StageAwaitText, res.Stage)
	assert.Equal(t, "Pocket Milling Guide", factory.uow.roomSessions.sessions[0].Header)

	res, err = s.HandleMessage(ctx, embedReq("Use a 6mm end mill."))
	require.NoError(t, err)
	assert.Equal(t, entity.StageAwaitImages, res.Stage)
	assert.Equal(t, entity.StageAwaitImages, factory.uow.roomSessions.sessions[0].Stage)
}

func TestHandleMessageImageFinalizesSession(t *testing.T) {
	factory := newFakeUowFactory()
	s := newTestEmbedService(factory, time.Hour)
	ctx := context.Background()

	_, err := s.HandleMessage(ctx, embedReq(testKeyword))
	require.NoError(t, err)
	_, err = s.HandleMessage(ctx, embedReq("Export guide"))
	require.NoError(t, err)
	_, err = s.HandleMessage(ctx, embedReq("Click Settings then Export."))
	require.NoError(t, err)

	// The image arrives and the embed happens in the same request.
	res, err := s.HandleMessage(ctx, embedReq("", "https://uploads.example.com/step1.png"))

	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, entity.StageAwaitImages, res.Stage)
	assert.Contains(t, res.Message, "successfully embedded")

	// Session gone, knowledge row written in its composed layout.
	assert.Empty(t, factory.uow.roomSessions.sessions)
	require.Len(t, factory.uow.knowledge.rows, 1)

	row := factory.uow.knowledge.rows[0]
	assert.True(t, strings.HasPrefix(row.DocId, "session-room-1-"))
	assert.Equal(t, "user_input", row.Type)
	assert.Equal(t, "embed_session", row.Source)
	assert.Equal(t, "Export guide", row.Metadata["header"])
	assert.Contains(t, row.Document, testKeyword+" header: Export guide")
	assert.Contains(t, row.Document, "https://uploads.example.com/step1.png image description: a diagram of the flow")
	assert.Contains(t, row.Document, "text: Click Settings then Export.")
	assert.Equal(t, 1, factory.uow.commits)
}

func TestHandleMessageImagesForceFinalizeFromEarlierStage(t *testing.T) {
	factory := newFakeUowFactory()
	s := newTestEmbedService(factory, time.Hour)
	ctx := context.Background()

	_, err := s.HandleMessage(ctx, embedReq(testKeyword))
	require.NoError(t, err)
	_, err = s.HandleMessage(ctx, embedReq("Header only"))
	require.NoError(t, err)

	// Images at the text stage still jump straight to the final embed.
	res, err := s.HandleMessage(ctx, embedReq("", "https://uploads.example.com/early.png"))

	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Empty(t, factory.uow.roomSessions.sessions)
	require.Len(t, factory.uow.knowledge.rows, 1)
	assert.Contains(t, factory.uow.knowledge.rows[0].Document, "https://uploads.example.com/early.png")
}

func TestHandleMessageDeduplicatesImageUrls(t *testing.T) {
	factory := newFakeUowFactory()
	s := newTestEmbedService(factory, time.Hour)
	ctx := context.Background()

	_, err := s.HandleMessage(ctx, embedReq(testKeyword))
	require.NoError(t, err)
	_, err = s.HandleMessage(ctx, embedReq("Export guide"))
	require.NoError(t, err)
	_, err = s.HandleMessage(ctx, embedReq("Click Settings then Export."))
	require.NoError(t, err)

	url := "https://uploads.example.com/step1.png"
	_, err = s.HandleMessage(ctx, embedReq("", url, url))
	require.NoError(t, err)

	require.Len(t, factory.uow.knowledge.rows, 1)
	assert.Equal(t, 1, strings.Count(factory.uow.knowledge.rows[0].Document, url))
}

func TestHandleMessageOpaqueHostGetsStaticDescription(t *testing.T) {
	factory := newFakeUowFactory()
	visionLLM := &fakeLLM{response: "should not be called"}
	s := newTestEmbedServiceWithLLM(factory, time.Hour, visionLLM)
	ctx := context.Background()

	_, err := s.HandleMessage(ctx, embedReq(testKeyword))
	require.NoError(t, err)
	_, err = s.HandleMessage(ctx, embedReq("Profile post"))
	require.NoError(t, err)
	_, err = s.HandleMessage(ctx, embedReq("See the announcement."))
	require.NoError(t, err)

	_, err = s.HandleMessage(ctx, embedReq("", "https://media.linkedin.com/post.jpg"))
	require.NoError(t, err)

	assert.Zero(t, visionLLM.calls)
	require.Len(t, factory.uow.knowledge.rows, 1)
	assert.Contains(t, factory.uow.knowledge.rows[0].Document, "LinkedIn image URL, no description fetched.")
}

func TestHandleMessageAnyMessageAtImageStageFinalizes(t *testing.T) {
	factory := newFakeUowFactory()
	s := newTestEmbedService(factory, time.Hour)
	ctx := context.Background()

	_, err := s.HandleMessage(ctx, embedReq(testKeyword))
	require.NoError(t, err)
	_, err = s.HandleMessage(ctx, embedReq("Header only"))
	require.NoError(t, err)
	_, err = s.HandleMessage(ctx, embedReq("Some text."))
	require.NoError(t, err)

	res, err := s.HandleMessage(ctx, embedReq("that is everything"))

	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Empty(t, factory.uow.roomSessions.sessions)
	require.Len(t, factory.uow.knowledge.rows, 1)
	assert.NotContains(t, factory.uow.knowledge.rows[0].Document, "image description:")
}

func TestActiveSessionExpiresStaleSessions(t *testing.T) {
	factory := newFakeUowFactory()
	s := newTestEmbedService(factory, time.Hour)
	ctx := context.Background()

	_, err := s.HandleMessage(ctx, embedReq(testKeyword))
	require.NoError(t, err)
	factory.uow.roomSessions.sessions[0].CreatedAt = time.Now().Add(-2 * time.Hour)

	session, err := s.ActiveSession(ctx, "bot-1", "room-1")

	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Empty(t, factory.uow.roomSessions.sessions)
}
