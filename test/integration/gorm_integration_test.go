package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/repository/specification"
	"support-chatbot-be/internal/repository/unitofwork"
	"support-chatbot-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.ChatHistoryRepository())
	assert.NotNil(t, uow.QARecordRepository())
	assert.NotNil(t, uow.RoomSessionRepository())
	assert.NotNil(t, uow.KnowledgeEmbeddingRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check ChatHistory Repository", func(t *testing.T) {
		count, err := uow.ChatHistoryRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("ChatHistory count: %d", count)
	})

	t.Run("Transaction Commit", func(t *testing.T) {
		ctx := context.Background()
		chatbotId := "integration-bot"
		roomId := "integration-room-" + uuid.New().String()

		err := uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		history := &entity.ChatHistory{
			Id:                uuid.New(),
			ChatbotId:         chatbotId,
			RoomId:            roomId,
			UserEmail:         "test@example.com",
			ConversationTitle: "Integration Test",
			Conversation: []entity.ChatTurn{
				{Type: entity.TurnTypeUser, Message: "What are your opening hours?", IsComplete: true},
				{Type: entity.TurnTypeAPI, Message: "We are open 24/7.", IsComplete: true},
			},
		}
		err = uow.ChatHistoryRepository().Create(ctx, history)
		assert.NoError(t, err)

		record := &entity.QARecord{
			Id:        uuid.New(),
			QaId:      uuid.New(),
			ChatbotId: chatbotId,
			RoomId:    roomId,
			Question:  "What are your opening hours?",
			Answer:    "We are open 24/7.",
			Language:  "English",
			ModelType: entity.ModelTypeRAG,
			Sources: []entity.SourceDoc{
				{PageContent: "Support is available 24/7.", Score: 0.12},
			},
		}
		err = uow.QARecordRepository().Create(ctx, record)
		assert.NoError(t, err)

		err = uow.Commit()
		assert.NoError(t, err)

		// Read back outside the transaction
		found, err := uow.ChatHistoryRepository().FindOne(ctx,
			specification.ByChatbotId{ChatbotId: chatbotId},
			specification.ByRoomId{RoomId: roomId},
		)
		assert.NoError(t, err)
		assert.NotNil(t, found)
		assert.Len(t, found.Conversation, 2)

		qa, err := uow.QARecordRepository().FindOne(ctx, specification.ByQaId{QaId: record.QaId})
		assert.NoError(t, err)
		assert.NotNil(t, qa)
		assert.Equal(t, "We are open 24/7.", qa.Answer)

		// Cleanup
		err = uow.ChatHistoryRepository().DeleteByRoomId(ctx, chatbotId, roomId)
		assert.NoError(t, err)

		t.Log("Successfully created ChatHistory and QARecord in Transaction")
	})
}
