package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"support-chatbot-be/internal/config"
	"support-chatbot-be/internal/dto"
	"support-chatbot-be/internal/repository/unitofwork"
	"support-chatbot-be/internal/service"
	embeddingfactory "support-chatbot-be/pkg/embedding/factory"
	"support-chatbot-be/pkg/database"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/fatih/color"
)

// Bulk-loads knowledge documents into the vector store. Every file in -dir
// becomes one document on the ingestion topic; the regular consumer service
// chunks, embeds and upserts it.
//
// Usage:
//
//	go run ./cmd/ingest -dir ./docs -type txt -source manual
func main() {
	dir := flag.String("dir", "", "directory of .txt/.md files to ingest")
	docType := flag.String("type", "txt", "document type (txt, other, vbs, user_input)")
	source := flag.String("source", "manual", "document source label")
	chatbotId := flag.String("chatbot", "", "chatbot id (defaults to CHATBOT_ID)")
	flag.Parse()

	if *dir == "" {
		color.Red("✗ -dir is required")
		os.Exit(1)
	}

	cfg := config.Load()
	if *chatbotId == "" {
		*chatbotId = cfg.Retrieval.ChatbotID
	}

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		color.Red("✗ Unable to connect to DB: %v", err)
		os.Exit(1)
	}

	embeddingProvider, err := embeddingfactory.NewEmbeddingProvider(cfg.Ai.EmbeddingProvider, embeddingfactory.Params{
		APIKey:     cfg.Ai.OpenAIAPIKey,
		BaseURL:    cfg.Ai.HuggingFaceEndpoint,
		Model:      cfg.Ai.EmbeddingModel,
		Dimensions: cfg.Ai.EmbeddingDimensions,
	})
	if err != nil {
		color.Red("✗ Failed to initialize embedding provider: %v", err)
		os.Exit(1)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))

	consumer := service.NewConsumerService(pubSub, cfg.App.IngestTopic, uowFactory, embeddingProvider, nil)
	publisher := service.NewPublisherService(cfg.App.IngestTopic, pubSub)

	ctx := context.Background()
	if err := consumer.Consume(ctx); err != nil {
		color.Red("✗ Failed to start consumer: %v", err)
		os.Exit(1)
	}

	files, err := collectFiles(*dir)
	if err != nil {
		color.Red("✗ Failed to read directory: %v", err)
		os.Exit(1)
	}
	color.Cyan("Ingesting %d file(s) from %s", len(files), *dir)

	published := 0
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			color.Yellow("⚠ Skipping %s: %v", file, err)
			continue
		}

		base := filepath.Base(file)
		msg := &dto.PublishEmbedDocumentMessage{
			DocId:     strings.TrimSuffix(base, filepath.Ext(base)),
			ChatbotId: *chatbotId,
			Type:      *docType,
			Source:    *source,
			Header:    strings.TrimSuffix(base, filepath.Ext(base)),
			Text:      string(content),
			Metadata:  map[string]interface{}{"file": base},
		}
		if err := publisher.PublishEmbedDocument(ctx, msg); err != nil {
			color.Red("✗ Failed to publish %s: %v", base, err)
			continue
		}
		color.Green("✓ Queued %s", base)
		published++
	}

	// The in-process bus is asynchronous; give the consumer time to drain
	// before the process exits.
	wait := time.Duration(published)*2*time.Second + 3*time.Second
	log.Printf("Waiting %s for the consumer to finish...", wait)
	time.Sleep(wait)

	color.Cyan("Done. Published %d document(s).", published)
	fmt.Println()
}

func collectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".txt" || ext == ".md" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
