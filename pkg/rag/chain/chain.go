package chain

import (
	"context"
	"log"
	"strings"

	"support-chatbot-be/pkg/llm"
	"support-chatbot-be/pkg/rag/history"
	"support-chatbot-be/pkg/rag/input"
	"support-chatbot-be/pkg/rag/prompt"
	"support-chatbot-be/pkg/rag/retriever"
	"support-chatbot-be/pkg/rag/vision"
	"support-chatbot-be/pkg/store"
)

// Model types recorded on the QA audit row; they say which path produced the
// final answer.
const (
	ModelTypeRAG            = "rag"
	ModelTypeVision         = "vision"
	ModelTypeEnhancedVision = "enhanced_vision"
)

// Config holds the chain's tunables.
type Config struct {
	ProductName       string
	ScreenshotAltText string
	// EscalateThreshold is the top-document similarity above which an
	// image-typed top result is re-analyzed by the vision model.
	EscalateThreshold float64
	// Multimodal mirrors the embedding provider's image capability. It
	// decides which vision path runs: description + annotation for text-only
	// embedders, the enhanced-vision pass for multimodal ones.
	Multimodal     bool
	HistoryOptions history.Options
}

func DefaultConfig(productName, screenshotAltText string) Config {
	return Config{
		ProductName:       productName,
		ScreenshotAltText: screenshotAltText,
		EscalateThreshold: 0.53,
		HistoryOptions:    history.DefaultOptions(),
	}
}

// Request is one question arriving at the chain.
type Request struct {
	Question  string
	ImageURLs []string
	// History is the prior transcript as provider-agnostic messages.
	History []llm.Message
	// HistoricalImageURLs are images from earlier turns, newest last. Used
	// for the "do we need to look at the image again" check.
	HistoricalImageURLs []string
	// LastImageDescription is the stored description of the most recently
	// discussed image, if any.
	LastImageDescription string
	IsFirstMessage       bool
}

// Outcome is everything the caller needs to stream, persist and notify.
type Outcome struct {
	Answer                 string
	Language               string
	TranslatedQuestion     string
	ContextualizedQuestion string
	ConversationTitle      string
	ImageDescription       string
	ModelType              string
	// Sources is the retrieved set filtered for the answer language and
	// sorted by descending score, ready for persistence.
	Sources []retriever.ScoredDocument
}

// Chain is the retrieval-augmented answer pipeline.
type Chain struct {
	processor *input.Processor
	selector  *history.Selector
	retriever *retriever.Retriever
	describer *vision.Describer
	provider  llm.LLMProvider
	config    Config
	logger    *log.Logger
}

func NewChain(
	processor *input.Processor,
	selector *history.Selector,
	ret *retriever.Retriever,
	describer *vision.Describer,
	provider llm.LLMProvider,
	config Config,
	logger *log.Logger,
) *Chain {
	return &Chain{
		processor: processor,
		selector:  selector,
		retriever: ret,
		describer: describer,
		provider:  provider,
		config:    config,
		logger:    logger,
	}
}

// Run executes the pipeline. Only embedding, retrieval and answer
// generation are critical; every other step degrades and the turn continues.
func (c *Chain) Run(ctx context.Context, req Request) (*Outcome, error) {
	question := sanitize(req.Question)
	historyText := RenderHistory(req.History)

	// 1. Language, translation, contextualization, title in one call.
	processed := c.processor.Process(ctx, question, historyText, req.IsFirstMessage)
	contextualized := processed.ContextualizedQuestion

	// 2. Image understanding, text-only embedders only. New uploads get
	// described outright; follow-up questions may force a second look at an
	// earlier image. Multimodal providers embed the images directly instead.
	var imageDescription string
	if !c.config.Multimodal {
		imageDescription = c.describeImages(ctx, req, processed.TranslatedQuestion, historyText)
	}

	// The description rides on the generation input only. The retrieval
	// query and the persisted contextualized question stay clean of it.
	generationInput := processed.TranslatedQuestion
	if imageDescription != "" {
		generationInput += " [Image model answer: " + imageDescription + "]"
	}

	// 3. Keep only the history worth its prompt budget.
	selected := c.selector.Select(ctx, req.History, contextualized, c.config.HistoryOptions)

	// 4. Retrieval. A failure here is fatal for the turn.
	docs, err := c.retriever.Retrieve(ctx, contextualized, req.ImageURLs)
	if err != nil {
		return nil, err
	}

	// 5. Answer from the retrieved context.
	answer, err := c.generateAnswer(ctx, generationInput, processed.DetectedLanguage, imageDescription, selected, docs)
	if err != nil {
		return nil, err
	}
	modelType := ModelTypeRAG

	// 6. Vision-first escalation: the closest match is itself an image and
	// its page probably answers the question better than its extracted text.
	// The answer is regenerated over the same retrieved set with the fresh
	// description; no second retrieval happens.
	if description, ok := c.reinspectTopImage(ctx, docs, contextualized); ok {
		regenerated, rerr := c.generateAnswer(ctx, generationInput, processed.DetectedLanguage, description, selected, docs)
		if rerr != nil {
			c.logger.Printf("vision escalation regeneration failed, keeping text answer: %v", rerr)
		} else if regenerated != "" {
			answer = regenerated
			imageDescription = description
			modelType = ModelTypeVision
		}
	}

	// 7. Enhanced vision, multimodal embedders only: the user uploaded
	// images; answer over them plus any images on the retrieved documents.
	// Falls back to whatever answer we already have.
	if c.config.Multimodal {
		if enhanced, mt, ok := c.enhancedVision(ctx, req.ImageURLs, docs, contextualized); ok {
			answer = enhanced
			modelType = mt
		}
	}

	return &Outcome{
		Answer:                 answer,
		Language:               processed.DetectedLanguage,
		TranslatedQuestion:     processed.TranslatedQuestion,
		ContextualizedQuestion: contextualized,
		ConversationTitle:      processed.ConversationTitle,
		ImageDescription:       imageDescription,
		ModelType:              modelType,
		Sources:                FilterSourcesForLanguage(docs, processed.DetectedLanguage),
	}, nil
}

func (c *Chain) describeImages(ctx context.Context, req Request, translatedQuestion, historyText string) string {
	if len(req.ImageURLs) > 0 {
		description, err := c.describer.Describe(ctx, req.ImageURLs, translatedQuestion)
		if err != nil {
			c.logger.Printf("image description failed, continuing without: %v", err)
			return ""
		}
		return description
	}

	if len(req.HistoricalImageURLs) == 0 {
		return ""
	}
	if !c.describer.RelatedToImage(ctx, translatedQuestion, historyText, req.LastImageDescription) {
		return ""
	}

	description, err := c.describer.Describe(ctx, req.HistoricalImageURLs, translatedQuestion)
	if err != nil {
		c.logger.Printf("historical image re-inspection failed, continuing without: %v", err)
		return ""
	}
	return description
}

func (c *Chain) generateAnswer(ctx context.Context, input, language, imageDescription string, selected []llm.Message, docs []retriever.ScoredDocument) (string, error) {
	systemPrompt := prompt.NewQABuilder(c.config.ProductName, c.config.ScreenshotAltText).
		WithLanguage(language).
		WithDocuments(documentsOf(docs)).
		WithImageDescription(imageDescription).
		Build()

	messages := make([]llm.Message, 0, len(selected)+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	messages = append(messages, selected...)
	messages = append(messages, llm.Message{Role: "user", Content: input})

	answer, err := c.provider.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// reinspectTopImage runs the escalation check: an image-typed top document
// above the threshold gets its page image re-analyzed against the
// contextualized question. Returns the fresh description.
func (c *Chain) reinspectTopImage(ctx context.Context, docs []retriever.ScoredDocument, contextualized string) (string, bool) {
	if len(docs) == 0 || docs[0].Score <= c.config.EscalateThreshold {
		return "", false
	}
	if docType, _ := docs[0].Document.Metadata["type"].(string); docType != "image" {
		return "", false
	}
	urls := prompt.ImageURLsFromMetadata(docs[0].Document.Metadata)
	if len(urls) == 0 {
		return "", false
	}

	description, err := c.describer.AnalyzeRetrievedImage(ctx, urls[0], contextualized)
	if err != nil {
		c.logger.Printf("vision escalation failed, keeping text answer: %v", err)
		return "", false
	}
	if description == "" {
		return "", false
	}
	return description, true
}

// enhancedVision answers over the user's uploads plus the retrieved page
// images. Fallback order: enhanced -> user images only -> existing answer.
func (c *Chain) enhancedVision(ctx context.Context, userImages []string, docs []retriever.ScoredDocument, contextualized string) (string, string, bool) {
	if len(userImages) == 0 {
		return "", "", false
	}

	var retrievedImages []string
	for _, doc := range docs {
		retrievedImages = append(retrievedImages, prompt.ImageURLsFromMetadata(doc.Document.Metadata)...)
	}

	if len(retrievedImages) > 0 {
		combined := append(append([]string{}, userImages...), retrievedImages...)
		answer, err := c.describer.AnswerWithImages(ctx, combined, contextualized)
		if err == nil && answer != "" {
			return answer, ModelTypeEnhancedVision, true
		}
		c.logger.Printf("enhanced vision failed, trying user images only: %v", err)
	}

	answer, err := c.describer.AnswerWithImages(ctx, userImages, contextualized)
	if err != nil || answer == "" {
		if err != nil {
			c.logger.Printf("vision answer over user images failed, keeping text answer: %v", err)
		}
		return "", "", false
	}
	return answer, ModelTypeVision, true
}

func documentsOf(docs []retriever.ScoredDocument) []store.Document {
	out := make([]store.Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Document)
	}
	return out
}

func sanitize(question string) string {
	return strings.TrimSpace(strings.ReplaceAll(question, "\n", " "))
}

// RenderHistory flattens a transcript for prompts that want plain text.
func RenderHistory(messages []llm.Message) string {
	if len(messages) == 0 {
		return ""
	}
	var b strings.Builder
	for _, msg := range messages {
		role := "User"
		if msg.Role != "user" {
			role = "Assistant"
		}
		b.WriteString(role + ": " + msg.Content + "\n")
	}
	return strings.TrimSpace(b.String())
}
