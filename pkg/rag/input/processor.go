package input

import (
	"context"
	"encoding/json"
	"strings"

	"support-chatbot-be/pkg/llm"
	"support-chatbot-be/pkg/rag/language"
	"support-chatbot-be/pkg/rag/prompt"
)

// Result is the outcome of input processing: what language the user wrote
// in, the English form for retrieval, the standalone form for search, and a
// conversation title when this is the first message.
type Result struct {
	DetectedLanguage       string `json:"detectedLanguage"`
	TranslatedQuestion     string `json:"translatedQuestion"`
	ContextualizedQuestion string `json:"contextualizedQuestion"`
	ConversationTitle      string `json:"conversationTitle"`
}

// Processor resolves language, translation, contextualization and title in a
// single LLM call, with a piecewise fallback when the JSON comes back broken.
type Processor struct {
	provider    llm.LLMProvider
	language    *language.Service
	productName string
}

func NewProcessor(provider llm.LLMProvider, lang *language.Service, productName string) *Processor {
	return &Processor{
		provider:    provider,
		language:    lang,
		productName: productName,
	}
}

// Process never fails: every degradation path still yields a usable Result.
func (p *Processor) Process(ctx context.Context, question, historyText string, isFirstMessage bool) Result {
	promptText := prompt.ConsolidatedInputProcessing(p.productName, question, historyText, isFirstMessage)

	raw, err := p.provider.Generate(ctx, promptText, llm.WithTemperature(0), llm.WithJSONMode())
	if err == nil {
		if result, ok := parseResult(raw); ok {
			return normalize(result, isFirstMessage)
		}
	}

	return p.fallback(ctx, question, isFirstMessage)
}

func parseResult(raw string) (Result, bool) {
	cleaned := stripCodeFence(raw)

	var result Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return Result{}, false
	}
	if strings.TrimSpace(result.TranslatedQuestion) == "" {
		return Result{}, false
	}
	return result, true
}

func normalize(result Result, isFirstMessage bool) Result {
	if strings.TrimSpace(result.DetectedLanguage) == "" {
		result.DetectedLanguage = language.DefaultLanguage
	}
	if strings.TrimSpace(result.ContextualizedQuestion) == "" {
		result.ContextualizedQuestion = result.TranslatedQuestion
	}
	if isFirstMessage && strings.TrimSpace(result.ConversationTitle) == "" {
		result.ConversationTitle = "New Chat"
	}
	if !isFirstMessage {
		result.ConversationTitle = ""
	}
	return result
}

// fallback runs the steps piecewise through the language service.
func (p *Processor) fallback(ctx context.Context, question string, isFirstMessage bool) Result {
	detected := p.language.Detect(ctx, question)

	translated := question
	if detected != language.DefaultLanguage {
		translated = p.language.Translate(ctx, question)
	}

	result := Result{
		DetectedLanguage:       detected,
		TranslatedQuestion:     translated,
		ContextualizedQuestion: translated,
	}
	if isFirstMessage {
		result.ConversationTitle = "New Chat"
	}
	return result
}

func stripCodeFence(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}
	return cleaned
}
