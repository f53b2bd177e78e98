package input

import (
	"context"
	"testing"

	"support-chatbot-be/pkg/llm"
	"support-chatbot-be/pkg/rag/language"

	"github.com/stretchr/testify/assert"
)

type fakeProvider struct {
	generateResponses []string
	generateErr       error
	calls             int
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	if f.generateErr != nil {
		return "", f.generateErr
	}
	response := ""
	if f.calls < len(f.generateResponses) {
		response = f.generateResponses[f.calls]
	}
	f.calls++
	return response, nil
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return f.Generate(ctx, "", opts...)
}

func newTestProcessor(provider llm.LLMProvider) *Processor {
	return NewProcessor(provider, language.NewService(provider), "Acme")
}

func TestProcessParsesConsolidatedJSON(t *testing.T) {
	provider := &fakeProvider{generateResponses: []string{
		`{"detectedLanguage": "Spanish", "translatedQuestion": "where is my order", "contextualizedQuestion": "where is order #123", "conversationTitle": "Order status"}`,
	}}
	p := newTestProcessor(provider)

	result := p.Process(context.Background(), "¿dónde está mi pedido?", "", true)

	assert.Equal(t, "Spanish", result.DetectedLanguage)
	assert.Equal(t, "where is my order", result.TranslatedQuestion)
	assert.Equal(t, "where is order #123", result.ContextualizedQuestion)
	assert.Equal(t, "Order status", result.ConversationTitle)
}

func TestProcessStripsCodeFence(t *testing.T) {
	provider := &fakeProvider{generateResponses: []string{
		"```json\n{\"detectedLanguage\": \"English\", \"translatedQuestion\": \"hello\"}\n```",
	}}
	p := newTestProcessor(provider)

	result := p.Process(context.Background(), "hello", "", false)

	assert.Equal(t, "English", result.DetectedLanguage)
	assert.Equal(t, "hello", result.TranslatedQuestion)
	// Missing contextualization falls back to the translation.
	assert.Equal(t, "hello", result.ContextualizedQuestion)
}

func TestProcessDefaultsTitleOnFirstMessage(t *testing.T) {
	provider := &fakeProvider{generateResponses: []string{
		`{"translatedQuestion": "hello"}`,
	}}
	p := newTestProcessor(provider)

	result := p.Process(context.Background(), "hello", "", true)

	assert.Equal(t, language.DefaultLanguage, result.DetectedLanguage)
	assert.Equal(t, "New Chat", result.ConversationTitle)
}

func TestProcessClearsTitleOnFollowUp(t *testing.T) {
	provider := &fakeProvider{generateResponses: []string{
		`{"translatedQuestion": "hello", "conversationTitle": "Should be dropped"}`,
	}}
	p := newTestProcessor(provider)

	result := p.Process(context.Background(), "hello", "User: hi\nAssistant: hello", false)

	assert.Empty(t, result.ConversationTitle)
}

func TestProcessFallsBackOnBrokenJSON(t *testing.T) {
	// First call: broken consolidated response. Then the language service
	// runs Detect, and since the detected language is not English, Translate.
	provider := &fakeProvider{generateResponses: []string{
		"not json at all",
		"French",
		"where is my order",
	}}
	p := newTestProcessor(provider)

	result := p.Process(context.Background(), "où est ma commande", "", true)

	assert.Equal(t, "French", result.DetectedLanguage)
	assert.Equal(t, "where is my order", result.TranslatedQuestion)
	assert.Equal(t, "where is my order", result.ContextualizedQuestion)
	assert.Equal(t, "New Chat", result.ConversationTitle)
}

func TestProcessFallbackSkipsTranslationForEnglish(t *testing.T) {
	provider := &fakeProvider{generateResponses: []string{
		"not json",
		"English",
	}}
	p := newTestProcessor(provider)

	result := p.Process(context.Background(), "where is my order", "", false)

	assert.Equal(t, "English", result.DetectedLanguage)
	assert.Equal(t, "where is my order", result.TranslatedQuestion)
	assert.Empty(t, result.ConversationTitle)
}

func TestProcessNeverFails(t *testing.T) {
	provider := &fakeProvider{generateErr: assert.AnError}
	p := newTestProcessor(provider)

	result := p.Process(context.Background(), "hello", "", true)

	// Total provider failure still yields a usable result.
	assert.Equal(t, language.DefaultLanguage, result.DetectedLanguage)
	assert.Equal(t, "hello", result.TranslatedQuestion)
	assert.Equal(t, "New Chat", result.ConversationTitle)
}
