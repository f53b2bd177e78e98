package vision

import (
	"context"
	"fmt"
	"strings"

	"support-chatbot-be/pkg/llm"
	"support-chatbot-be/pkg/rag/prompt"
)

// Describer runs the vision-model side of the pipeline. Every method is
// best-effort from the caller's perspective: callers log failures and keep
// the answer they already have.
type Describer struct {
	provider    llm.LLMProvider
	model       string
	productName string
}

func NewDescriber(provider llm.LLMProvider, model, productName string) *Describer {
	return &Describer{
		provider:    provider,
		model:       model,
		productName: productName,
	}
}

// Describe produces a factual description of the user's images, scoped to
// what helps answer the question. It does not answer the question.
func (d *Describer) Describe(ctx context.Context, imageURLs []string, question string) (string, error) {
	if len(imageURLs) == 0 {
		return "", nil
	}

	history := []llm.Message{
		{Role: "system", Content: prompt.ImageAnalysisPrompt},
		{Role: "user", Content: "Question: " + question, Images: imageURLs},
	}

	description, err := d.provider.Chat(ctx, history, llm.WithModel(d.model), llm.WithMaxTokens(500))
	if err != nil {
		return "", fmt.Errorf("image description failed: %w", err)
	}
	return strings.TrimSpace(description), nil
}

// RelatedToImage decides whether a follow-up question needs another look at
// a previously discussed image. Failures mean "no".
func (d *Describer) RelatedToImage(ctx context.Context, followUpQuestion, chatHistory, imageDescription string) bool {
	p := prompt.ImageRelation(chatHistory, imageDescription, followUpQuestion)

	answer, err := d.provider.Generate(ctx, p, llm.WithModel(d.model), llm.WithTemperature(0), llm.WithMaxTokens(5))
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "yes")
}

// AnalyzeRetrievedImage describes a retrieved page image in relation to the
// question. The caller feeds the description back into answer generation;
// this call never answers by itself.
func (d *Describer) AnalyzeRetrievedImage(ctx context.Context, imageURL, question string) (string, error) {
	history := []llm.Message{
		{
			Role: "user",
			Content: fmt.Sprintf(
				`Please analyze this image in relation to the user's question: %q. Provide a short and concise description of what you see that's relevant to answering their question.`,
				question,
			),
			Images: []string{imageURL},
		},
	}

	description, err := d.provider.Chat(ctx, history, llm.WithModel(d.model), llm.WithMaxTokens(500))
	if err != nil {
		return "", fmt.Errorf("retrieved image analysis failed: %w", err)
	}
	return strings.TrimSpace(description), nil
}

// AnswerWithImages answers the question directly from the given images.
// Used for answering over the user's own uploads, alone or combined with
// retrieved page images.
func (d *Describer) AnswerWithImages(ctx context.Context, imageURLs []string, question string) (string, error) {
	if len(imageURLs) == 0 {
		return "", fmt.Errorf("no images to answer from")
	}

	history := []llm.Message{
		{
			Role: "system",
			Content: "Don't answer questions about images that are not related to " + d.productName + ". " +
				"You are a multilingual helpful and friendly assistant. You focus on helping " + d.productName + " users with their questions. " +
				"Look at the image before answering.",
		},
		{Role: "user", Content: question, Images: imageURLs},
	}

	answer, err := d.provider.Chat(ctx, history, llm.WithModel(d.model), llm.WithMaxTokens(500))
	if err != nil {
		return "", fmt.Errorf("image answering failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}
