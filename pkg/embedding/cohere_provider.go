package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// CohereProvider talks to the Cohere v2 embed API. It is the one multimodal
// provider: images embed into the same vector space as text, which is what
// makes image-similarity retrieval possible.
type CohereProvider struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
}

type cohereEmbedRequest struct {
	Model          string   `json:"model"`
	InputType      string   `json:"input_type"`
	EmbeddingTypes []string `json:"embedding_types"`
	Texts          []string `json:"texts,omitempty"`
	Images         []string `json:"images,omitempty"`
}

type cohereEmbedResponse struct {
	Embeddings struct {
		Float [][]float32 `json:"float"`
	} `json:"embeddings"`
	Message string `json:"message,omitempty"`
}

func NewCohereProvider(apiKey, model string, dimensions int) *CohereProvider {
	if model == "" {
		model = "embed-v4.0"
	}
	return &CohereProvider{
		apiKey:     apiKey,
		baseURL:    "https://api.cohere.com/v2/embed",
		model:      model,
		dimensions: dimensions,
	}
}

func (p *CohereProvider) Name() string { return "cohere" }

func (p *CohereProvider) Dimensions() int { return p.dimensions }

func (p *CohereProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.embed(ctx, cohereEmbedRequest{
		Model:          p.model,
		InputType:      "search_query",
		EmbeddingTypes: []string{"float"},
		Texts:          []string{text},
	}, 1)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *CohereProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return p.embed(ctx, cohereEmbedRequest{
		Model:          p.model,
		InputType:      "search_document",
		EmbeddingTypes: []string{"float"},
		Texts:          texts,
	}, len(texts))
}

// EmbedImages embeds base64 data URIs. Cohere accepts one image per request,
// so batches fan out into sequential calls.
func (p *CohereProvider) EmbedImages(ctx context.Context, imagesB64 []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(imagesB64))
	for _, img := range imagesB64 {
		vecs, err := p.embed(ctx, cohereEmbedRequest{
			Model:          p.model,
			InputType:      "image",
			EmbeddingTypes: []string{"float"},
			Images:         []string{img},
		}, 1)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vecs[0])
	}
	return vectors, nil
}

func (p *CohereProvider) embed(ctx context.Context, reqBody cohereEmbedRequest, want int) ([][]float32, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cohere api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var cohereResp cohereEmbedResponse
	if err := json.Unmarshal(bodyBytes, &cohereResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(cohereResp.Embeddings.Float) != want {
		return nil, fmt.Errorf("cohere api returned %d embeddings, expected %d", len(cohereResp.Embeddings.Float), want)
	}
	return cohereResp.Embeddings.Float, nil
}
