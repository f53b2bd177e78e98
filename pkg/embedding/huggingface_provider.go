package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HuggingFaceProvider runs sentence-transformer models through the inference
// API feature-extraction pipeline.
type HuggingFaceProvider struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
}

type huggingfaceEmbeddingRequest struct {
	Inputs []string `json:"inputs"`
}

func NewHuggingFaceProvider(apiKey, baseURL, model string, dimensions int) *HuggingFaceProvider {
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co"
	}
	if model == "" {
		model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	return &HuggingFaceProvider{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		dimensions: dimensions,
	}
}

func (p *HuggingFaceProvider) Name() string { return "huggingface" }

func (p *HuggingFaceProvider) Dimensions() int { return p.dimensions }

func (p *HuggingFaceProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *HuggingFaceProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := huggingfaceEmbeddingRequest{Inputs: texts}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s", p.baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("huggingface api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var vectors [][]float32
	if err := json.Unmarshal(bodyBytes, &vectors); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("huggingface api returned %d embeddings for %d inputs", len(vectors), len(texts))
	}

	// Sentence-transformer outputs are not guaranteed unit length.
	for i := range vectors {
		vectors[i] = NormalizeVector(vectors[i])
	}
	return vectors, nil
}
