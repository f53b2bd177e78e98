package store

import "context"

// Document is one retrievable unit of knowledge: the text that was embedded
// plus whatever metadata the ingestion pipeline attached (source, type,
// visibility, image references).
type Document struct {
	ID       string
	Content  string
	Metadata map[string]interface{}
}

// SearchResult pairs a document with its similarity score (1 = identical).
type SearchResult struct {
	Document Document
	Score    float64
}

// Filter narrows a similarity search. A zero-value filter matches everything
// visible: rows whose is_public is true or unset.
type Filter struct {
	// ChatbotID scopes every query to one tenant. Required.
	ChatbotID string
	// Type restricts to a single document type ("qa_pair", "pdf", ...).
	Type string
	// ExcludeSource drops rows whose source column equals this value.
	ExcludeSource string
	// IncludePrivate lifts the public-or-unset visibility restriction.
	IncludePrivate bool
}

// VectorStore is the retrieval backend contract. The production
// implementation runs on Postgres/pgvector; tests swap in fakes.
type VectorStore interface {
	// SimilaritySearchVectorWithScore returns up to k documents ordered by
	// descending cosine similarity to the query vector.
	SimilaritySearchVectorWithScore(ctx context.Context, vector []float32, k int, filter Filter) ([]SearchResult, error)

	// Upsert writes a document and its vector, replacing any existing row
	// with the same id.
	Upsert(ctx context.Context, id string, vector []float32, doc Document) error
}
