package ai

import "context"

// ActorMention is one entity extracted from a news text by the NER/LLM
// collaborator. Name is the surface form as extracted; Aliases carries any
// additional surface forms the extractor reports. The core's
// canonicalization step resolves mentions to existing actors by alias
// match before creating new ones.
type ActorMention struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Confidence float64  `json:"confidence"`
	Aliases    []string `json:"aliases,omitempty"`
}

// ActorRelationHint is a relation between two extracted mentions, reported
// by the extractor alongside the mentions themselves.
type ActorRelationHint struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Relation   string  `json:"relation"`
	Confidence float64 `json:"confidence"`
	Ephemeral  bool    `json:"ephemeral"`
}

// ExtractionResult is the structured output of one extraction call.
type ExtractionResult struct {
	Mentions  []ActorMention      `json:"mentions"`
	Relations []ActorRelationHint `json:"relations,omitempty"`
}

// ModelMetrics contains performance metrics from AI model operations.
type ModelMetrics struct {
	InputTokens  int   `json:"input_tokens"`
	OutputTokens int   `json:"output_tokens"`
	TotalTokens  int   `json:"total_tokens"`
	DurationMs   int64 `json:"duration_ms"`
}

// Client is the collaborator interface the core requires from the
// embedding and NER/LLM services. Both operations are treated as black
// boxes; implementations must return embeddings of a fixed dimension for
// the lifetime of a deployment.
type Client interface {
	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)
	ExtractActors(ctx context.Context, text string) (ExtractionResult, error)

	GetMetrics() ModelMetrics
	ResetMetrics()
}

// EmbeddingBatcher is an optional fast path for implementations that can
// embed multiple inputs in a single request.
type EmbeddingBatcher interface {
	GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error)
}
