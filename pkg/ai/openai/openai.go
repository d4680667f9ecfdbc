package openai

import (
	"sync"

	"storygraph/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// NewsAIClient implements ai.Client against OpenAI-compatible endpoints.
// It manages separate clients for embeddings and extraction so the two
// concerns can point at different deployments.
type NewsAIClient struct {
	embeddingModel  string
	extractionModel string

	embeddingLock *semaphore.Weighted

	timeoutMin int

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	EmbeddingClient *openai.Client
	ChatClient      *openai.Client
}

// NewNewsAIClientParams configures a NewsAIClient. EmbeddingURL/ChatURL may
// point at any OpenAI-compatible API; empty URLs fall back to the default
// endpoint.
type NewNewsAIClientParams struct {
	EmbeddingModel  string
	ExtractionModel string

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string

	MaxConcurrentRequests int64
	TimeoutMin            int
}

// NewNewsAIClient creates a client for embedding and actor extraction.
func NewNewsAIClient(params NewNewsAIClientParams) *NewsAIClient {
	maxReq := params.MaxConcurrentRequests
	if maxReq <= 0 {
		maxReq = 8
	}
	timeoutMin := params.TimeoutMin
	if timeoutMin <= 0 {
		timeoutMin = 5
	}

	return &NewsAIClient{
		embeddingModel:  params.EmbeddingModel,
		extractionModel: params.ExtractionModel,

		embeddingLock: semaphore.NewWeighted(maxReq),
		timeoutMin:    timeoutMin,

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		EmbeddingClient: newClient(params.EmbeddingURL, params.EmbeddingKey),
		ChatClient:      newClient(params.ChatURL, params.ChatKey),
	}
}

func newClient(baseURL, apiKey string) *openai.Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	c := openai.NewClient(opts...)
	return &c
}

func (c *NewsAIClient) modifyMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics.InputTokens += m.InputTokens
	c.metrics.OutputTokens += m.OutputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs
}

// GetMetrics returns the accumulated model metrics.
func (c *NewsAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

// ResetMetrics clears the accumulated model metrics.
func (c *NewsAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}
