package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storygraph/pkg/ai"

	"github.com/ollama/ollama/api"
)

const extractionPrompt = `Extract every named actor (person, company, country,
organization, government, structure) mentioned in the news text below, with
any relations between them. Use the canonical name for each actor and list
alternative surface forms as aliases. Relation values: member_of, ally_of,
competitor_of, part_of, operates_in, role_in, regulates, owns, criticized,
supports. Mark criticized/supports as ephemeral.

Text:
%s`

// ExtractActors runs structured actor extraction over the given text using
// the configured extraction model.
func (c *NewsOllamaClient) ExtractActors(ctx context.Context, text string) (ai.ExtractionResult, error) {
	var result ai.ExtractionResult
	if text == "" {
		return result, nil
	}

	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	format, err := json.Marshal(ai.GenerateSchema(&result))
	if err != nil {
		return result, err
	}

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return result, err
	}
	defer c.reqLock.Release(1)

	stream := false
	req := &api.ChatRequest{
		Model: c.extractionModel,
		Messages: []api.Message{
			{Role: "user", Content: fmt.Sprintf(extractionPrompt, text)},
		},
		Format: json.RawMessage(format),
		Stream: &stream,
	}

	var content string
	start := time.Now()
	err = c.Client.Chat(rCtx, req, func(res api.ChatResponse) error {
		content += res.Message.Content
		if res.Done {
			c.modifyMetrics(ai.ModelMetrics{
				InputTokens:  res.Metrics.PromptEvalCount,
				OutputTokens: res.Metrics.EvalCount,
				TotalTokens:  res.Metrics.PromptEvalCount + res.Metrics.EvalCount,
				DurationMs:   time.Since(start).Milliseconds(),
			})
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	if err := ai.UnmarshalFlexible(content, &result); err != nil {
		return result, fmt.Errorf("failed to parse extraction output: %w", err)
	}
	return result, nil
}
