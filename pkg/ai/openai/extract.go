package openai

import (
	"context"
	"fmt"
	"time"

	"storygraph/pkg/ai"

	"github.com/openai/openai-go/v3"
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
func (c *NewsAIClient) ExtractActors(ctx context.Context, text string) (ai.ExtractionResult, error) {
	var result ai.ExtractionResult
	if text == "" {
		return result, nil
	}

	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	schema := ai.GenerateSchema(&result)

	body := openai.ChatCompletionNewParams{
		Model: c.extractionModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(fmt.Sprintf(extractionPrompt, text)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "actor_extraction",
					Description: openai.String("Actors and relations extracted from a news item"),
					Schema:      schema,
					Strict:      openai.Bool(true),
				},
			},
		},
	}

	start := time.Now()
	response, err := c.ChatClient.Chat.Completions.New(rCtx, body)
	if err != nil {
		return result, err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   time.Since(start).Milliseconds(),
	})

	if len(response.Choices) == 0 {
		return result, fmt.Errorf("extraction returned no choices")
	}
	if err := ai.UnmarshalFlexible(response.Choices[0].Message.Content, &result); err != nil {
		return result, fmt.Errorf("failed to parse extraction output: %w", err)
	}
	return result, nil
}
