package queue

import (
	"context"
	"errors"
	"testing"

	"storygraph/pkg/ai"
	"storygraph/pkg/common"
)

type stubAIClient struct {
	ai.Client

	extractErr error
	embedErr   error
	calls      int
}

func (s *stubAIClient) ExtractActors(ctx context.Context, text string) (ai.ExtractionResult, error) {
	s.calls++
	if s.extractErr != nil {
		return ai.ExtractionResult{}, s.extractErr
	}
	return ai.ExtractionResult{Mentions: []ai.ActorMention{{Name: "IMF", Type: "organization", Confidence: 0.9}}}, nil
}

func (s *stubAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	s.calls++
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	return []float32{0.1, 0.2}, nil
}

func TestExtractActorsWrapsCollaboratorFailure(t *testing.T) {
	client := &stubAIClient{extractErr: errors.New("model unavailable")}

	_, err := extractActors(context.Background(), client, "some text")
	if err == nil {
		t.Fatal("want error")
	}
	if !errors.Is(err, common.ErrExtractionFailure) {
		t.Errorf("error does not carry ErrExtractionFailure: %v", err)
	}
	// Transient collaborator failures are retried before surfacing.
	if client.calls != 3 {
		t.Errorf("attempts: got %d, want 3", client.calls)
	}
}

func TestExtractActorsSuccessPassesThrough(t *testing.T) {
	client := &stubAIClient{}

	result, err := extractActors(context.Background(), client, "some text")
	if err != nil {
		t.Fatalf("extractActors: %v", err)
	}
	if len(result.Mentions) != 1 || result.Mentions[0].Name != "IMF" {
		t.Errorf("mentions: got %+v", result.Mentions)
	}
}

func TestGenerateEmbeddingWrapsCollaboratorFailure(t *testing.T) {
	client := &stubAIClient{embedErr: errors.New("timeout")}

	_, err := generateEmbedding(context.Background(), client, "some text")
	if err == nil {
		t.Fatal("want error")
	}
	if !errors.Is(err, common.ErrExtractionFailure) {
		t.Errorf("error does not carry ErrExtractionFailure: %v", err)
	}

	embedding, err := generateEmbedding(context.Background(), &stubAIClient{}, "some text")
	if err != nil {
		t.Fatalf("generateEmbedding: %v", err)
	}
	if len(embedding) != 2 {
		t.Errorf("embedding: got %v", embedding)
	}
}
