package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"storygraph/internal/storage"
	"storygraph/internal/util"
	"storygraph/pkg/actors"
	"storygraph/pkg/ai"
	"storygraph/pkg/common"
	"storygraph/pkg/graph"
	"storygraph/pkg/logger"
	pgstore "storygraph/pkg/store/pgx"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rabbitmq/amqp091-go"
)

// ProcessIngestMessage runs the per-news unit of work: persist the item,
// extract and canonicalize actors, embed, recompute the item's similarity
// edges, then hand off to the clustering and event extraction queues.
func ProcessIngestMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	aiClient ai.Client,
	ch *amqp091.Channel,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(IngestNewsMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}

	news := data.News
	if news.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to mint news id: %w", err)
		}
		news.ID = id
	}
	if news.PublishedAt.IsZero() {
		news.PublishedAt = time.Now().UTC()
	}

	st := pgstore.NewRelationDBStorage(conn)
	if err := st.SaveNews(ctx, []*common.News{&news}); err != nil {
		return fmt.Errorf("failed to save news %s: %w", news.ID, err)
	}

	// Archiving is best effort; the original payload is convenience, not
	// state the graph depends on.
	if s3Client != nil && len(data.RawPayload) > 0 {
		if _, err := storage.ArchiveRawPayload(ctx, s3Client, news.ID, data.RawPayload); err != nil {
			logger.Warn("[Ingest] Failed to archive raw payload", "news", news.ID, "err", err)
		}
	}

	text := embeddingInput(news)

	result, err := extractActors(ctx, aiClient, text)
	if err != nil {
		return fmt.Errorf("news %s: %w", news.ID, err)
	}

	resolution, err := actors.Resolve(ctx, st, news.ID, result, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("actor resolution failed for %s: %w", news.ID, err)
	}
	if err := st.SaveActors(ctx, resolution.Actors); err != nil {
		return fmt.Errorf("failed to save actors for %s: %w", news.ID, err)
	}
	if err := st.SaveMentions(ctx, news.ID, resolution.Mentions); err != nil {
		return fmt.Errorf("failed to save mentions for %s: %w", news.ID, err)
	}
	if err := st.SaveActorRelations(ctx, resolution.Relations); err != nil {
		return fmt.Errorf("failed to save actor relations for %s: %w", news.ID, err)
	}

	embedding, err := generateEmbedding(ctx, aiClient, text)
	if err != nil {
		return fmt.Errorf("news %s: %w", news.ID, err)
	}
	if err := st.UpsertEmbedding(ctx, news.ID, embedding); err != nil {
		return fmt.Errorf("failed to store embedding for %s: %w", news.ID, err)
	}

	params := graph.ParamsFromEnv()
	edges, err := st.ComputeSimilarities(ctx, news.ID, params.EdgeFloor)
	if err != nil {
		return fmt.Errorf("similarity computation failed for %s: %w", news.ID, err)
	}

	logger.Info("[Ingest] News processed",
		"news", news.ID,
		"actors", len(resolution.Actors),
		"mentions", len(resolution.Mentions),
		"edges", len(edges),
	)

	if err := publishJSON(ch, ClusterQueue, ClusterMsg{Reason: "ingest:" + news.ID}); err != nil {
		return err
	}
	return publishJSON(ch, EventQueue, ExtractEventsMsg{NewsID: news.ID})
}

// Collaborator failures surface as ErrExtractionFailure so callers can
// branch on the taxonomy instead of provider-specific errors.
func extractActors(ctx context.Context, client ai.Client, text string) (ai.ExtractionResult, error) {
	result, err := util.RetryWithContext(ctx, 3, func(ctx context.Context) (ai.ExtractionResult, error) {
		return client.ExtractActors(ctx, text)
	})
	if err != nil {
		return ai.ExtractionResult{}, fmt.Errorf("actor extraction: %w: %w", common.ErrExtractionFailure, err)
	}
	return result, nil
}

func generateEmbedding(ctx context.Context, client ai.Client, text string) ([]float32, error) {
	embedding, err := util.RetryWithContext(ctx, 3, func(ctx context.Context) ([]float32, error) {
		return client.GenerateEmbedding(ctx, []byte(text))
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: %w: %w", common.ErrExtractionFailure, err)
	}
	return embedding, nil
}

func embeddingInput(news common.News) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{news.Title, news.Summary, news.FullText} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}

func publishJSON(ch *amqp091.Channel, queueName string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return PublishFIFO(ch, queueName, body)
}
