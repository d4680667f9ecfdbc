package pgx

import (
	"context"
	"errors"
	"fmt"

	"storygraph/pkg/common"
	"storygraph/pkg/logger"
	"storygraph/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// UpsertEmbedding stores the embedding vector for a news item.
func (s *RelationDBStorage) UpsertEmbedding(ctx context.Context, newsID string, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("empty vector for news %s", newsID)
	}

	tag, err := s.conn.Exec(ctx,
		`UPDATE news SET embedding = $2 WHERE id = $1`,
		newsID, pgvector.NewVector(vector))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("news %s: %w", newsID, common.ErrNotFound)
	}
	return nil
}

// ComputeSimilarities recomputes the similarity edges of one news item
// against the rest of the corpus. All non-editorial edges touching the item
// are replaced in a single transaction; editorial edges are preserved
// verbatim. Edges are created from threshold upward.
//
// Cosine similarity is 1 - (a <=> b); the ivfflat index keeps retrieval
// sub-quadratic, and the planner's sequential fallback on small tables
// yields identical scores.
func (s *RelationDBStorage) ComputeSimilarities(ctx context.Context, newsID string, threshold float64) ([]common.NewsRelation, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var hasEmbedding, isDuplicate bool
	err = tx.QueryRow(ctx,
		`SELECT embedding IS NOT NULL, is_duplicate FROM news WHERE id = $1`, newsID,
	).Scan(&hasEmbedding, &isDuplicate)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, fmt.Errorf("news %s: %w", newsID, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !hasEmbedding {
		return nil, fmt.Errorf("news %s: %w", newsID, common.ErrMissingEmbedding)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM news_relations
		WHERE (news_a = $1 OR news_b = $1) AND NOT is_editorial`, newsID)
	if err != nil {
		return nil, err
	}

	// Duplicates contribute no edges of their own.
	if !isDuplicate {
		_, err = tx.Exec(ctx, `
			INSERT INTO news_relations (news_a, news_b, similarity, weight, is_editorial)
			SELECT LEAST(n.id, $1), GREATEST(n.id, $1),
				1 - (n.embedding <=> me.embedding),
				1 - (n.embedding <=> me.embedding),
				FALSE
			FROM news n, (SELECT embedding FROM news WHERE id = $1) me
			WHERE n.id <> $1
				AND NOT n.is_duplicate
				AND n.embedding IS NOT NULL
				AND 1 - (n.embedding <=> me.embedding) >= $2
			ON CONFLICT (news_a, news_b) DO NOTHING`, newsID, threshold)
		if err != nil {
			return nil, err
		}
	}

	edges, err := queryEdges(ctx, tx, `
		SELECT news_a, news_b, similarity, weight, is_editorial, created_at
		FROM news_relations
		WHERE news_a = $1 OR news_b = $1`, newsID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Debug("[Store][ComputeSimilarities] Edges updated", "news", newsID, "edges", len(edges))
	return edges, nil
}

// ComputeAllSimilarities rebuilds the entire non-editorial edge set, used
// after bulk changes such as a full re-embedding.
func (s *RelationDBStorage) ComputeAllSimilarities(ctx context.Context, threshold float64) ([]common.NewsRelation, error) {
	var missing int
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM news WHERE embedding IS NULL AND NOT is_duplicate`,
	).Scan(&missing)
	if err != nil {
		return nil, err
	}
	if missing > 0 {
		return nil, fmt.Errorf("%d news without embedding: %w", missing, common.ErrMissingEmbedding)
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM news_relations WHERE NOT is_editorial`)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO news_relations (news_a, news_b, similarity, weight, is_editorial)
		SELECT a.id, b.id,
			1 - (a.embedding <=> b.embedding),
			1 - (a.embedding <=> b.embedding),
			FALSE
		FROM news a
		JOIN news b ON a.id < b.id
		WHERE NOT a.is_duplicate AND NOT b.is_duplicate
			AND a.embedding IS NOT NULL AND b.embedding IS NOT NULL
			AND 1 - (a.embedding <=> b.embedding) >= $1
		ON CONFLICT (news_a, news_b) DO NOTHING`, threshold)
	if err != nil {
		return nil, err
	}

	edges, err := queryEdges(ctx, tx, `
		SELECT news_a, news_b, similarity, weight, is_editorial, created_at
		FROM news_relations`)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Info("[Store][ComputeAllSimilarities] Edge set rebuilt", "edges", len(edges))
	return edges, nil
}

// SimilaritySearch returns the k nearest non-duplicate news items above the
// given similarity threshold.
func (s *RelationDBStorage) SimilaritySearch(ctx context.Context, vector []float32, k int, threshold float64) ([]store.SimilarityHit, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, 1 - (embedding <=> $1) AS score
		FROM news
		WHERE embedding IS NOT NULL
			AND NOT is_duplicate
			AND 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3`, pgvector.NewVector(vector), threshold, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]store.SimilarityHit, 0, k)
	for rows.Next() {
		var hit store.SimilarityHit
		if err := rows.Scan(&hit.NewsID, &hit.Score); err != nil {
			return nil, err
		}
		out = append(out, hit)
	}
	return out, rows.Err()
}

func queryEdges(ctx context.Context, tx pgxv5.Tx, sql string, args ...any) ([]common.NewsRelation, error) {
	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]common.NewsRelation, 0)
	for rows.Next() {
		var e common.NewsRelation
		if err := rows.Scan(&e.NewsA, &e.NewsB, &e.Similarity, &e.Weight, &e.IsEditorial, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
