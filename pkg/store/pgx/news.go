package pgx

import (
	"context"
	"errors"
	"fmt"

	"storygraph/pkg/common"
	"storygraph/pkg/logger"
	"storygraph/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

const newsColumns = `id, title, summary, full_text, url, source, author,
	published_at, created_at, coalesce(story_id, ''), coalesce(duplicate_of, ''),
	is_duplicate, coalesce(domains, '{}'), is_pinned, editorial_notes`

func scanNews(row pgxv5.Row) (common.News, error) {
	var n common.News
	err := row.Scan(
		&n.ID, &n.Title, &n.Summary, &n.FullText, &n.URL, &n.Source, &n.Author,
		&n.PublishedAt, &n.CreatedAt, &n.StoryID, &n.DuplicateOf,
		&n.IsDuplicate, &n.Domains, &n.IsPinned, &n.EditorialNotes,
	)
	return n, err
}

// SaveNews upserts a batch of news items by ID. Story assignment, duplicate
// flags and embeddings are managed by their own operations and left
// untouched here.
func (s *RelationDBStorage) SaveNews(ctx context.Context, news []*common.News) error {
	if len(news) == 0 {
		return nil
	}

	newsChunk := 250

	return store.ChunkRange(len(news), newsChunk, func(start, end int) error {
		part := news[start:end]
		logger.Debug("[Store][SaveNews] Saving chunk", "news", len(part))

		tx, err := s.conn.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		for _, n := range part {
			if n.ID == "" {
				return fmt.Errorf("news id is empty")
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO news (id, title, summary, full_text, url, source, author,
					published_at, domains, is_pinned, editorial_notes)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
				ON CONFLICT (id) DO UPDATE SET
					title = EXCLUDED.title,
					summary = EXCLUDED.summary,
					full_text = EXCLUDED.full_text,
					url = EXCLUDED.url,
					source = EXCLUDED.source,
					author = EXCLUDED.author,
					published_at = EXCLUDED.published_at,
					domains = EXCLUDED.domains,
					editorial_notes = EXCLUDED.editorial_notes`,
				n.ID, n.Title, n.Summary, n.FullText, n.URL, n.Source, n.Author,
				n.PublishedAt, n.Domains, n.IsPinned, n.EditorialNotes,
			)
			if err != nil {
				return err
			}
		}

		return tx.Commit(ctx)
	})
}

func (s *RelationDBStorage) GetNews(ctx context.Context, id string) (common.News, error) {
	n, err := scanNews(s.conn.QueryRow(ctx,
		`SELECT `+newsColumns+` FROM news WHERE id = $1`, id))
	if errors.Is(err, pgxv5.ErrNoRows) {
		return common.News{}, fmt.Errorf("news %s: %w", id, common.ErrNotFound)
	}
	return n, err
}

func (s *RelationDBStorage) ListNewsByStory(ctx context.Context, storyID string) ([]common.News, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT `+newsColumns+` FROM news
		 WHERE story_id = $1 AND NOT is_duplicate
		 ORDER BY published_at DESC`, storyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]common.News, 0)
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkDuplicate flags newsID as a duplicate of duplicateOf and removes its
// non-editorial similarity edges. The target must itself be a non-duplicate;
// a duplicate target would form a reference chain and is surfaced as an
// inconsistent graph rather than auto-healed.
func (s *RelationDBStorage) MarkDuplicate(ctx context.Context, newsID, duplicateOf string) error {
	if newsID == duplicateOf {
		return fmt.Errorf("news %s cannot duplicate itself: %w", newsID, common.ErrInconsistentGraph)
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var targetIsDuplicate bool
	err = tx.QueryRow(ctx,
		`SELECT is_duplicate FROM news WHERE id = $1`, duplicateOf,
	).Scan(&targetIsDuplicate)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return fmt.Errorf("duplicate target %s: %w", duplicateOf, common.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if targetIsDuplicate {
		return fmt.Errorf("duplicate target %s is itself a duplicate: %w", duplicateOf, common.ErrInconsistentGraph)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE news SET is_duplicate = TRUE, duplicate_of = $2, story_id = NULL
		WHERE id = $1`, newsID, duplicateOf)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("news %s: %w", newsID, common.ErrNotFound)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM news_relations
		WHERE (news_a = $1 OR news_b = $1) AND NOT is_editorial`, newsID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
