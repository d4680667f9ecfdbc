package pgx

import (
	"context"
	"errors"
	"fmt"

	"storygraph/pkg/common"

	pgxv5 "github.com/jackc/pgx/v5"
)

const storyColumns = `id, title, summary, coalesce(bullets, '{}'),
	coalesce(core_news_ids, '{}'), coalesce(top_actors, '{}'),
	coalesce(domains, '{}'), coalesce(primary_domain, ''),
	relevance, cohesion, freshness, size,
	first_seen, last_activity, created_at, updated_at,
	is_active, is_editorial`

func scanStory(row pgxv5.Row) (common.Story, error) {
	var st common.Story
	err := row.Scan(
		&st.ID, &st.Title, &st.Summary, &st.Bullets,
		&st.CoreNewsIDs, &st.TopActors,
		&st.Domains, &st.PrimaryDomain,
		&st.Relevance, &st.Cohesion, &st.Freshness, &st.Size,
		&st.FirstSeen, &st.LastActivity, &st.CreatedAt, &st.UpdatedAt,
		&st.IsActive, &st.IsEditorial,
	)
	return st, err
}

func (s *RelationDBStorage) GetStory(ctx context.Context, id string) (common.Story, error) {
	st, err := scanStory(s.conn.QueryRow(ctx,
		`SELECT `+storyColumns+` FROM stories WHERE id = $1`, id))
	if errors.Is(err, pgxv5.ErrNoRows) {
		return common.Story{}, fmt.Errorf("story %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return common.Story{}, err
	}
	return s.attachMembership(ctx, st)
}

func (s *RelationDBStorage) attachMembership(ctx context.Context, st common.Story) (common.Story, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id FROM news
		WHERE story_id = $1 AND NOT is_duplicate
		ORDER BY published_at DESC`, st.ID)
	if err != nil {
		return common.Story{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return common.Story{}, err
		}
		st.NewsIDs = append(st.NewsIDs, id)
	}
	return st, rows.Err()
}

func (s *RelationDBStorage) ListActiveStories(ctx context.Context) ([]common.Story, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT `+storyColumns+` FROM stories
		 WHERE is_active ORDER BY relevance DESC, last_activity DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]common.Story, 0)
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// SaveStory upserts one story and, when newsIDs is non-nil, reassigns its
// membership in the same transaction. Used by manual merge/split; pass-level
// commits go through ApplyClusterPlan.
func (s *RelationDBStorage) SaveStory(ctx context.Context, story common.Story, newsIDs []string) error {
	if story.ID == "" {
		return fmt.Errorf("story id is empty")
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := upsertStory(ctx, tx, story); err != nil {
		return err
	}

	if newsIDs != nil {
		_, err = tx.Exec(ctx, `
			UPDATE news SET story_id = NULL
			WHERE story_id = $1 AND NOT (id = ANY($2))`, story.ID, newsIDs)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE news SET story_id = $1 WHERE id = ANY($2)`, story.ID, newsIDs)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func upsertStory(ctx context.Context, tx pgxv5.Tx, st common.Story) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO stories
			(id, title, summary, bullets, core_news_ids, top_actors,
			 domains, primary_domain, relevance, cohesion, freshness, size,
			 first_seen, last_activity, is_active, is_editorial)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			bullets = EXCLUDED.bullets,
			core_news_ids = EXCLUDED.core_news_ids,
			top_actors = EXCLUDED.top_actors,
			domains = EXCLUDED.domains,
			primary_domain = EXCLUDED.primary_domain,
			relevance = EXCLUDED.relevance,
			cohesion = EXCLUDED.cohesion,
			freshness = EXCLUDED.freshness,
			size = EXCLUDED.size,
			first_seen = LEAST(stories.first_seen, EXCLUDED.first_seen),
			last_activity = EXCLUDED.last_activity,
			is_active = EXCLUDED.is_active,
			is_editorial = EXCLUDED.is_editorial,
			updated_at = now()`,
		st.ID, st.Title, st.Summary, st.Bullets, st.CoreNewsIDs, st.TopActors,
		st.Domains, st.PrimaryDomain, st.Relevance, st.Cohesion, st.Freshness, st.Size,
		st.FirstSeen, st.LastActivity, st.IsActive, st.IsEditorial)
	return err
}
