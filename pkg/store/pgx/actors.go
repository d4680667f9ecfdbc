package pgx

import (
	"context"
	"fmt"

	"storygraph/pkg/common"
	"storygraph/pkg/logger"
	"storygraph/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

// SaveActors upserts a batch of actors and their aliases. Aliases are
// upserted by (actor, name) so re-running extraction never duplicates them.
func (s *RelationDBStorage) SaveActors(ctx context.Context, actors []common.Actor) error {
	if len(actors) == 0 {
		return nil
	}

	actorChunk := 250

	return store.ChunkRange(len(actors), actorChunk, func(start, end int) error {
		part := actors[start:end]
		logger.Debug("[Store][SaveActors] Saving chunk", "actors", len(part))

		tx, err := s.conn.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		for _, a := range part {
			if a.ID == "" {
				return fmt.Errorf("actor id is empty")
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO actors (id, canonical_name, type, wikidata_qid, metadata)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO UPDATE SET
					canonical_name = EXCLUDED.canonical_name,
					type = EXCLUDED.type,
					wikidata_qid = CASE WHEN EXCLUDED.wikidata_qid <> '' THEN EXCLUDED.wikidata_qid ELSE actors.wikidata_qid END,
					metadata = COALESCE(EXCLUDED.metadata, actors.metadata),
					updated_at = now()`,
				a.ID, a.CanonicalName, a.Type, a.WikidataQID, a.Metadata)
			if err != nil {
				return err
			}

			for _, alias := range a.Aliases {
				if alias.Name == "" {
					continue
				}
				_, err := tx.Exec(ctx, `
					INSERT INTO actor_aliases (actor_id, name, alias_type)
					VALUES ($1, $2, $3)
					ON CONFLICT (actor_id, name) DO UPDATE SET alias_type = EXCLUDED.alias_type`,
					a.ID, alias.Name, alias.Type)
				if err != nil {
					return err
				}
			}
		}

		return tx.Commit(ctx)
	})
}

const actorColumns = `a.id, a.canonical_name, a.type, coalesce(a.wikidata_qid, ''),
	a.metadata, a.created_at, a.updated_at`

func collectActors(rows pgxv5.Rows) ([]common.Actor, error) {
	defer rows.Close()

	out := make([]common.Actor, 0)
	for rows.Next() {
		var a common.Actor
		if err := rows.Scan(&a.ID, &a.CanonicalName, &a.Type, &a.WikidataQID,
			&a.Metadata, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *RelationDBStorage) attachAliases(ctx context.Context, actors []common.Actor) ([]common.Actor, error) {
	if len(actors) == 0 {
		return actors, nil
	}

	ids := make([]string, len(actors))
	idx := make(map[string]int, len(actors))
	for i, a := range actors {
		ids[i] = a.ID
		idx[a.ID] = i
	}

	rows, err := s.conn.Query(ctx, `
		SELECT actor_id, name, alias_type FROM actor_aliases
		WHERE actor_id = ANY($1)
		ORDER BY actor_id, name`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var actorID string
		var alias common.ActorAlias
		if err := rows.Scan(&actorID, &alias.Name, &alias.Type); err != nil {
			return nil, err
		}
		if i, ok := idx[actorID]; ok {
			actors[i].Aliases = append(actors[i].Aliases, alias)
		}
	}
	return actors, rows.Err()
}

func (s *RelationDBStorage) ListActors(ctx context.Context) ([]common.Actor, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT `+actorColumns+` FROM actors a ORDER BY a.canonical_name`)
	if err != nil {
		return nil, err
	}
	actors, err := collectActors(rows)
	if err != nil {
		return nil, err
	}
	return s.attachAliases(ctx, actors)
}

// ListActorsByStory returns the actors mentioned by any non-duplicate news
// item currently assigned to the story, most mentioned first.
func (s *RelationDBStorage) ListActorsByStory(ctx context.Context, storyID string) ([]common.Actor, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT `+actorColumns+`
		FROM actors a
		JOIN news_actors na ON na.actor_id = a.id
		JOIN news n ON n.id = na.news_id
		WHERE n.story_id = $1 AND NOT n.is_duplicate
		GROUP BY a.id
		ORDER BY count(*) DESC, a.canonical_name`, storyID)
	if err != nil {
		return nil, err
	}
	actors, err := collectActors(rows)
	if err != nil {
		return nil, err
	}
	return s.attachAliases(ctx, actors)
}

// ListActorsByNews returns the actors mentioned by one news item.
func (s *RelationDBStorage) ListActorsByNews(ctx context.Context, newsID string) ([]common.Actor, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT `+actorColumns+`
		FROM actors a
		JOIN news_actors na ON na.actor_id = a.id
		WHERE na.news_id = $1
		ORDER BY na.confidence DESC, a.canonical_name`, newsID)
	if err != nil {
		return nil, err
	}
	actors, err := collectActors(rows)
	if err != nil {
		return nil, err
	}
	return s.attachAliases(ctx, actors)
}

// SaveMentions replaces the mention edges of one news item.
func (s *RelationDBStorage) SaveMentions(ctx context.Context, newsID string, mentions []common.Mention) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM news_actors WHERE news_id = $1`, newsID)
	if err != nil {
		return err
	}

	for _, m := range mentions {
		_, err := tx.Exec(ctx, `
			INSERT INTO news_actors (news_id, actor_id, confidence)
			VALUES ($1, $2, $3)
			ON CONFLICT (news_id, actor_id) DO UPDATE SET
				confidence = GREATEST(news_actors.confidence, EXCLUDED.confidence)`,
			newsID, m.ActorID, m.Confidence)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// SaveActorRelations upserts actor-to-actor edges by their natural key
// (source, target, type). Expired rows are kept in storage; graph traversal
// filters them out.
func (s *RelationDBStorage) SaveActorRelations(ctx context.Context, relations []common.ActorRelation) error {
	if len(relations) == 0 {
		return nil
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, r := range relations {
		if r.ID == "" {
			return fmt.Errorf("actor relation id is empty")
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO actor_relations
				(id, source_actor_id, target_actor_id, relation_type,
				 weight, confidence, is_ephemeral, expires_at, origin)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (source_actor_id, target_actor_id, relation_type) DO UPDATE SET
				weight = EXCLUDED.weight,
				confidence = EXCLUDED.confidence,
				is_ephemeral = EXCLUDED.is_ephemeral,
				expires_at = EXCLUDED.expires_at`,
			r.ID, r.SourceActorID, r.TargetActorID, r.Type,
			r.Weight, r.Confidence, r.IsEphemeral, r.ExpiresAt, r.Origin)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
