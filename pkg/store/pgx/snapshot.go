package pgx

import (
	"context"
	"time"

	"storygraph/pkg/common"
	"storygraph/pkg/logger"
	"storygraph/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

// Snapshot reads the full graph in one repeatable-read transaction:
// non-duplicate news, similarity edges, mention edges, actor relations,
// actors and active stories. Concurrent ingestion is picked up by the next
// pass, never half-observed by this one.
func (s *RelationDBStorage) Snapshot(ctx context.Context) (store.GraphSnapshot, error) {
	snap := store.GraphSnapshot{TakenAt: time.Now().UTC()}

	tx, err := s.conn.BeginTx(ctx, pgxv5.TxOptions{
		IsoLevel:   pgxv5.RepeatableRead,
		AccessMode: pgxv5.ReadOnly,
	})
	if err != nil {
		return snap, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT `+newsColumns+` FROM news WHERE NOT is_duplicate`)
	if err != nil {
		return snap, err
	}
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			rows.Close()
			return snap, err
		}
		snap.News = append(snap.News, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, err
	}

	mentionRows, err := tx.Query(ctx,
		`SELECT news_id, actor_id, confidence FROM news_actors`)
	if err != nil {
		return snap, err
	}
	for mentionRows.Next() {
		var m common.Mention
		if err := mentionRows.Scan(&m.NewsID, &m.ActorID, &m.Confidence); err != nil {
			mentionRows.Close()
			return snap, err
		}
		snap.Mentions = append(snap.Mentions, m)
	}
	mentionRows.Close()
	if err := mentionRows.Err(); err != nil {
		return snap, err
	}

	snap.Edges, err = queryEdges(ctx, tx, `
		SELECT news_a, news_b, similarity, weight, is_editorial, created_at
		FROM news_relations`)
	if err != nil {
		return snap, err
	}

	relRows, err := tx.Query(ctx, `
		SELECT id, source_actor_id, target_actor_id, relation_type,
			weight, confidence, is_ephemeral, expires_at, origin, created_at
		FROM actor_relations`)
	if err != nil {
		return snap, err
	}
	for relRows.Next() {
		var r common.ActorRelation
		if err := relRows.Scan(&r.ID, &r.SourceActorID, &r.TargetActorID, &r.Type,
			&r.Weight, &r.Confidence, &r.IsEphemeral, &r.ExpiresAt, &r.Origin, &r.CreatedAt); err != nil {
			relRows.Close()
			return snap, err
		}
		snap.ActorRelations = append(snap.ActorRelations, r)
	}
	relRows.Close()
	if err := relRows.Err(); err != nil {
		return snap, err
	}

	actorRows, err := tx.Query(ctx,
		`SELECT `+actorColumns+` FROM actors a`)
	if err != nil {
		return snap, err
	}
	snap.Actors, err = collectActors(actorRows)
	if err != nil {
		return snap, err
	}

	storyRows, err := tx.Query(ctx,
		`SELECT `+storyColumns+` FROM stories WHERE is_active`)
	if err != nil {
		return snap, err
	}
	defer storyRows.Close()
	for storyRows.Next() {
		st, err := scanStory(storyRows)
		if err != nil {
			return snap, err
		}
		snap.Stories = append(snap.Stories, st)
	}
	if err := storyRows.Err(); err != nil {
		return snap, err
	}

	if err := tx.Commit(ctx); err != nil {
		return snap, err
	}

	logger.Debug("[Store][Snapshot] Graph loaded",
		"news", len(snap.News), "edges", len(snap.Edges),
		"mentions", len(snap.Mentions), "stories", len(snap.Stories))
	return snap, nil
}

// ApplyClusterPlan commits the outcome of one clustering pass in a single
// transaction: story upserts, membership reassignment, unassignments and
// deactivations. An abort before commit has no effect on the visible graph.
func (s *RelationDBStorage) ApplyClusterPlan(ctx context.Context, plan store.ClusterPlan) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, change := range plan.Stories {
		if err := upsertStory(ctx, tx, change.Story); err != nil {
			return err
		}
		// Pinned news keep whatever story they are in.
		_, err = tx.Exec(ctx, `
			UPDATE news SET story_id = $1
			WHERE id = ANY($2) AND NOT is_pinned`, change.Story.ID, change.NewsIDs)
		if err != nil {
			return err
		}
	}

	if len(plan.Unassign) > 0 {
		_, err = tx.Exec(ctx, `
			UPDATE news SET story_id = NULL
			WHERE id = ANY($1) AND NOT is_pinned`, plan.Unassign)
		if err != nil {
			return err
		}
	}

	if len(plan.Deactivate) > 0 {
		_, err = tx.Exec(ctx, `
			UPDATE stories SET is_active = FALSE, updated_at = now()
			WHERE id = ANY($1) AND NOT is_editorial`, plan.Deactivate)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Info("[Store][ApplyClusterPlan] Plan committed",
		"stories", len(plan.Stories), "unassigned", len(plan.Unassign),
		"deactivated", len(plan.Deactivate))
	return nil
}

// Stats summarizes the persisted graph.
func (s *RelationDBStorage) Stats(ctx context.Context) (common.GraphStats, error) {
	var st common.GraphStats
	err := s.conn.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM news),
			(SELECT count(*) FROM actors),
			(SELECT count(*) FROM stories),
			(SELECT count(*) FROM events),
			(SELECT count(*) FROM news_relations),
			(SELECT count(*) FROM actor_relations),
			(SELECT count(*) FROM news_actors),
			(SELECT count(*) FROM stories WHERE is_active)`,
	).Scan(&st.NewsCount, &st.ActorCount, &st.StoryCount, &st.EventCount,
		&st.NewsEdges, &st.ActorEdges, &st.MentionEdges, &st.ActiveStories)
	return st, err
}
