package pgx

import (
	"context"

	"storygraph/pkg/common"

	pgxv5 "github.com/jackc/pgx/v5"
)

// ReplaceEvents swaps out all events of one news item in a single
// transaction. Re-extraction therefore never appends duplicates.
func (s *RelationDBStorage) ReplaceEvents(ctx context.Context, newsID string, events []common.Event) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM events WHERE news_id = $1`, newsID)
	if err != nil {
		return err
	}

	for _, e := range events {
		_, err := tx.Exec(ctx, `
			INSERT INTO events
				(id, news_id, event_type, title, description, event_date,
				 extracted_at, actors, source_trust, confidence)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			e.ID, newsID, e.Type, e.Title, e.Description, e.EventDate,
			e.ExtractedAt, e.Actors, e.SourceTrust, e.Confidence)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

const eventColumns = `e.id, e.news_id, e.event_type, e.title,
	coalesce(e.description, ''), e.event_date, e.extracted_at,
	coalesce(e.actors, '{}'), e.source_trust, e.confidence`

func collectEvents(rows pgxv5.Rows, storyID string) ([]common.Event, error) {
	defer rows.Close()

	out := make([]common.Event, 0)
	for rows.Next() {
		var e common.Event
		if err := rows.Scan(&e.ID, &e.NewsID, &e.Type, &e.Title,
			&e.Description, &e.EventDate, &e.ExtractedAt,
			&e.Actors, &e.SourceTrust, &e.Confidence); err != nil {
			return nil, err
		}
		e.StoryID = storyID
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *RelationDBStorage) ListEventsByNews(ctx context.Context, newsID string) ([]common.Event, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT `+eventColumns+` FROM events e
		 WHERE e.news_id = $1 ORDER BY e.event_date`, newsID)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows, "")
}

// ListEventsByStory resolves story attribution at read time through the
// owning news item, so re-clustering re-homes events without re-extraction.
func (s *RelationDBStorage) ListEventsByStory(ctx context.Context, storyID string) ([]common.Event, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT `+eventColumns+` FROM events e
		 JOIN news n ON n.id = e.news_id
		 WHERE n.story_id = $1 AND NOT n.is_duplicate
		 ORDER BY e.event_date`, storyID)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows, storyID)
}
