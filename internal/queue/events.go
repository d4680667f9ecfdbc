package queue

import (
	"context"
	"encoding/json"
	"errors"

	"storygraph/pkg/common"
	"storygraph/pkg/events"
	"storygraph/pkg/logger"
	pgstore "storygraph/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcessEventMessage re-extracts the event set of one news item. Missing
// news is not an error: the item may have been deleted between publish and
// consume, and there is nothing left to extract from.
func ProcessEventMessage(ctx context.Context, conn *pgxpool.Pool, msg string) error {
	data := new(ExtractEventsMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}
	if data.NewsID == "" {
		return errors.New("event message without news id")
	}

	st := pgstore.NewRelationDBStorage(conn)
	svc := events.NewService(st, events.NewHeuristicClassifier())

	extracted, err := svc.ExtractEvents(ctx, data.NewsID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			logger.Warn("[Events] News vanished before extraction", "news", data.NewsID)
			return nil
		}
		return err
	}

	logger.Info("[Events] Extraction stored", "news", data.NewsID, "events", len(extracted))
	return nil
}
