package queue

import (
	"context"
	"encoding/json"
	"errors"

	"storygraph/pkg/graph"
	"storygraph/pkg/leaselock"
	"storygraph/pkg/logger"
	pgstore "storygraph/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcessClusterMessage runs one full clustering pass. Passes triggered
// while another pass holds the cluster lease are dropped, not retried:
// the running pass already sees the snapshot that prompted this message.
func ProcessClusterMessage(ctx context.Context, conn *pgxpool.Pool, msg string) error {
	data := new(ClusterMsg)
	if msg != "" {
		if err := json.Unmarshal([]byte(msg), data); err != nil {
			return err
		}
	}

	st := pgstore.NewRelationDBStorage(conn)
	engine := graph.NewEngine(st, leaselock.New(conn), graph.ParamsFromEnv())

	if err := engine.Run(ctx); err != nil {
		if errors.Is(err, leaselock.ErrBusy) {
			logger.Debug("[Cluster] Pass already running, skipping", "reason", data.Reason)
			return nil
		}
		return err
	}
	return nil
}
