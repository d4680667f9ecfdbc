package pgx

import (
	"context"
	"sync"

	"storygraph/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
	BeginTx(ctx context.Context, txOptions pgxv5.TxOptions) (pgxv5.Tx, error)
}

// RelationDBStorage implements store.RelationStore on PostgreSQL with
// pgvector for similarity search. Graph-mutating operations run in single
// transactions so a failed unit of work leaves no partial state.
type RelationDBStorage struct {
	conn   pgxIConn
	dbLock sync.Mutex
}

var _ store.RelationStore = (*RelationDBStorage)(nil)

// NewRelationDBStorage creates a RelationDBStorage using an existing
// database connection or pool.
func NewRelationDBStorage(conn pgxIConn) *RelationDBStorage {
	return &RelationDBStorage{
		conn:   conn,
		dbLock: sync.Mutex{},
	}
}
