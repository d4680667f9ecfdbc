package pgx

import (
	"context"
	"strings"
	"testing"

	"storygraph/pkg/common"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// recordingTx captures executed SQL. Unused pgx.Tx methods come from the
// embedded nil interface and panic when reached.
type recordingTx struct {
	pgxv5.Tx

	execs []string
}

func (t *recordingTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	return pgconn.CommandTag{}, nil
}

func (t *recordingTx) Commit(ctx context.Context) error   { return nil }
func (t *recordingTx) Rollback(ctx context.Context) error { return nil }

type recordingConn struct {
	pgxIConn

	tx *recordingTx
}

func (c *recordingConn) Begin(ctx context.Context) (pgxv5.Tx, error) {
	return c.tx, nil
}

func TestSaveStoryKeepsEarliestFirstSeen(t *testing.T) {
	conn := &recordingConn{tx: &recordingTx{}}
	s := NewRelationDBStorage(conn)

	err := s.SaveStory(context.Background(), common.Story{ID: "s1"}, nil)
	if err != nil {
		t.Fatalf("SaveStory: %v", err)
	}
	if len(conn.tx.execs) != 1 {
		t.Fatalf("want 1 statement, got %d", len(conn.tx.execs))
	}

	// Re-upserting a story must never move first_seen later: the conflict
	// branch keeps the earlier of the stored and incoming values.
	upsert := conn.tx.execs[0]
	if !strings.Contains(upsert, "LEAST(stories.first_seen, EXCLUDED.first_seen)") {
		t.Errorf("upsert does not preserve earliest first_seen:\n%s", upsert)
	}
}

func TestSaveStoryRejectsEmptyID(t *testing.T) {
	conn := &recordingConn{tx: &recordingTx{}}
	s := NewRelationDBStorage(conn)

	if err := s.SaveStory(context.Background(), common.Story{}, nil); err == nil {
		t.Fatal("want error for empty story id")
	}
	if len(conn.tx.execs) != 0 {
		t.Errorf("statements executed for invalid story: %v", conn.tx.execs)
	}
}
