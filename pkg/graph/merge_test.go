package graph

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"

	"storygraph/pkg/common"
	"storygraph/pkg/leaselock"
	"storygraph/pkg/store"
)

func mergeTestSnapshot() store.GraphSnapshot {
	a := testNews("a", 6)
	a.StoryID = "s1"
	b := testNews("b", 4)
	b.StoryID = "s1"
	c := testNews("c", 2)
	c.StoryID = "s2"
	d := testNews("d", 1)
	d.StoryID = "s2"

	return store.GraphSnapshot{
		News: []common.News{a, b, c, d},
		Edges: []common.NewsRelation{
			testEdge("a", "b", 0.8),
			testEdge("c", "d", 0.7),
			testEdge("b", "c", 0.5),
		},
		Stories: []common.Story{
			{ID: "s1", IsActive: true},
			{ID: "s2", IsActive: true},
		},
	}
}

func TestMergeStories(t *testing.T) {
	e, fs := testEngine(mergeTestSnapshot())
	ctx := context.Background()

	if err := e.MergeStories(ctx, "s1", "s2", false); err != nil {
		t.Fatalf("MergeStories: %v", err)
	}

	winner, err := fs.GetStory(ctx, "s1")
	if err != nil {
		t.Fatalf("GetStory: %v", err)
	}
	members := append([]string(nil), winner.NewsIDs...)
	sort.Strings(members)
	if !reflect.DeepEqual(members, []string{"a", "b", "c", "d"}) {
		t.Errorf("merged membership: got %v", members)
	}
	if winner.Size != 4 {
		t.Errorf("size not recomputed: got %d", winner.Size)
	}
	if winner.Cohesion == 0 {
		t.Error("cohesion not recomputed")
	}

	loser, err := fs.GetStory(ctx, "s2")
	if err != nil {
		t.Fatalf("GetStory: %v", err)
	}
	if loser.IsActive {
		t.Error("loser story still active")
	}
	if len(loser.NewsIDs) != 0 {
		t.Errorf("loser retains members: %v", loser.NewsIDs)
	}
}

func TestMergeStoriesEditorialProtection(t *testing.T) {
	snap := mergeTestSnapshot()
	snap.Stories[1].IsEditorial = true
	e, fs := testEngine(snap)
	ctx := context.Background()

	err := e.MergeStories(ctx, "s1", "s2", false)
	if !errors.Is(err, common.ErrInvalidOperation) {
		t.Fatalf("want ErrInvalidOperation, got %v", err)
	}

	// Nothing moved.
	st, _ := fs.GetStory(ctx, "s2")
	if len(st.NewsIDs) != 2 || !st.IsActive {
		t.Errorf("editorial story mutated: %+v", st)
	}

	// With the override the merge goes through.
	if err := e.MergeStories(ctx, "s1", "s2", true); err != nil {
		t.Fatalf("override merge: %v", err)
	}
}

func TestMergeStoriesSelfMerge(t *testing.T) {
	e, _ := testEngine(mergeTestSnapshot())
	err := e.MergeStories(context.Background(), "s1", "s1", false)
	if !errors.Is(err, common.ErrInvalidOperation) {
		t.Fatalf("want ErrInvalidOperation, got %v", err)
	}
}

func TestMergeStoriesLeasesBothStories(t *testing.T) {
	e, _ := testEngine(mergeTestSnapshot())

	var keys []string
	e.lease = func(ctx context.Context, key string, opts leaselock.Options, fn func(context.Context) error) error {
		keys = append(keys, key)
		return fn(ctx)
	}

	// Winner passed second in lexical order: leases must still be taken
	// in lexical order so concurrent merge/split pairs cannot deadlock.
	if err := e.MergeStories(context.Background(), "s2", "s1", false); err != nil {
		t.Fatalf("MergeStories: %v", err)
	}
	want := []string{"story:s1", "story:s2"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("lease keys: got %v, want %v", keys, want)
	}
}

func TestMergeStoriesUnknownStory(t *testing.T) {
	e, _ := testEngine(mergeTestSnapshot())
	ctx := context.Background()

	err := e.MergeStories(ctx, "s1", "missing", false)
	if !errors.Is(err, common.ErrInvalidOperation) {
		t.Fatalf("unknown loser: want ErrInvalidOperation, got %v", err)
	}
	err = e.MergeStories(ctx, "missing", "s1", false)
	if !errors.Is(err, common.ErrInvalidOperation) {
		t.Fatalf("unknown winner: want ErrInvalidOperation, got %v", err)
	}
}

func TestSplitStory(t *testing.T) {
	e, fs := testEngine(mergeTestSnapshot())
	ctx := context.Background()

	newID, err := e.SplitStory(ctx, "s1", []string{"b"}, false)
	if err != nil {
		t.Fatalf("SplitStory: %v", err)
	}
	if newID == "" {
		t.Fatal("no new story id minted")
	}

	split, err := fs.GetStory(ctx, newID)
	if err != nil {
		t.Fatalf("GetStory(%s): %v", newID, err)
	}
	if !reflect.DeepEqual(split.NewsIDs, []string{"b"}) {
		t.Errorf("split membership: got %v", split.NewsIDs)
	}
	if !split.IsActive {
		t.Error("split story not active")
	}
	if split.Size != 1 || split.Cohesion != 0 {
		t.Errorf("split metrics: size=%d cohesion=%v", split.Size, split.Cohesion)
	}

	rest, err := fs.GetStory(ctx, "s1")
	if err != nil {
		t.Fatalf("GetStory(s1): %v", err)
	}
	if !reflect.DeepEqual(rest.NewsIDs, []string{"a"}) {
		t.Errorf("remaining membership: got %v", rest.NewsIDs)
	}
}

func TestSplitStoryRejectsBadSubsets(t *testing.T) {
	e, _ := testEngine(mergeTestSnapshot())
	ctx := context.Background()

	tests := []struct {
		name    string
		storyID string
		subset  []string
	}{
		{name: "empty subset", storyID: "s1", subset: nil},
		{name: "non-member", storyID: "s1", subset: []string{"c"}},
		{name: "full membership", storyID: "s1", subset: []string{"a", "b"}},
		{name: "unknown story", storyID: "missing", subset: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.SplitStory(ctx, tt.storyID, tt.subset, false)
			if !errors.Is(err, common.ErrInvalidOperation) {
				t.Errorf("want ErrInvalidOperation, got %v", err)
			}
		})
	}
}

func TestSplitStoryEditorialProtection(t *testing.T) {
	snap := mergeTestSnapshot()
	snap.Stories[0].IsEditorial = true
	e, _ := testEngine(snap)

	_, err := e.SplitStory(context.Background(), "s1", []string{"b"}, false)
	if !errors.Is(err, common.ErrInvalidOperation) {
		t.Fatalf("want ErrInvalidOperation, got %v", err)
	}

	if _, err := e.SplitStory(context.Background(), "s1", []string{"b"}, true); err != nil {
		t.Fatalf("override split: %v", err)
	}
}
