package graph

import (
	"context"
	"fmt"

	"storygraph/pkg/common"
	"storygraph/pkg/store"
)

// fakeStore backs engine tests with an in-memory snapshot. Unused interface
// methods come from the embedded nil interface and panic when reached.
type fakeStore struct {
	store.RelationStore

	snap  store.GraphSnapshot
	plans []store.ClusterPlan
}

func (f *fakeStore) Snapshot(ctx context.Context) (store.GraphSnapshot, error) {
	return f.snap, nil
}

func (f *fakeStore) GetStory(ctx context.Context, id string) (common.Story, error) {
	for _, st := range f.snap.Stories {
		if st.ID == id {
			st.NewsIDs = nil
			for _, n := range f.snap.News {
				if n.StoryID == id && !n.IsDuplicate {
					st.NewsIDs = append(st.NewsIDs, n.ID)
				}
			}
			return st, nil
		}
	}
	return common.Story{}, fmt.Errorf("story %s: %w", id, common.ErrNotFound)
}

func (f *fakeStore) SaveStory(ctx context.Context, story common.Story, newsIDs []string) error {
	found := false
	for i := range f.snap.Stories {
		if f.snap.Stories[i].ID == story.ID {
			f.snap.Stories[i] = story
			found = true
			break
		}
	}
	if !found {
		f.snap.Stories = append(f.snap.Stories, story)
	}

	if newsIDs == nil {
		return nil
	}
	member := make(map[string]struct{}, len(newsIDs))
	for _, id := range newsIDs {
		member[id] = struct{}{}
	}
	for i := range f.snap.News {
		if _, ok := member[f.snap.News[i].ID]; ok {
			f.snap.News[i].StoryID = story.ID
		} else if f.snap.News[i].StoryID == story.ID {
			f.snap.News[i].StoryID = ""
		}
	}
	return nil
}

func (f *fakeStore) ApplyClusterPlan(ctx context.Context, plan store.ClusterPlan) error {
	f.plans = append(f.plans, plan)

	for _, change := range plan.Stories {
		st := change.Story
		found := false
		for i := range f.snap.Stories {
			if f.snap.Stories[i].ID == st.ID {
				f.snap.Stories[i] = st
				found = true
				break
			}
		}
		if !found {
			f.snap.Stories = append(f.snap.Stories, st)
		}
		member := make(map[string]struct{}, len(change.NewsIDs))
		for _, id := range change.NewsIDs {
			member[id] = struct{}{}
		}
		for i := range f.snap.News {
			if _, ok := member[f.snap.News[i].ID]; ok && !f.snap.News[i].IsPinned {
				f.snap.News[i].StoryID = st.ID
			}
		}
	}

	unassign := make(map[string]struct{}, len(plan.Unassign))
	for _, id := range plan.Unassign {
		unassign[id] = struct{}{}
	}
	for i := range f.snap.News {
		if _, ok := unassign[f.snap.News[i].ID]; ok && !f.snap.News[i].IsPinned {
			f.snap.News[i].StoryID = ""
		}
	}

	deactivate := make(map[string]struct{}, len(plan.Deactivate))
	for _, id := range plan.Deactivate {
		deactivate[id] = struct{}{}
	}
	for i := range f.snap.Stories {
		if _, ok := deactivate[f.snap.Stories[i].ID]; ok && !f.snap.Stories[i].IsEditorial {
			f.snap.Stories[i].IsActive = false
		}
	}
	return nil
}

// sequenceIDs makes minted story IDs deterministic in tests.
func sequenceIDs(e *Engine, prefix string) {
	i := 0
	e.newID = func() (string, error) {
		i++
		return fmt.Sprintf("%s%d", prefix, i), nil
	}
}
