package graph

import (
	"context"
	"reflect"
	"sort"
	"testing"
	"time"

	"storygraph/pkg/common"
	"storygraph/pkg/store"
)

var testBase = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testNews(id string, hoursAgo int) common.News {
	return common.News{
		ID:          id,
		Title:       "title " + id,
		Summary:     "summary " + id,
		PublishedAt: testBase.Add(-time.Duration(hoursAgo) * time.Hour),
	}
}

func testEdge(a, b string, sim float64) common.NewsRelation {
	a, b = common.PairKey(a, b)
	return common.NewsRelation{NewsA: a, NewsB: b, Similarity: sim, Weight: sim}
}

func testEngine(snap store.GraphSnapshot) (*Engine, *fakeStore) {
	fs := &fakeStore{snap: snap}
	e := NewEngine(fs, nil, DefaultParams())
	sequenceIDs(e, "story-")
	return e, fs
}

func planStories(t *testing.T, e *Engine, snap store.GraphSnapshot) []store.StoryChange {
	t.Helper()
	plan, err := e.Plan(snap, testBase)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	return plan.Stories
}

func TestPlanMinClusterSize(t *testing.T) {
	snap := store.GraphSnapshot{
		News: []common.News{
			testNews("a", 1), testNews("b", 2),
			testNews("lonely", 3),
		},
		Edges: []common.NewsRelation{testEdge("a", "b", 0.7)},
	}
	e, _ := testEngine(snap)

	stories := planStories(t, e, snap)
	if len(stories) != 1 {
		t.Fatalf("want exactly one story, got %d", len(stories))
	}
	if !reflect.DeepEqual(stories[0].NewsIDs, []string{"a", "b"}) {
		t.Errorf("membership: got %v", stories[0].NewsIDs)
	}
	if stories[0].Story.Size != 2 {
		t.Errorf("size: got %d, want 2", stories[0].Story.Size)
	}
}

func TestPlanActorBoostBridging(t *testing.T) {
	snap := store.GraphSnapshot{
		News:  []common.News{testNews("a", 1), testNews("b", 2)},
		Edges: []common.NewsRelation{testEdge("a", "b", 0.35)},
		Mentions: []common.Mention{
			{NewsID: "a", ActorID: "shared"},
			{NewsID: "b", ActorID: "shared"},
		},
	}
	e, _ := testEngine(snap)

	// 0.35 x 1.2 = 0.42 clears the 0.40 cutoff.
	stories := planStories(t, e, snap)
	if len(stories) != 1 {
		t.Fatalf("boosted pair should cluster, got %d stories", len(stories))
	}

	// Without the shared actor the same edge stays below the cutoff.
	snap.Mentions = nil
	e2, _ := testEngine(snap)
	if got := planStories(t, e2, snap); len(got) != 0 {
		t.Fatalf("unboosted pair should not cluster, got %d stories", len(got))
	}
}

func TestPlanContinuity(t *testing.T) {
	prev := common.Story{ID: "existing", IsActive: true, FirstSeen: testBase.Add(-72 * time.Hour)}

	newsWithStory := func(id string, hoursAgo int, storyID string) common.News {
		n := testNews(id, hoursAgo)
		n.StoryID = storyID
		return n
	}

	snap := store.GraphSnapshot{
		News: []common.News{
			newsWithStory("a", 10, "existing"),
			newsWithStory("b", 8, "existing"),
			newsWithStory("c", 6, "existing"),
			testNews("d", 1),
		},
		Edges: []common.NewsRelation{
			testEdge("a", "b", 0.8),
			testEdge("b", "c", 0.8),
			testEdge("c", "d", 0.8),
		},
		Stories: []common.Story{prev},
	}
	e, _ := testEngine(snap)

	stories := planStories(t, e, snap)
	if len(stories) != 1 {
		t.Fatalf("want one story, got %d", len(stories))
	}
	// 3 of 4 members previously belonged to "existing": its ID survives.
	if stories[0].Story.ID != "existing" {
		t.Errorf("continuity broken: got story %s", stories[0].Story.ID)
	}
	if stories[0].IsNew {
		t.Error("reused story reported as new")
	}
	if !stories[0].Story.FirstSeen.Equal(prev.FirstSeen) {
		t.Errorf("first_seen changed: got %v", stories[0].Story.FirstSeen)
	}
}

func TestPlanContinuityIgnoresEditorialStories(t *testing.T) {
	editorial := common.Story{ID: "curated", IsActive: true, IsEditorial: true}

	n1 := testNews("a", 2)
	n1.StoryID = "curated"
	n2 := testNews("b", 1)
	n2.StoryID = "curated"

	snap := store.GraphSnapshot{
		News:    []common.News{n1, n2},
		Edges:   []common.NewsRelation{testEdge("a", "b", 0.9)},
		Stories: []common.Story{editorial},
	}
	e, _ := testEngine(snap)

	plan, err := e.Plan(snap, testBase)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	// Members of an editorial story are untouchable: no reassignment, no
	// unassignment, and the story is never deactivated automatically.
	if len(plan.Stories) != 0 {
		t.Errorf("editorial membership reassigned: %v", plan.Stories)
	}
	if len(plan.Unassign) != 0 {
		t.Errorf("editorial membership unassigned: %v", plan.Unassign)
	}
	for _, id := range plan.Deactivate {
		if id == "curated" {
			t.Error("editorial story deactivated")
		}
	}
}

func TestPlanDeactivatesVanishedStories(t *testing.T) {
	snap := store.GraphSnapshot{
		News: []common.News{testNews("a", 1)},
		Stories: []common.Story{
			{ID: "gone", IsActive: true},
			{ID: "curated", IsActive: true, IsEditorial: true},
		},
	}
	e, _ := testEngine(snap)

	plan, err := e.Plan(snap, testBase)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !reflect.DeepEqual(plan.Deactivate, []string{"gone"}) {
		t.Errorf("deactivate: got %v, want [gone]", plan.Deactivate)
	}
}

func TestPlanExcludesDuplicatesAndPinned(t *testing.T) {
	dup := testNews("dup", 1)
	dup.IsDuplicate = true
	dup.DuplicateOf = "a"
	pinned := testNews("pinned", 1)
	pinned.IsPinned = true
	pinned.StoryID = "kept"

	snap := store.GraphSnapshot{
		News: []common.News{testNews("a", 1), testNews("b", 2), dup, pinned},
		Edges: []common.NewsRelation{
			testEdge("a", "b", 0.8),
			testEdge("a", "dup", 0.99),
			testEdge("a", "pinned", 0.99),
		},
		Stories: []common.Story{{ID: "kept", IsActive: true}},
	}
	e, _ := testEngine(snap)

	plan, err := e.Plan(snap, testBase)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for _, change := range plan.Stories {
		for _, id := range change.NewsIDs {
			if id == "dup" || id == "pinned" {
				t.Errorf("excluded news %s assigned to story %s", id, change.Story.ID)
			}
		}
	}
	for _, id := range plan.Unassign {
		if id == "pinned" {
			t.Error("pinned news unassigned")
		}
	}
}

func TestRunIdempotence(t *testing.T) {
	snap := store.GraphSnapshot{
		News: []common.News{testNews("a", 4), testNews("b", 3), testNews("c", 2)},
		Edges: []common.NewsRelation{
			testEdge("a", "b", 0.6),
			testEdge("b", "c", 0.7),
		},
	}
	e, fs := testEngine(snap)
	ctx := context.Background()

	if err := e.Run(ctx); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if err := e.Run(ctx); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if len(fs.plans) != 2 {
		t.Fatalf("want 2 committed plans, got %d", len(fs.plans))
	}

	p1, p2 := fs.plans[0], fs.plans[1]
	if len(p1.Stories) != 1 || len(p2.Stories) != 1 {
		t.Fatalf("want one story per pass, got %d and %d", len(p1.Stories), len(p2.Stories))
	}
	if p1.Stories[0].Story.ID != p2.Stories[0].Story.ID {
		t.Errorf("story id changed between passes: %s vs %s",
			p1.Stories[0].Story.ID, p2.Stories[0].Story.ID)
	}
	if !reflect.DeepEqual(p1.Stories[0].NewsIDs, p2.Stories[0].NewsIDs) {
		t.Errorf("membership changed between passes: %v vs %v",
			p1.Stories[0].NewsIDs, p2.Stories[0].NewsIDs)
	}
	s1, s2 := p1.Stories[0].Story, p2.Stories[0].Story
	if s1.Size != s2.Size || s1.Cohesion != s2.Cohesion || !reflect.DeepEqual(s1.TopActors, s2.TopActors) {
		t.Errorf("metrics changed between passes: %+v vs %+v", s1, s2)
	}
	if len(p2.Deactivate) != 0 {
		t.Errorf("second pass deactivated stories: %v", p2.Deactivate)
	}
}

func TestPlanStoryComposition(t *testing.T) {
	a := testNews("a", 6)
	a.Domains = []string{"elections", "government"}
	b := testNews("b", 4)
	b.Domains = []string{"elections"}
	c := testNews("c", 2)

	snap := store.GraphSnapshot{
		News: []common.News{a, b, c},
		Edges: []common.NewsRelation{
			testEdge("a", "b", 0.7),
			testEdge("a", "c", 0.6),
			testEdge("b", "c", 0.5),
		},
	}
	e, _ := testEngine(snap)

	stories := planStories(t, e, snap)
	if len(stories) != 1 {
		t.Fatalf("want one story, got %d", len(stories))
	}
	st := stories[0].Story

	// "a" has the highest degree and the earliest publication, so it
	// represents the story.
	if st.Title != "title a" {
		t.Errorf("title: got %q", st.Title)
	}
	if st.PrimaryDomain != common.DomainPolitics {
		t.Errorf("primary domain: got %v", st.PrimaryDomain)
	}
	wantDomains := []string{"elections", "government"}
	if !reflect.DeepEqual(st.Domains, wantDomains) {
		t.Errorf("domains: got %v, want %v", st.Domains, wantDomains)
	}
	if !st.LastActivity.Equal(c.PublishedAt) {
		t.Errorf("last activity: got %v, want %v", st.LastActivity, c.PublishedAt)
	}
	wantBullets := []string{"title c", "title b"}
	if !reflect.DeepEqual(st.Bullets, wantBullets) {
		t.Errorf("bullets: got %v, want %v", st.Bullets, wantBullets)
	}

	members := append([]string(nil), st.NewsIDs...)
	sort.Strings(members)
	if !reflect.DeepEqual(members, []string{"a", "b", "c"}) {
		t.Errorf("membership: got %v", members)
	}
}
