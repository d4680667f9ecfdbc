package graph

import (
	"reflect"
	"testing"
	"time"

	"storygraph/pkg/common"
	"storygraph/pkg/store"
)

func TestViewNeighbors(t *testing.T) {
	snap := store.GraphSnapshot{
		News: []common.News{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Edges: []common.NewsRelation{
			{NewsA: "a", NewsB: "b", Similarity: 0.7},
			{NewsA: "a", NewsB: "c", Similarity: 0.3},
			{NewsA: "a", NewsB: "ghost", Similarity: 0.9},
		},
	}
	v := NewView(snap, time.Now())

	got := v.Neighbors("a", 0.4)
	want := []string{"b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got = v.Neighbors("a", 0.2)
	want = []string{"b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestViewNeighborsEdgeSymmetry(t *testing.T) {
	// One stored row per unordered pair: the same edge must be visible
	// from both endpoints with the same similarity.
	snap := store.GraphSnapshot{
		News: []common.News{{ID: "a"}, {ID: "b"}},
		Edges: []common.NewsRelation{
			{NewsA: "a", NewsB: "b", Similarity: 0.7},
		},
	}
	v := NewView(snap, time.Now())

	if got := v.Neighbors("a", 0.5); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("Neighbors(a): got %v, want [b]", got)
	}
	if got := v.Neighbors("b", 0.5); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Neighbors(b): got %v, want [a]", got)
	}

	// A threshold above the edge hides it from both sides alike.
	if got := v.Neighbors("a", 0.8); len(got) != 0 {
		t.Errorf("Neighbors(a) above threshold: got %v", got)
	}
	if got := v.Neighbors("b", 0.8); len(got) != 0 {
		t.Errorf("Neighbors(b) above threshold: got %v", got)
	}
}

func TestViewActorNeighborsExcludesExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	snap := store.GraphSnapshot{
		ActorRelations: []common.ActorRelation{
			{ID: "r1", SourceActorID: "x", TargetActorID: "y", Type: common.RelationAllyOf},
			{ID: "r2", SourceActorID: "x", TargetActorID: "z", Type: common.RelationSupports, IsEphemeral: true, ExpiresAt: &past},
			{ID: "r3", SourceActorID: "w", TargetActorID: "x", Type: common.RelationCriticized, IsEphemeral: true, ExpiresAt: &future},
		},
	}
	v := NewView(snap, now)

	// The expired relation to z is logically absent even though the row
	// still exists; the not-yet-expired inbound relation from w counts.
	got := v.ActorNeighbors("x")
	want := []string{"w", "y"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestViewShareActor(t *testing.T) {
	snap := store.GraphSnapshot{
		News: []common.News{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Mentions: []common.Mention{
			{NewsID: "a", ActorID: "p1"},
			{NewsID: "a", ActorID: "p2"},
			{NewsID: "b", ActorID: "p2"},
			{NewsID: "c", ActorID: "p3"},
		},
	}
	v := NewView(snap, time.Now())

	if !v.ShareActor("a", "b") {
		t.Error("a and b share p2")
	}
	if v.ShareActor("a", "c") {
		t.Error("a and c share no actor")
	}
	if v.ShareActor("b", "c") {
		t.Error("b and c share no actor")
	}
}

func TestConnectedComponentsDeterminism(t *testing.T) {
	nodes := []string{"d", "b", "a", "c", "e"}
	edges := []common.NewsRelation{
		{NewsA: "a", NewsB: "b", Similarity: 0.9},
		{NewsA: "b", NewsB: "c", Similarity: 0.9},
		{NewsA: "d", NewsB: "e", Similarity: 0.9},
	}

	want := [][]string{{"a", "b", "c"}, {"d", "e"}}

	// Same edge set, different orderings: the partition must not change.
	for range 5 {
		got := ConnectedComponents(nodes, edges, nil)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		edges[0], edges[2] = edges[2], edges[0]
		nodes[0], nodes[4] = nodes[4], nodes[0]
	}
}

func TestConnectedComponentsPredicate(t *testing.T) {
	nodes := []string{"a", "b", "c"}
	edges := []common.NewsRelation{
		{NewsA: "a", NewsB: "b", Similarity: 0.9},
		{NewsA: "b", NewsB: "c", Similarity: 0.2},
	}

	got := ConnectedComponents(nodes, edges, func(e common.NewsRelation) bool {
		return e.Similarity >= 0.4
	})
	want := [][]string{{"a", "b"}, {"c"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
