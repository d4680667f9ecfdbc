package graph

import (
	"sort"
	"time"

	"storygraph/pkg/common"
	"storygraph/pkg/store"
)

// View is a read-only projection of one graph snapshot. It is always
// rebuildable from the relation store and never authoritative across
// passes; expired actor relations are filtered against the time the view
// was built.
type View struct {
	now time.Time

	news       map[string]common.News
	edges      []common.NewsRelation
	adjacency  map[string][]int
	newsActors map[string][]string
	actorEdges map[string][]common.ActorRelation
}

// NewView builds a view over a snapshot. Duplicate news are already
// excluded at snapshot load.
func NewView(snap store.GraphSnapshot, now time.Time) *View {
	v := &View{
		now:        now,
		news:       make(map[string]common.News, len(snap.News)),
		edges:      snap.Edges,
		adjacency:  make(map[string][]int),
		newsActors: make(map[string][]string),
		actorEdges: make(map[string][]common.ActorRelation),
	}

	for _, n := range snap.News {
		v.news[n.ID] = n
	}

	for i, e := range snap.Edges {
		if _, ok := v.news[e.NewsA]; !ok {
			continue
		}
		if _, ok := v.news[e.NewsB]; !ok {
			continue
		}
		v.adjacency[e.NewsA] = append(v.adjacency[e.NewsA], i)
		v.adjacency[e.NewsB] = append(v.adjacency[e.NewsB], i)
	}

	for _, m := range snap.Mentions {
		if _, ok := v.news[m.NewsID]; !ok {
			continue
		}
		v.newsActors[m.NewsID] = append(v.newsActors[m.NewsID], m.ActorID)
	}
	for id := range v.newsActors {
		sort.Strings(v.newsActors[id])
	}

	for _, r := range snap.ActorRelations {
		v.actorEdges[r.SourceActorID] = append(v.actorEdges[r.SourceActorID], r)
		v.actorEdges[r.TargetActorID] = append(v.actorEdges[r.TargetActorID], r)
	}

	return v
}

// News returns the news item for id, if present in the view.
func (v *View) News(id string) (common.News, bool) {
	n, ok := v.news[id]
	return n, ok
}

// Neighbors returns the news connected to newsID by similarity edges at or
// above threshold, sorted by ID.
func (v *View) Neighbors(newsID string, threshold float64) []string {
	out := make([]string, 0)
	for _, i := range v.adjacency[newsID] {
		e := v.edges[i]
		if e.Similarity < threshold {
			continue
		}
		if e.NewsA == newsID {
			out = append(out, e.NewsB)
		} else {
			out = append(out, e.NewsA)
		}
	}
	sort.Strings(out)
	return out
}

// ActorNeighbors returns the actors connected to actorID by non-expired
// relations, in either direction, sorted and deduplicated. A relation with
// expires_at in the past is logically absent even while its row survives in
// storage.
func (v *View) ActorNeighbors(actorID string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range v.actorEdges[actorID] {
		if r.ExpiresAt != nil && !r.ExpiresAt.After(v.now) {
			continue
		}
		other := r.TargetActorID
		if other == actorID {
			other = r.SourceActorID
		}
		if other == actorID {
			continue
		}
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		out = append(out, other)
	}
	sort.Strings(out)
	return out
}

// MentionedActors returns the actor IDs mentioned by a news item, sorted.
func (v *View) MentionedActors(newsID string) []string {
	return v.newsActors[newsID]
}

// ShareActor reports whether two news items mention at least one common
// actor. Both mention lists are sorted, so a single merge scan suffices.
func (v *View) ShareActor(a, b string) bool {
	as, bs := v.newsActors[a], v.newsActors[b]
	i, j := 0, 0
	for i < len(as) && j < len(bs) {
		switch {
		case as[i] == bs[j]:
			return true
		case as[i] < bs[j]:
			i++
		default:
			j++
		}
	}
	return false
}
