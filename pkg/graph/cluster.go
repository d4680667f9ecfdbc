package graph

import (
	"context"
	"fmt"
	"sort"
	"time"

	"storygraph/internal/util"
	"storygraph/pkg/common"
	"storygraph/pkg/leaselock"
	"storygraph/pkg/logger"
	"storygraph/pkg/store"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const clusterLeaseKey = "cluster_pass"

// Params are the clustering configuration knobs. All of them come from the
// environment with documented defaults; none are baked into the algorithm.
type Params struct {
	// EdgeFloor is the minimum similarity at which edges are persisted.
	// It sits below SimilarityThreshold so the actor boost can lift
	// sub-threshold edges over the cluster cutoff.
	EdgeFloor float64
	// SimilarityThreshold is the edge-inclusion cutoff for clustering,
	// applied to boosted weights.
	SimilarityThreshold float64
	// ActorBoost multiplies the weight of edges between news sharing at
	// least one mentioned actor.
	ActorBoost float64
	// MinClusterSize is the smallest component that becomes a story.
	MinClusterSize int
	// ContinuityFraction is the membership share an existing story must
	// hold in a new component to keep its ID (strict majority).
	ContinuityFraction float64
	// FreshnessHalfLife controls the exponential freshness decay.
	FreshnessHalfLife time.Duration

	SizeWeight      float64
	CohesionWeight  float64
	FreshnessWeight float64
	ActorWeight     float64

	TopActorCap int
	// SizeNorm is the story size at which the size term saturates.
	SizeNorm int
}

func DefaultParams() Params {
	return Params{
		EdgeFloor:           0.30,
		SimilarityThreshold: 0.40,
		ActorBoost:          1.2,
		MinClusterSize:      2,
		ContinuityFraction:  0.5,
		FreshnessHalfLife:   48 * time.Hour,
		SizeWeight:          0.3,
		CohesionWeight:      0.25,
		FreshnessWeight:     0.25,
		ActorWeight:         0.2,
		TopActorCap:         10,
		SizeNorm:            20,
	}
}

func ParamsFromEnv() Params {
	d := DefaultParams()
	return Params{
		EdgeFloor:           util.GetEnvNumeric("CLUSTER_EDGE_FLOOR", 0),
		SimilarityThreshold: util.GetEnvNumeric("CLUSTER_SIMILARITY_THRESHOLD", 0),
		ActorBoost:          util.GetEnvNumeric("CLUSTER_ACTOR_BOOST", 0),
		MinClusterSize:      int(util.GetEnvNumeric("CLUSTER_MIN_SIZE", d.MinClusterSize)),
		ContinuityFraction:  util.GetEnvNumeric("CLUSTER_CONTINUITY_FRACTION", 0),
		FreshnessHalfLife:   time.Duration(util.GetEnvNumeric("CLUSTER_FRESHNESS_HALFLIFE_HOURS", 48)) * time.Hour,
		SizeWeight:          util.GetEnvNumeric("CLUSTER_RELEVANCE_SIZE_WEIGHT", 0),
		CohesionWeight:      util.GetEnvNumeric("CLUSTER_RELEVANCE_COHESION_WEIGHT", 0),
		FreshnessWeight:     util.GetEnvNumeric("CLUSTER_RELEVANCE_FRESHNESS_WEIGHT", 0),
		ActorWeight:         util.GetEnvNumeric("CLUSTER_RELEVANCE_ACTOR_WEIGHT", 0),
		TopActorCap:         int(util.GetEnvNumeric("CLUSTER_TOP_ACTOR_CAP", d.TopActorCap)),
		SizeNorm:            int(util.GetEnvNumeric("CLUSTER_SIZE_NORM", d.SizeNorm)),
	}.withDefaults(d)
}

func (p Params) withDefaults(d Params) Params {
	if p.EdgeFloor <= 0 {
		p.EdgeFloor = d.EdgeFloor
	}
	if p.SimilarityThreshold <= 0 {
		p.SimilarityThreshold = d.SimilarityThreshold
	}
	if p.ActorBoost <= 0 {
		p.ActorBoost = d.ActorBoost
	}
	if p.MinClusterSize <= 0 {
		p.MinClusterSize = d.MinClusterSize
	}
	if p.ContinuityFraction <= 0 {
		p.ContinuityFraction = d.ContinuityFraction
	}
	if p.FreshnessHalfLife <= 0 {
		p.FreshnessHalfLife = d.FreshnessHalfLife
	}
	if p.SizeWeight <= 0 {
		p.SizeWeight = d.SizeWeight
	}
	if p.CohesionWeight <= 0 {
		p.CohesionWeight = d.CohesionWeight
	}
	if p.FreshnessWeight <= 0 {
		p.FreshnessWeight = d.FreshnessWeight
	}
	if p.ActorWeight <= 0 {
		p.ActorWeight = d.ActorWeight
	}
	if p.TopActorCap <= 0 {
		p.TopActorCap = d.TopActorCap
	}
	if p.SizeNorm <= 0 {
		p.SizeNorm = d.SizeNorm
	}
	return p
}

// Engine partitions the news layer into stories. Planning is a pure
// function over one snapshot; the resulting plan is committed atomically by
// the relation store.
type Engine struct {
	store  store.RelationStore
	locks  *leaselock.Client
	params Params

	newID func() (string, error)
	lease func(ctx context.Context, key string, opts leaselock.Options, fn func(context.Context) error) error
}

// NewEngine creates a clustering engine. locks may be nil, in which case
// Run executes without cross-process exclusion (tests, single worker).
func NewEngine(st store.RelationStore, locks *leaselock.Client, params Params) *Engine {
	e := &Engine{
		store:  st,
		locks:  locks,
		params: params.withDefaults(DefaultParams()),
		newID:  func() (string, error) { return gonanoid.New() },
	}
	e.lease = func(ctx context.Context, key string, opts leaselock.Options, fn func(context.Context) error) error {
		if e.locks == nil {
			return fn(ctx)
		}
		return e.locks.WithLease(ctx, key, opts, fn)
	}
	return e
}

func (e *Engine) Params() Params {
	return e.params
}

type storyClaim struct {
	component int
	storyID   string
	overlap   int
}

// Plan computes one clustering pass over a snapshot: boosted connected
// components, continuity mapping onto existing stories, per-story metrics
// and composition, and the deactivation set. It performs no I/O.
func (e *Engine) Plan(snap store.GraphSnapshot, now time.Time) (store.ClusterPlan, error) {
	v := NewView(snap, now)

	storiesByID := make(map[string]common.Story, len(snap.Stories))
	for _, st := range snap.Stories {
		storiesByID[st.ID] = st
	}

	// Duplicates never cluster; pinned news and members of editorial
	// stories are excluded from automatic reassignment.
	nodes := make([]string, 0, len(snap.News))
	for _, n := range snap.News {
		if n.IsDuplicate || n.IsPinned {
			continue
		}
		if st, ok := storiesByID[n.StoryID]; ok && st.IsEditorial {
			continue
		}
		nodes = append(nodes, n.ID)
	}
	sort.Strings(nodes)

	boostedWeight := func(edge common.NewsRelation) float64 {
		w := edge.Weight
		if v.ShareActor(edge.NewsA, edge.NewsB) {
			w *= e.params.ActorBoost
		}
		return w
	}
	components := ConnectedComponents(nodes, snap.Edges, func(edge common.NewsRelation) bool {
		return boostedWeight(edge) >= e.params.SimilarityThreshold
	})

	plan := store.ClusterPlan{At: now}

	// Continuity candidates: for each qualifying component, the existing
	// active, non-editorial story holding a strict majority of its members.
	claims := make([]storyClaim, 0)
	qualifying := make([]int, 0, len(components))
	for ci, comp := range components {
		if len(comp) < e.params.MinClusterSize {
			for _, id := range comp {
				if n, ok := v.News(id); ok && n.StoryID != "" {
					plan.Unassign = append(plan.Unassign, id)
				}
			}
			continue
		}
		qualifying = append(qualifying, ci)

		votes := make(map[string]int)
		for _, id := range comp {
			n, ok := v.News(id)
			if !ok || n.StoryID == "" {
				continue
			}
			st, ok := storiesByID[n.StoryID]
			if !ok || !st.IsActive || st.IsEditorial {
				continue
			}
			votes[n.StoryID]++
		}
		for storyID, count := range votes {
			if float64(count) > e.params.ContinuityFraction*float64(len(comp)) {
				claims = append(claims, storyClaim{component: ci, storyID: storyID, overlap: count})
			}
		}
	}

	// A story can be claimed by at most one component; the largest overlap
	// wins, smallest leading member breaks ties.
	sort.Slice(claims, func(i, j int) bool {
		if claims[i].overlap != claims[j].overlap {
			return claims[i].overlap > claims[j].overlap
		}
		return components[claims[i].component][0] < components[claims[j].component][0]
	})
	storyFor := make(map[int]string)
	claimed := make(map[string]struct{})
	for _, c := range claims {
		if _, taken := claimed[c.storyID]; taken {
			continue
		}
		if _, assigned := storyFor[c.component]; assigned {
			continue
		}
		claimed[c.storyID] = struct{}{}
		storyFor[c.component] = c.storyID
	}

	for _, ci := range qualifying {
		comp := components[ci]

		var st common.Story
		isNew := false
		if id, ok := storyFor[ci]; ok {
			st = storiesByID[id]
		} else {
			id, err := e.newID()
			if err != nil {
				return store.ClusterPlan{}, fmt.Errorf("failed to mint story id: %w", err)
			}
			st = common.Story{ID: id}
			isNew = true
		}

		first, last := memberTimeRange(comp, v)
		if isNew || first.Before(st.FirstSeen) {
			st.FirstSeen = first
		}
		st.LastActivity = last
		st.Size = len(comp)
		st.Cohesion = Cohesion(comp, snap.Edges)
		st.Freshness = Freshness(last, now, e.params.FreshnessHalfLife)
		st.TopActors = TopActors(comp, v, e.params.TopActorCap)
		st.Relevance = e.params.Relevance(st.Size, st.Cohesion, st.Freshness, len(st.TopActors))
		st.IsActive = true
		composeStory(&st, comp, v)
		st.NewsIDs = comp

		plan.Stories = append(plan.Stories, store.StoryChange{
			Story:   st,
			NewsIDs: comp,
			IsNew:   isNew,
		})
	}

	// Stories with no surviving majority mapping are archived, never
	// deleted; editorial stories are left alone, as are stories that still
	// hold pinned members.
	retained := make(map[string]struct{})
	for _, n := range snap.News {
		if n.IsPinned && !n.IsDuplicate && n.StoryID != "" {
			retained[n.StoryID] = struct{}{}
		}
	}
	for _, st := range snap.Stories {
		if !st.IsActive || st.IsEditorial {
			continue
		}
		if _, reused := claimed[st.ID]; reused {
			continue
		}
		if _, ok := retained[st.ID]; ok {
			continue
		}
		plan.Deactivate = append(plan.Deactivate, st.ID)
	}
	sort.Strings(plan.Deactivate)
	sort.Strings(plan.Unassign)

	return plan, nil
}

func memberTimeRange(members []string, v *View) (first, last time.Time) {
	for _, id := range members {
		n, ok := v.News(id)
		if !ok {
			continue
		}
		if first.IsZero() || n.PublishedAt.Before(first) {
			first = n.PublishedAt
		}
		if n.PublishedAt.After(last) {
			last = n.PublishedAt
		}
	}
	return first, last
}

// Run executes one full clustering pass: snapshot, plan, atomic commit.
// Concurrent passes are mutually exclusive via the cluster lease.
func (e *Engine) Run(ctx context.Context) error {
	pass := func(ctx context.Context) error {
		snap, err := e.store.Snapshot(ctx)
		if err != nil {
			return fmt.Errorf("failed to load graph snapshot: %w", err)
		}

		plan, err := e.Plan(snap, time.Now().UTC())
		if err != nil {
			return err
		}

		if err := e.store.ApplyClusterPlan(ctx, plan); err != nil {
			return fmt.Errorf("failed to commit cluster plan: %w", err)
		}

		logger.Info("[Cluster] Pass completed",
			"news", len(snap.News), "stories", len(plan.Stories),
			"deactivated", len(plan.Deactivate))
		return nil
	}

	return e.lease(ctx, clusterLeaseKey, leaselock.Options{
		TTL:  5 * time.Minute,
		Wait: false,
	}, pass)
}
