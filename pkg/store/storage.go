package store

import (
	"context"
	"time"

	"storygraph/pkg/common"
)

// SimilarityHit is one result of a vector similarity search.
type SimilarityHit struct {
	NewsID string
	Score  float64
}

// GraphSnapshot is a consistent read of the graph taken in a single
// transaction. Duplicate news are excluded at load; expired actor relations
// are included and filtered by the graph view.
type GraphSnapshot struct {
	TakenAt time.Time

	News           []common.News
	Edges          []common.NewsRelation
	Mentions       []common.Mention
	ActorRelations []common.ActorRelation
	Actors         []common.Actor
	Stories        []common.Story
}

// StoryChange is one story in a cluster plan: the fully composed story
// (metrics included) and the news assigned to it.
type StoryChange struct {
	Story   common.Story
	NewsIDs []string
	IsNew   bool
}

// ClusterPlan is the outcome of one clustering pass, applied atomically by
// ApplyClusterPlan. Unassigned news lose their story reference; deactivated
// stories are archived, never deleted.
type ClusterPlan struct {
	At         time.Time
	Stories    []StoryChange
	Unassign   []string
	Deactivate []string
}

// RelationStore defines the persistence surface for the news graph: entity
// CRUD, similarity edges, mention edges, actor relations, story membership
// and events. It owns consistency of the graph's persisted form; all
// graph-mutating operations are all-or-nothing per unit of work.
type RelationStore interface {
	SaveNews(ctx context.Context, news []*common.News) error
	GetNews(ctx context.Context, id string) (common.News, error)
	ListNewsByStory(ctx context.Context, storyID string) ([]common.News, error)
	MarkDuplicate(ctx context.Context, newsID, duplicateOf string) error

	UpsertEmbedding(ctx context.Context, newsID string, vector []float32) error
	ComputeSimilarities(ctx context.Context, newsID string, threshold float64) ([]common.NewsRelation, error)
	ComputeAllSimilarities(ctx context.Context, threshold float64) ([]common.NewsRelation, error)
	SimilaritySearch(ctx context.Context, vector []float32, k int, threshold float64) ([]SimilarityHit, error)

	SaveActors(ctx context.Context, actors []common.Actor) error
	ListActors(ctx context.Context) ([]common.Actor, error)
	ListActorsByStory(ctx context.Context, storyID string) ([]common.Actor, error)
	ListActorsByNews(ctx context.Context, newsID string) ([]common.Actor, error)
	SaveMentions(ctx context.Context, newsID string, mentions []common.Mention) error
	SaveActorRelations(ctx context.Context, relations []common.ActorRelation) error

	GetStory(ctx context.Context, id string) (common.Story, error)
	ListActiveStories(ctx context.Context) ([]common.Story, error)
	SaveStory(ctx context.Context, story common.Story, newsIDs []string) error

	ReplaceEvents(ctx context.Context, newsID string, events []common.Event) error
	ListEventsByNews(ctx context.Context, newsID string) ([]common.Event, error)
	ListEventsByStory(ctx context.Context, storyID string) ([]common.Event, error)

	Snapshot(ctx context.Context) (GraphSnapshot, error)
	ApplyClusterPlan(ctx context.Context, plan ClusterPlan) error

	Stats(ctx context.Context) (common.GraphStats, error)
}
