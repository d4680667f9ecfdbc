package actors

import (
	"context"
	"testing"
	"time"

	"storygraph/pkg/ai"
	"storygraph/pkg/common"
	"storygraph/pkg/store"
)

type fakeActorStore struct {
	store.RelationStore
	actors []common.Actor
}

func (f *fakeActorStore) ListActors(ctx context.Context) ([]common.Actor, error) {
	return f.actors, nil
}

func TestResolveMatchesExistingActorsByAlias(t *testing.T) {
	st := &fakeActorStore{actors: []common.Actor{
		{
			ID:            "actor-1",
			CanonicalName: "International Monetary Fund",
			Type:          common.ActorOrganization,
			Aliases: []common.ActorAlias{
				{Name: "International Monetary Fund", Type: common.AliasCanonical},
				{Name: "IMF", Type: common.AliasAbbreviation},
			},
		},
	}}

	result := ai.ExtractionResult{Mentions: []ai.ActorMention{
		{Name: "imf", Type: "organization", Confidence: 0.9},
		{Name: "Jane Doe", Type: "person", Confidence: 0.8},
	}}

	res, err := Resolve(context.Background(), st, "news-1", result, time.Now())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if res.ByName["imf"] != "actor-1" {
		t.Errorf("alias match failed: got %q", res.ByName["imf"])
	}

	// Only the unknown person becomes a new actor.
	newActors := 0
	for _, a := range res.Actors {
		if a.ID != "actor-1" {
			newActors++
			if a.CanonicalName != "Jane Doe" || a.Type != common.ActorPerson {
				t.Errorf("unexpected new actor: %+v", a)
			}
		}
	}
	if newActors != 1 {
		t.Errorf("want 1 new actor, got %d", newActors)
	}

	if len(res.Mentions) != 2 {
		t.Fatalf("want 2 mentions, got %d", len(res.Mentions))
	}
	for _, m := range res.Mentions {
		if m.NewsID != "news-1" {
			t.Errorf("mention news id: got %q", m.NewsID)
		}
	}
}

func TestResolveDeduplicatesWithinBatch(t *testing.T) {
	st := &fakeActorStore{}

	result := ai.ExtractionResult{Mentions: []ai.ActorMention{
		{Name: "Acme Corp", Type: "company", Confidence: 0.7, Aliases: []string{"Acme"}},
		{Name: "acme", Type: "company", Confidence: 0.95},
	}}

	res, err := Resolve(context.Background(), st, "news-1", result, time.Now())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if len(res.Actors) != 1 {
		t.Fatalf("want 1 actor, got %d", len(res.Actors))
	}
	if len(res.Mentions) != 1 {
		t.Fatalf("want 1 mention, got %d", len(res.Mentions))
	}
	// The mention keeps the highest confidence seen for the actor.
	if res.Mentions[0].Confidence != 0.95 {
		t.Errorf("confidence: got %v, want 0.95", res.Mentions[0].Confidence)
	}
}

func TestResolveRelations(t *testing.T) {
	st := &fakeActorStore{}
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	result := ai.ExtractionResult{
		Mentions: []ai.ActorMention{
			{Name: "Alpha", Type: "company", Confidence: 0.9},
			{Name: "Beta", Type: "company", Confidence: 0.9},
		},
		Relations: []ai.ActorRelationHint{
			{Source: "Alpha", Target: "Beta", Relation: "competitor_of", Confidence: 0.8},
			{Source: "Alpha", Target: "Beta", Relation: "criticized", Confidence: 0.6},
			{Source: "Alpha", Target: "Nobody", Relation: "ally_of", Confidence: 0.5},
			{Source: "Alpha", Target: "Beta", Relation: "invented_type", Confidence: 0.5},
		},
	}

	res, err := Resolve(context.Background(), st, "news-1", result, now)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// Unknown targets and unknown relation types are dropped.
	if len(res.Relations) != 2 {
		t.Fatalf("want 2 relations, got %d", len(res.Relations))
	}

	var criticized *common.ActorRelation
	for i := range res.Relations {
		if res.Relations[i].Type == common.RelationCriticized {
			criticized = &res.Relations[i]
		}
	}
	if criticized == nil {
		t.Fatal("criticized relation missing")
	}
	if !criticized.IsEphemeral || criticized.ExpiresAt == nil {
		t.Error("criticized relation must be ephemeral with an expiry")
	}
	if criticized.ExpiresAt != nil && !criticized.ExpiresAt.After(now) {
		t.Errorf("expiry not in the future: %v", criticized.ExpiresAt)
	}
}
