package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"storygraph/pkg/common"
	"storygraph/pkg/leaselock"
	"storygraph/pkg/logger"
	"storygraph/pkg/store"
)

// MergeStories unions the membership of two stories into winnerID and marks
// loserID inactive. Editorial stories are rejected with ErrInvalidOperation
// unless overrideEditorial is set. Metrics are recomputed before commit.
func (e *Engine) MergeStories(ctx context.Context, winnerID, loserID string, overrideEditorial bool) error {
	if winnerID == loserID {
		return fmt.Errorf("cannot merge story %s into itself: %w", winnerID, common.ErrInvalidOperation)
	}

	// Both stories are mutated, so both are leased, in lexical order to
	// avoid deadlock with concurrent merges and splits touching the same
	// pair.
	firstLease, secondLease := common.PairKey(winnerID, loserID)
	return e.withStoryLease(ctx, firstLease, func(ctx context.Context) error {
		return e.withStoryLease(ctx, secondLease, func(ctx context.Context) error {
			return e.mergeLocked(ctx, winnerID, loserID, overrideEditorial)
		})
	})
}

func (e *Engine) mergeLocked(ctx context.Context, winnerID, loserID string, overrideEditorial bool) error {
	winner, err := e.store.GetStory(ctx, winnerID)
	if err != nil {
		return asInvalidRef(err)
	}
	loser, err := e.store.GetStory(ctx, loserID)
	if err != nil {
		return asInvalidRef(err)
	}
	if (winner.IsEditorial || loser.IsEditorial) && !overrideEditorial {
		return fmt.Errorf("merge touches an editorial story: %w", common.ErrInvalidOperation)
	}

	members := store.DedupeStrings(append(winner.NewsIDs, loser.NewsIDs...))
	sort.Strings(members)

	winner, err = e.recomposeStory(ctx, winner, members)
	if err != nil {
		return err
	}
	if err := e.store.SaveStory(ctx, winner, members); err != nil {
		return err
	}

	loser.IsActive = false
	loser.Size = 0
	if err := e.store.SaveStory(ctx, loser, []string{}); err != nil {
		return err
	}

	logger.Info("[Cluster] Stories merged", "winner", winnerID, "loser", loserID, "size", len(members))
	return nil
}

// SplitStory removes newsIDs from a story into a freshly minted story.
// The subset must be a non-empty proper subset of the current membership.
func (e *Engine) SplitStory(ctx context.Context, storyID string, newsIDs []string, overrideEditorial bool) (string, error) {
	newsIDs = store.DedupeStrings(newsIDs)
	if len(newsIDs) == 0 {
		return "", fmt.Errorf("empty split subset: %w", common.ErrInvalidOperation)
	}

	var newID string
	err := e.withStoryLease(ctx, storyID, func(ctx context.Context) error {
		st, err := e.store.GetStory(ctx, storyID)
		if err != nil {
			return asInvalidRef(err)
		}
		if st.IsEditorial && !overrideEditorial {
			return fmt.Errorf("split touches an editorial story: %w", common.ErrInvalidOperation)
		}

		current := make(map[string]struct{}, len(st.NewsIDs))
		for _, id := range st.NewsIDs {
			current[id] = struct{}{}
		}
		for _, id := range newsIDs {
			if _, ok := current[id]; !ok {
				return fmt.Errorf("news %s is not a member of story %s: %w", id, storyID, common.ErrInvalidOperation)
			}
		}
		if len(newsIDs) == len(st.NewsIDs) {
			return fmt.Errorf("split subset equals full membership: %w", common.ErrInvalidOperation)
		}

		remaining := make([]string, 0, len(st.NewsIDs)-len(newsIDs))
		moved := make(map[string]struct{}, len(newsIDs))
		for _, id := range newsIDs {
			moved[id] = struct{}{}
		}
		for _, id := range st.NewsIDs {
			if _, ok := moved[id]; !ok {
				remaining = append(remaining, id)
			}
		}
		sort.Strings(remaining)

		id, err := e.newID()
		if err != nil {
			return fmt.Errorf("failed to mint story id: %w", err)
		}
		newID = id

		split := common.Story{ID: newID, IsActive: true}
		split, err = e.recomposeStory(ctx, split, newsIDs)
		if err != nil {
			return err
		}
		if err := e.store.SaveStory(ctx, split, newsIDs); err != nil {
			return err
		}

		st, err = e.recomposeStory(ctx, st, remaining)
		if err != nil {
			return err
		}
		return e.store.SaveStory(ctx, st, remaining)
	})
	if err != nil {
		return "", err
	}

	logger.Info("[Cluster] Story split", "story", storyID, "new_story", newID, "moved", len(newsIDs))
	return newID, nil
}

// recomposeStory recomputes metrics and presentation fields for a story
// over an explicit membership, using a fresh snapshot for edge and mention
// data.
func (e *Engine) recomposeStory(ctx context.Context, st common.Story, members []string) (common.Story, error) {
	snap, err := e.store.Snapshot(ctx)
	if err != nil {
		return st, err
	}
	now := time.Now().UTC()
	v := NewView(snap, now)

	first, last := memberTimeRange(members, v)
	if st.FirstSeen.IsZero() || (!first.IsZero() && first.Before(st.FirstSeen)) {
		st.FirstSeen = first
	}
	st.LastActivity = last
	st.Size = len(members)
	st.Cohesion = Cohesion(members, snap.Edges)
	st.Freshness = Freshness(last, now, e.params.FreshnessHalfLife)
	st.TopActors = TopActors(members, v, e.params.TopActorCap)
	st.Relevance = e.params.Relevance(st.Size, st.Cohesion, st.Freshness, len(st.TopActors))
	composeStory(&st, members, v)
	st.NewsIDs = members
	return st, nil
}

func (e *Engine) withStoryLease(ctx context.Context, storyID string, fn func(ctx context.Context) error) error {
	return e.lease(ctx, "story:"+storyID, leaselock.Options{
		TTL:  time.Minute,
		Wait: true,
	}, fn)
}

// asInvalidRef reclassifies unknown-ID lookups inside manual operations:
// the story being operated on is an argument, not a resource, so a bad
// reference is a caller mistake.
func asInvalidRef(err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("%w: %w", common.ErrInvalidOperation, err)
	}
	return err
}
