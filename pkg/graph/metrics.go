package graph

import (
	"math"
	"sort"
	"strings"
	"time"

	"storygraph/pkg/common"
)

// Cohesion is the mean pairwise similarity among members: the sum of stored
// intra-member edge similarities divided by the number of unordered pairs.
// Pairs without an edge count as zero; stories of size < 2 have cohesion 0.
func Cohesion(members []string, edges []common.NewsRelation) float64 {
	n := len(members)
	if n < 2 {
		return 0
	}

	inSet := make(map[string]struct{}, n)
	for _, m := range members {
		inSet[m] = struct{}{}
	}

	var sum float64
	for _, e := range edges {
		if _, ok := inSet[e.NewsA]; !ok {
			continue
		}
		if _, ok := inSet[e.NewsB]; !ok {
			continue
		}
		sum += e.Similarity
	}

	pairs := float64(n*(n-1)) / 2
	return sum / pairs
}

// Freshness decays exponentially with the age of the story's last activity:
// 2^(-age/halfLife), clamped to [0,1]. Future activity counts as fresh.
func Freshness(lastActivity, now time.Time, halfLife time.Duration) float64 {
	if halfLife <= 0 {
		return 0
	}
	age := now.Sub(lastActivity)
	if age <= 0 {
		return 1
	}
	f := math.Exp2(-float64(age) / float64(halfLife))
	if f > 1 {
		return 1
	}
	return f
}

// Relevance blends normalized size, cohesion, freshness and distinct
// top-actor prominence with configurable weights.
func (p Params) Relevance(size int, cohesion, freshness float64, actorCount int) float64 {
	sizeNorm := float64(size) / float64(p.SizeNorm)
	if sizeNorm > 1 {
		sizeNorm = 1
	}
	actorNorm := float64(actorCount) / float64(p.TopActorCap)
	if actorNorm > 1 {
		actorNorm = 1
	}
	return p.SizeWeight*sizeNorm +
		p.CohesionWeight*cohesion +
		p.FreshnessWeight*freshness +
		p.ActorWeight*actorNorm
}

type actorRank struct {
	actorID      string
	mentionCount int
	firstMention time.Time
}

// TopActors ranks the actors mentioned across member news by mention count,
// capped at limit. Ties are broken by first-mention recency (most recent
// first), then by ID for determinism.
func TopActors(members []string, v *View, limit int) []string {
	counts := make(map[string]int)
	first := make(map[string]time.Time)

	for _, newsID := range members {
		n, ok := v.News(newsID)
		if !ok {
			continue
		}
		for _, actorID := range v.MentionedActors(newsID) {
			counts[actorID]++
			t, seen := first[actorID]
			if !seen || n.PublishedAt.Before(t) {
				first[actorID] = n.PublishedAt
			}
		}
	}

	ranked := make([]actorRank, 0, len(counts))
	for id, c := range counts {
		ranked = append(ranked, actorRank{actorID: id, mentionCount: c, firstMention: first[id]})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].mentionCount != ranked[j].mentionCount {
			return ranked[i].mentionCount > ranked[j].mentionCount
		}
		if !ranked[i].firstMention.Equal(ranked[j].firstMention) {
			return ranked[i].firstMention.After(ranked[j].firstMention)
		}
		return ranked[i].actorID < ranked[j].actorID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.actorID
	}
	return out
}

var domainKeywords = map[common.DomainCategory][]string{
	common.DomainPolitics:    {"politic", "election", "government", "parliament", "policy", "diplomacy"},
	common.DomainEconomics:   {"econom", "market", "finance", "trade", "business", "inflation"},
	common.DomainCulture:     {"culture", "art", "music", "film", "media", "entertainment"},
	common.DomainTechnology:  {"tech", "software", "ai", "internet", "cyber", "science"},
	common.DomainMilitary:    {"military", "defense", "war", "army", "weapon", "conflict"},
	common.DomainHealth:      {"health", "medic", "disease", "hospital", "pandemic", "drug"},
	common.DomainEnvironment: {"environment", "climate", "energy", "pollution", "wildlife"},
	common.DomainSports:      {"sport", "football", "soccer", "olympic", "league", "tournament"},
}

// InferPrimaryDomain picks the domain category with the most keyword votes
// over the given domain labels, defaulting to other. Ties resolve in
// category name order for determinism.
func InferPrimaryDomain(domains []string) common.DomainCategory {
	votes := make(map[common.DomainCategory]int)
	for _, d := range domains {
		lower := strings.ToLower(d)
		for cat, keywords := range domainKeywords {
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					votes[cat]++
					break
				}
			}
		}
	}

	best := common.DomainOther
	bestVotes := 0
	cats := make([]common.DomainCategory, 0, len(votes))
	for cat := range votes {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	for _, cat := range cats {
		if votes[cat] > bestVotes {
			best, bestVotes = cat, votes[cat]
		}
	}
	return best
}

// composeStory fills the presentation fields of a story from its current
// membership: a representative title and summary, bullet highlights, the
// core news set and the domain labels.
func composeStory(st *common.Story, members []string, v *View) {
	type memberInfo struct {
		news   common.News
		degree int
	}

	infos := make([]memberInfo, 0, len(members))
	for _, id := range members {
		n, ok := v.News(id)
		if !ok {
			continue
		}
		infos = append(infos, memberInfo{news: n, degree: len(v.adjacency[id])})
	}
	if len(infos) == 0 {
		return
	}

	// Representative: best connected member, earliest published on ties.
	rep := infos[0]
	for _, in := range infos[1:] {
		if in.degree > rep.degree ||
			(in.degree == rep.degree && in.news.PublishedAt.Before(rep.news.PublishedAt)) {
			rep = in
		}
	}
	st.Title = rep.news.Title
	st.Summary = rep.news.Summary

	// Bullets: latest headlines other than the representative.
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].news.PublishedAt.Equal(infos[j].news.PublishedAt) {
			return infos[i].news.PublishedAt.After(infos[j].news.PublishedAt)
		}
		return infos[i].news.ID < infos[j].news.ID
	})
	st.Bullets = st.Bullets[:0]
	for _, in := range infos {
		if in.news.ID == rep.news.ID || in.news.Title == "" {
			continue
		}
		st.Bullets = append(st.Bullets, in.news.Title)
		if len(st.Bullets) == 3 {
			break
		}
	}

	core := []string{rep.news.ID}
	domains := make([]string, 0)
	for _, in := range infos {
		if in.news.IsPinned && in.news.ID != rep.news.ID {
			core = append(core, in.news.ID)
		}
		domains = append(domains, in.news.Domains...)
	}
	sort.Strings(core)
	st.CoreNewsIDs = core

	seen := make(map[string]struct{})
	st.Domains = st.Domains[:0]
	for _, d := range domains {
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		st.Domains = append(st.Domains, d)
	}
	sort.Strings(st.Domains)
	st.PrimaryDomain = InferPrimaryDomain(st.Domains)
}
