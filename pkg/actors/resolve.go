package actors

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"storygraph/internal/util"
	"storygraph/pkg/ai"
	"storygraph/pkg/common"
	"storygraph/pkg/store"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var knownActorTypes = map[common.ActorType]struct{}{
	common.ActorPerson:       {},
	common.ActorCompany:      {},
	common.ActorCountry:      {},
	common.ActorOrganization: {},
	common.ActorGovernment:   {},
	common.ActorStructure:    {},
	common.ActorEvent:        {},
}

var knownRelationTypes = map[common.RelationType]struct{}{
	common.RelationMemberOf:     {},
	common.RelationAllyOf:       {},
	common.RelationCompetitorOf: {},
	common.RelationPartOf:       {},
	common.RelationOperatesIn:   {},
	common.RelationRoleIn:       {},
	common.RelationRegulates:    {},
	common.RelationOwns:         {},
	common.RelationCriticized:   {},
	common.RelationSupports:     {},
}

// Resolution is the outcome of canonicalizing one extraction result: the
// actors to upsert, the mention edges for the news item, the actor
// relations, and the surface-name to actor-ID mapping.
type Resolution struct {
	Actors    []common.Actor
	Mentions  []common.Mention
	Relations []common.ActorRelation
	ByName    map[string]string
}

// Resolve deduplicates extracted mentions against the known actor corpus by
// case-insensitive alias match (canonical names and stored aliases) before
// minting new actors. Re-running extraction is idempotent: aliases,
// mentions and relations all upsert by natural key downstream.
func Resolve(ctx context.Context, st store.RelationStore, newsID string, result ai.ExtractionResult, now time.Time) (Resolution, error) {
	res := Resolution{ByName: make(map[string]string)}

	existing, err := st.ListActors(ctx)
	if err != nil {
		return res, err
	}

	idByAlias := make(map[string]string)
	for _, a := range existing {
		idByAlias[normalizeName(a.CanonicalName)] = a.ID
		for _, alias := range a.Aliases {
			idByAlias[normalizeName(alias.Name)] = a.ID
		}
	}

	touched := make(map[string]*common.Actor)
	confidence := make(map[string]float64)

	for _, m := range result.Mentions {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}

		id, known := idByAlias[normalizeName(name)]
		if !known {
			// Check the extractor's own aliases before minting.
			for _, alias := range m.Aliases {
				if aid, ok := idByAlias[normalizeName(alias)]; ok {
					id, known = aid, true
					break
				}
			}
		}
		if !known {
			id, err = gonanoid.New()
			if err != nil {
				return res, fmt.Errorf("failed to mint actor id: %w", err)
			}
			touched[id] = &common.Actor{
				ID:            id,
				CanonicalName: name,
				Type:          actorType(m.Type),
				Aliases:       []common.ActorAlias{{Name: name, Type: common.AliasCanonical}},
			}
			idByAlias[normalizeName(name)] = id
		}

		actor := touched[id]
		if actor == nil {
			// Existing actor: only new aliases are recorded.
			for _, a := range existing {
				if a.ID == id {
					copied := a
					actor = &copied
					break
				}
			}
			if actor == nil {
				continue
			}
			touched[id] = actor
		}

		for _, alias := range m.Aliases {
			alias = strings.TrimSpace(alias)
			if alias == "" {
				continue
			}
			if _, ok := idByAlias[normalizeName(alias)]; ok {
				continue
			}
			idByAlias[normalizeName(alias)] = id
			actor.Aliases = append(actor.Aliases, common.ActorAlias{Name: alias, Type: common.AliasNickname})
		}

		res.ByName[name] = id
		if m.Confidence > confidence[id] {
			confidence[id] = m.Confidence
		}
	}

	ids := make([]string, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		res.Actors = append(res.Actors, *touched[id])
	}

	mentionIDs := make([]string, 0, len(confidence))
	for id := range confidence {
		mentionIDs = append(mentionIDs, id)
	}
	sort.Strings(mentionIDs)
	for _, id := range mentionIDs {
		res.Mentions = append(res.Mentions, common.Mention{
			NewsID:     newsID,
			ActorID:    id,
			Confidence: confidence[id],
		})
	}

	ttl := time.Duration(util.GetEnvNumeric("ACTOR_RELATION_TTL_DAYS", 30)) * 24 * time.Hour
	for _, hint := range result.Relations {
		sourceID, ok := res.ByName[strings.TrimSpace(hint.Source)]
		if !ok {
			sourceID, ok = idByAlias[normalizeName(hint.Source)]
		}
		if !ok {
			continue
		}
		targetID, ok := res.ByName[strings.TrimSpace(hint.Target)]
		if !ok {
			targetID, ok = idByAlias[normalizeName(hint.Target)]
		}
		if !ok || sourceID == targetID {
			continue
		}

		relType := common.RelationType(strings.ToLower(strings.TrimSpace(hint.Relation)))
		if _, ok := knownRelationTypes[relType]; !ok {
			continue
		}

		id, err := gonanoid.New()
		if err != nil {
			return res, fmt.Errorf("failed to mint relation id: %w", err)
		}
		rel := common.ActorRelation{
			ID:            id,
			SourceActorID: sourceID,
			TargetActorID: targetID,
			Type:          relType,
			Weight:        hint.Confidence,
			Confidence:    hint.Confidence,
			Origin:        "auto",
		}
		if hint.Ephemeral || relType == common.RelationCriticized || relType == common.RelationSupports {
			rel.IsEphemeral = true
			expires := now.Add(ttl)
			rel.ExpiresAt = &expires
		}
		res.Relations = append(res.Relations, rel)
	}

	return res, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func actorType(t string) common.ActorType {
	at := common.ActorType(strings.ToLower(strings.TrimSpace(t)))
	if _, ok := knownActorTypes[at]; ok {
		return at
	}
	return common.ActorOrganization
}
