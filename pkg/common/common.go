package common

import "time"

// ActorType classifies an actor node.
type ActorType string

const (
	ActorPerson       ActorType = "person"
	ActorCompany      ActorType = "company"
	ActorCountry      ActorType = "country"
	ActorOrganization ActorType = "organization"
	ActorGovernment   ActorType = "government"
	ActorStructure    ActorType = "structure"
	ActorEvent        ActorType = "event"
)

// RelationType classifies a directed actor-to-actor relation.
type RelationType string

const (
	RelationMemberOf     RelationType = "member_of"
	RelationAllyOf       RelationType = "ally_of"
	RelationCompetitorOf RelationType = "competitor_of"
	RelationPartOf       RelationType = "part_of"
	RelationOperatesIn   RelationType = "operates_in"
	RelationRoleIn       RelationType = "role_in"
	RelationRegulates    RelationType = "regulates"
	RelationOwns         RelationType = "owns"
	// Ephemeral relation types carry an expiry and disappear from
	// graph traversal once expired.
	RelationCriticized RelationType = "criticized"
	RelationSupports   RelationType = "supports"
)

// AliasType classifies an actor alias.
type AliasType string

const (
	AliasCanonical    AliasType = "canonical"
	AliasNickname     AliasType = "nickname"
	AliasTypo         AliasType = "typo"
	AliasEuphemism    AliasType = "euphemism"
	AliasAbbreviation AliasType = "abbreviation"
)

// EventType classifies a timeline event as a verified fact or an
// expressed opinion/stance.
type EventType string

const (
	EventFact    EventType = "fact"
	EventOpinion EventType = "opinion"
)

// DomainCategory is the primary topical domain of a story.
type DomainCategory string

const (
	DomainPolitics    DomainCategory = "politics"
	DomainEconomics   DomainCategory = "economics"
	DomainCulture     DomainCategory = "culture"
	DomainTechnology  DomainCategory = "technology"
	DomainMilitary    DomainCategory = "military"
	DomainHealth      DomainCategory = "health"
	DomainEnvironment DomainCategory = "environment"
	DomainSports      DomainCategory = "sports"
	DomainOther       DomainCategory = "other"
)

// News is one ingested article or content item. A news item belongs to at
// most one story at a time. Duplicates reference their original via
// DuplicateOf and contribute no similarity edges of their own.
type News struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	FullText    string    `json:"full_text"`
	URL         string    `json:"url,omitempty"`
	Source      string    `json:"source"`
	Author      string    `json:"author,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`

	Embedding       []float32 `json:"-"`
	MentionedActors []string  `json:"mentioned_actors,omitempty"`

	StoryID     string `json:"story_id,omitempty"`
	DuplicateOf string `json:"duplicate_of,omitempty"`
	IsDuplicate bool   `json:"is_duplicate"`

	Domains []string `json:"domains,omitempty"`

	IsPinned       bool   `json:"is_pinned"`
	EditorialNotes string `json:"editorial_notes,omitempty"`
}

// ActorAlias is one known surface form of an actor's name.
type ActorAlias struct {
	Name string    `json:"name"`
	Type AliasType `json:"type"`
}

// Actor is a named entity (person, organization, country, ...) referenced
// by news items.
type Actor struct {
	ID            string         `json:"id"`
	CanonicalName string         `json:"canonical_name"`
	Type          ActorType      `json:"type"`
	Aliases       []ActorAlias   `json:"aliases,omitempty"`
	WikidataQID   string         `json:"wikidata_qid,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ActorRelation is a directed, optionally time-bounded edge between two
// actors. Expired relations are logically absent from graph traversal even
// while the row still exists in storage.
type ActorRelation struct {
	ID            string       `json:"id"`
	SourceActorID string       `json:"source_actor_id"`
	TargetActorID string       `json:"target_actor_id"`
	Type          RelationType `json:"relation_type"`
	Weight        float64      `json:"weight"`
	Confidence    float64      `json:"confidence"`
	IsEphemeral   bool         `json:"is_ephemeral"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	Origin        string       `json:"origin"` // auto, editor, import
	CreatedAt     time.Time    `json:"created_at"`
}

// NewsRelation is an undirected similarity edge between two news items.
// Exactly one row exists per unordered pair; by convention NewsA < NewsB.
// Editorial edges are manually pinned and survive automatic recomputation.
type NewsRelation struct {
	NewsA       string    `json:"news_a"`
	NewsB       string    `json:"news_b"`
	Similarity  float64   `json:"similarity"`
	Weight      float64   `json:"weight"`
	IsEditorial bool      `json:"is_editorial"`
	CreatedAt   time.Time `json:"created_at"`
}

// PairKey returns the unordered pair in canonical (a < b) order.
func PairKey(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Mention is a confidence-weighted news-to-actor edge.
type Mention struct {
	NewsID     string  `json:"news_id"`
	ActorID    string  `json:"actor_id"`
	Confidence float64 `json:"confidence"`
}

// Story is a cluster of related news representing one ongoing narrative.
// Metrics are pure functions of current membership and are recomputed on
// every clustering pass; editorial stories are protected from automatic
// merge, split and deactivation.
type Story struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Bullets []string `json:"bullets,omitempty"`

	NewsIDs     []string `json:"news_ids,omitempty"`
	CoreNewsIDs []string `json:"core_news_ids,omitempty"`
	TopActors   []string `json:"top_actors,omitempty"`

	Domains       []string       `json:"domains,omitempty"`
	PrimaryDomain DomainCategory `json:"primary_domain,omitempty"`

	Relevance float64 `json:"relevance"`
	Cohesion  float64 `json:"cohesion"`
	Freshness float64 `json:"freshness"`
	Size      int     `json:"size"`

	FirstSeen    time.Time `json:"first_seen"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	IsActive    bool `json:"is_active"`
	IsEditorial bool `json:"is_editorial"`
}

// Event is a dated fact or opinion statement extracted from one news item.
// Story attribution is resolved at read time through the owning news item,
// so re-clustering re-homes events without re-extraction.
type Event struct {
	ID          string    `json:"id"`
	NewsID      string    `json:"news_id"`
	StoryID     string    `json:"story_id,omitempty"`
	Type        EventType `json:"event_type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	EventDate   time.Time `json:"event_date"`
	ExtractedAt time.Time `json:"extracted_at"`

	Actors []string `json:"actors,omitempty"`

	SourceTrust float64 `json:"source_trust"`
	Confidence  float64 `json:"confidence"`
}

// GraphStats summarizes the persisted graph.
type GraphStats struct {
	NewsCount     int `json:"news_count"`
	ActorCount    int `json:"actor_count"`
	StoryCount    int `json:"story_count"`
	EventCount    int `json:"event_count"`
	NewsEdges     int `json:"news_edges"`
	ActorEdges    int `json:"actor_edges"`
	MentionEdges  int `json:"mention_edges"`
	ActiveStories int `json:"active_stories"`
}
