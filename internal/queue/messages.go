package queue

import (
	"encoding/json"

	"storygraph/pkg/common"
)

// IngestNewsMsg triggers the per-news unit of work: persist, extract
// actors, embed, update similarity edges.
type IngestNewsMsg struct {
	News       common.News     `json:"news"`
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`
}

// ClusterMsg triggers a full clustering pass.
type ClusterMsg struct {
	Reason string `json:"reason,omitempty"`
}

// ExtractEventsMsg triggers event re-extraction for one news item.
type ExtractEventsMsg struct {
	NewsID string `json:"news_id"`
}
