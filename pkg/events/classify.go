package events

import (
	"strings"

	"storygraph/pkg/common"
)

// Classifier decides whether an extracted statement is a verified fact or
// an expressed opinion. It is a pluggable strategy so the lexical heuristic
// can be swapped for a model-backed classifier without touching extraction.
type Classifier interface {
	Classify(statement string) (common.EventType, float64)
}

var opinionMarkers = []string{
	"believes", "believe", "thinks", "think", "argues", "argue",
	"claims", "claim", "should", "must", "ought to",
	"criticized", "criticised", "slammed", "praised", "blamed",
	"fears", "hopes", "warns that", "allegedly", "reportedly",
	"in my view", "according to critics",
}

var factMarkers = []string{
	"announced", "reported", "confirmed", "launched", "signed",
	"elected", "appointed", "released", "published", "arrested",
	"died", "opened", "closed", "acquired", "approved", "voted",
}

// HeuristicClassifier scores opinion and fact lexical markers and treats
// direct quotes as an opinion signal.
type HeuristicClassifier struct{}

func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

func (c *HeuristicClassifier) Classify(statement string) (common.EventType, float64) {
	lower := strings.ToLower(statement)

	opinionScore := 0
	for _, m := range opinionMarkers {
		if strings.Contains(lower, m) {
			opinionScore++
		}
	}
	if hasQuote(statement) {
		opinionScore++
	}

	factScore := 0
	for _, m := range factMarkers {
		if strings.Contains(lower, m) {
			factScore++
		}
	}

	if opinionScore > factScore {
		return common.EventOpinion, markerConfidence(opinionScore)
	}
	if factScore > opinionScore {
		return common.EventFact, markerConfidence(factScore)
	}
	// No signal either way: statements default to fact at low confidence.
	return common.EventFact, 0.4
}

func markerConfidence(matches int) float64 {
	conf := 0.5 + 0.15*float64(matches)
	if conf > 0.9 {
		return 0.9
	}
	return conf
}

func hasQuote(s string) bool {
	for _, q := range []string{`"`, "“", "”", "«"} {
		if strings.Contains(s, q) {
			return true
		}
	}
	return false
}
