package events

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"storygraph/pkg/common"
	"storygraph/pkg/logger"
	"storygraph/pkg/store"

	"github.com/araddon/dateparse"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	defaultSourceTrust = 0.5
	minSentenceLen     = 25
	maxEventTitleLen   = 120
)

// Service derives dated fact/opinion events from news text. Extraction is
// idempotent: all prior events of a news item are replaced wholesale, never
// appended to. Story attribution is resolved at read time through the
// owning news item.
type Service struct {
	store      store.RelationStore
	classifier Classifier

	sourceTrust map[string]float64

	newID func() (string, error)
	now   func() time.Time
}

type ServiceOption func(*Service)

// WithSourceTrust overrides the trust score for specific sources.
func WithSourceTrust(trust map[string]float64) ServiceOption {
	return func(s *Service) {
		s.sourceTrust = trust
	}
}

func NewService(st store.RelationStore, classifier Classifier, opts ...ServiceOption) *Service {
	s := &Service{
		store:      st,
		classifier: classifier,
		newID:      func() (string, error) { return gonanoid.New() },
		now:        func() time.Time { return time.Now().UTC() },
	}
	if s.classifier == nil {
		s.classifier = NewHeuristicClassifier()
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// ExtractEvents rebuilds the event set of one news item and persists it,
// replacing whatever was extracted before.
func (s *Service) ExtractEvents(ctx context.Context, newsID string) ([]common.Event, error) {
	news, err := s.store.GetNews(ctx, newsID)
	if err != nil {
		return nil, err
	}

	actors, err := s.store.ListActorsByNews(ctx, newsID)
	if err != nil {
		return nil, err
	}

	events, err := s.extract(news, actors)
	if err != nil {
		return nil, err
	}

	if err := s.store.ReplaceEvents(ctx, newsID, events); err != nil {
		return nil, err
	}

	logger.Debug("[Events] Extraction completed", "news", newsID, "events", len(events))
	return events, nil
}

func (s *Service) extract(news common.News, actors []common.Actor) ([]common.Event, error) {
	text := news.FullText
	if strings.TrimSpace(text) == "" {
		text = news.Summary
	}

	trust := s.trustFor(news.Source)
	extractedAt := s.now()

	events := make([]common.Event, 0)
	for _, sentence := range splitSentences(text) {
		if len(sentence) < minSentenceLen {
			continue
		}

		eventType, confidence := s.classifier.Classify(sentence)
		date := extractDate(sentence, news.PublishedAt)

		id, err := s.newID()
		if err != nil {
			return nil, fmt.Errorf("failed to mint event id: %w", err)
		}
		events = append(events, common.Event{
			ID:          id,
			NewsID:      news.ID,
			Type:        eventType,
			Title:       truncate(sentence, maxEventTitleLen),
			Description: sentence,
			EventDate:   date,
			ExtractedAt: extractedAt,
			Actors:      matchActors(sentence, actors),
			SourceTrust: trust,
			Confidence:  confidence,
		})
	}

	events = mergeDuplicates(events)

	// A news item always yields at least one event: the headline itself as
	// a low-confidence fact dated at publication.
	if len(events) == 0 && news.Title != "" {
		id, err := s.newID()
		if err != nil {
			return nil, fmt.Errorf("failed to mint event id: %w", err)
		}
		events = append(events, common.Event{
			ID:          id,
			NewsID:      news.ID,
			Type:        common.EventFact,
			Title:       truncate(news.Title, maxEventTitleLen),
			EventDate:   news.PublishedAt,
			ExtractedAt: extractedAt,
			Actors:      matchActors(news.Title, actors),
			SourceTrust: trust,
			Confidence:  0.3,
		})
	}

	return events, nil
}

func (s *Service) trustFor(source string) float64 {
	if t, ok := s.sourceTrust[source]; ok {
		return t
	}
	return defaultSourceTrust
}

var sentenceSplit = regexp.MustCompile(`[.!?]+\s+`)

func splitSentences(text string) []string {
	parts := sentenceSplit.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
	regexp.MustCompile(`\b(?i:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(?:,?\s+\d{4})?\b`),
	regexp.MustCompile(`\b\d{1,2}\s+(?i:january|february|march|april|may|june|july|august|september|october|november|december)(?:\s+\d{4})?\b`),
}

// extractDate finds a date reference in a statement, handling relative
// markers against the publication date. When nothing parses the publication
// date is the fallback, so an event date is never null.
func extractDate(sentence string, published time.Time) time.Time {
	lower := strings.ToLower(sentence)
	switch {
	case strings.Contains(lower, "yesterday"):
		return published.AddDate(0, 0, -1)
	case strings.Contains(lower, "tomorrow"):
		return published.AddDate(0, 0, 1)
	case strings.Contains(lower, "today"):
		return published
	}

	for _, pat := range datePatterns {
		match := pat.FindString(sentence)
		if match == "" {
			continue
		}
		t, err := dateparse.ParseAny(match)
		if err != nil {
			continue
		}
		// Patterns without a year parse into the current year; pin them
		// to the publication year instead.
		if t.Year() == time.Now().Year() && !strings.Contains(match, fmt.Sprint(t.Year())) {
			t = time.Date(published.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		return t
	}

	return published
}

func matchActors(sentence string, actors []common.Actor) []string {
	lower := strings.ToLower(sentence)
	out := make([]string, 0)
	for _, a := range actors {
		names := []string{a.CanonicalName}
		for _, alias := range a.Aliases {
			names = append(names, alias.Name)
		}
		for _, name := range names {
			if name == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(name)) {
				out = append(out, a.ID)
				break
			}
		}
	}
	return out
}

// mergeDuplicates collapses near-duplicate events: same type, event dates
// at most one day apart and at least 0.8 title word overlap. The higher
// confidence event survives with the union of the actors.
func mergeDuplicates(events []common.Event) []common.Event {
	out := make([]common.Event, 0, len(events))
	for _, e := range events {
		merged := false
		for i := range out {
			if out[i].Type != e.Type {
				continue
			}
			gap := out[i].EventDate.Sub(e.EventDate)
			if gap < 0 {
				gap = -gap
			}
			if gap > 24*time.Hour {
				continue
			}
			if titleOverlap(out[i].Title, e.Title) < 0.8 {
				continue
			}
			if e.Confidence > out[i].Confidence {
				actors := out[i].Actors
				out[i] = e
				out[i].Actors = actors
			}
			out[i].Actors = store.DedupeStrings(append(out[i].Actors, e.Actors...))
			merged = true
			break
		}
		if !merged {
			out = append(out, e)
		}
	}
	return out
}

func titleOverlap(a, b string) float64 {
	wordsA := strings.Fields(strings.ToLower(a))
	wordsB := strings.Fields(strings.ToLower(b))
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(wordsA))
	for _, w := range wordsA {
		setA[w] = struct{}{}
	}
	shared := 0
	seen := make(map[string]struct{}, len(wordsB))
	for _, w := range wordsB {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := setA[w]; ok {
			shared++
		}
	}

	smaller := min(len(setA), len(seen))
	return float64(shared) / float64(smaller)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
