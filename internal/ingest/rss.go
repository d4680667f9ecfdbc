package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"storygraph/internal/queue"
	"storygraph/internal/util"
	"storygraph/pkg/common"
	"storygraph/pkg/logger"

	"github.com/mmcdole/gofeed"
	"github.com/rabbitmq/amqp091-go"
)

// Feed is one RSS/Atom source to poll.
type Feed struct {
	Name string
	URL  string
}

// Poller fetches configured feeds and publishes every item onto the
// ingest queue. Item IDs are derived from the link, so re-polling the
// same feed upserts instead of duplicating.
type Poller struct {
	feeds  []Feed
	parser *gofeed.Parser
	ch     *amqp091.Channel
}

func NewPoller(ch *amqp091.Channel, feeds []Feed) *Poller {
	return &Poller{
		feeds:  feeds,
		parser: gofeed.NewParser(),
		ch:     ch,
	}
}

// FeedsFromEnv reads RSS_FEEDS, a comma-separated list of entries in
// "name=url" form (a bare URL uses its host as the source name).
func FeedsFromEnv() []Feed {
	raw := util.GetEnvString("RSS_FEEDS", "")
	if raw == "" {
		return nil
	}

	feeds := make([]Feed, 0)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, url, found := strings.Cut(entry, "=")
		if !found {
			url = entry
			name = sourceNameFromURL(entry)
		}
		feeds = append(feeds, Feed{Name: strings.TrimSpace(name), URL: strings.TrimSpace(url)})
	}
	return feeds
}

// Poll fetches every configured feed once. A failing feed is logged and
// skipped so one dead source never blocks the rest.
func (p *Poller) Poll(ctx context.Context) {
	for _, feed := range p.feeds {
		count, err := p.pollFeed(ctx, feed)
		if err != nil {
			logger.Warn("[RSS] Feed poll failed", "feed", feed.Name, "url", feed.URL, "err", err)
			continue
		}
		logger.Info("[RSS] Feed polled", "feed", feed.Name, "items", count)
	}
}

func (p *Poller) pollFeed(ctx context.Context, feed Feed) (int, error) {
	parsed, err := p.parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch %s: %w", feed.URL, err)
	}

	published := 0
	for _, item := range parsed.Items {
		news := normalizeItem(feed, item)
		if news.Title == "" {
			continue
		}

		raw, err := json.Marshal(item)
		if err != nil {
			raw = nil
		}
		body, err := json.Marshal(queue.IngestNewsMsg{News: news, RawPayload: raw})
		if err != nil {
			return published, err
		}
		if err := queue.PublishFIFO(p.ch, queue.IngestQueue, body); err != nil {
			return published, fmt.Errorf("failed to publish item %s: %w", news.ID, err)
		}
		published++
	}
	return published, nil
}

func normalizeItem(feed Feed, item *gofeed.Item) common.News {
	link := item.Link
	if link == "" {
		link = item.GUID
	}
	id := fmt.Sprintf("%x", sha256.Sum256([]byte(link)))[:16]

	publishedAt := time.Now().UTC()
	if item.PublishedParsed != nil {
		publishedAt = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		publishedAt = item.UpdatedParsed.UTC()
	}

	summary := item.Description
	fullText := item.Content
	if fullText == "" {
		fullText = item.Description
	}

	author := ""
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		author = item.Authors[0].Name
	}

	return common.News{
		ID:          id,
		Title:       strings.TrimSpace(item.Title),
		Summary:     strings.TrimSpace(summary),
		FullText:    strings.TrimSpace(fullText),
		URL:         link,
		Source:      feed.Name,
		Author:      author,
		PublishedAt: publishedAt,
		Domains:     item.Categories,
	}
}

func sourceNameFromURL(url string) string {
	name := strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
	name = strings.TrimPrefix(name, "www.")
	if i := strings.IndexByte(name, '/'); i >= 0 {
		name = name[:i]
	}
	return name
}
