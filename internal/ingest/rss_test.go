package ingest

import (
	"reflect"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
)

func TestFeedsFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want []Feed
	}{
		{
			name: "empty",
			env:  "",
			want: nil,
		},
		{
			name: "named entries",
			env:  "tagesschau=https://www.tagesschau.de/xml/rss2, reuters=https://feeds.reuters.com/reuters/topNews",
			want: []Feed{
				{Name: "tagesschau", URL: "https://www.tagesschau.de/xml/rss2"},
				{Name: "reuters", URL: "https://feeds.reuters.com/reuters/topNews"},
			},
		},
		{
			name: "bare url uses host",
			env:  "https://www.example.org/feed.xml",
			want: []Feed{
				{Name: "example.org", URL: "https://www.example.org/feed.xml"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RSS_FEEDS", tt.env)
			got := FeedsFromEnv()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeItem(t *testing.T) {
	published := time.Date(2025, 3, 4, 8, 30, 0, 0, time.UTC)
	item := &gofeed.Item{
		Title:           "  Parliament approves budget  ",
		Description:     "The national budget passed its final reading.",
		Link:            "https://example.org/news/budget",
		PublishedParsed: &published,
		Categories:      []string{"politics"},
	}

	news := normalizeItem(Feed{Name: "example", URL: "https://example.org/feed"}, item)

	if news.Title != "Parliament approves budget" {
		t.Errorf("title: got %q", news.Title)
	}
	if news.Source != "example" {
		t.Errorf("source: got %q", news.Source)
	}
	if !news.PublishedAt.Equal(published) {
		t.Errorf("published: got %v", news.PublishedAt)
	}
	// No standalone content: description doubles as full text.
	if news.FullText != news.Summary {
		t.Errorf("full text fallback: got %q", news.FullText)
	}
	if len(news.ID) != 16 {
		t.Errorf("id length: got %d", len(news.ID))
	}

	// The same link always yields the same ID, so re-polls upsert.
	again := normalizeItem(Feed{Name: "example"}, item)
	if again.ID != news.ID {
		t.Errorf("id not stable: %q vs %q", again.ID, news.ID)
	}
}
