package routes

import (
	"encoding/json"
	"net/http"
	"time"

	"storygraph/internal/queue"
	"storygraph/internal/server/middleware"
	"storygraph/pkg/common"
	"storygraph/pkg/logger"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// IngestNewsHandler accepts a news item and enqueues the ingest unit of
// work. Processing is asynchronous; the minted ID is returned right away.
func IngestNewsHandler(c echo.Context) error {
	type ingestBody struct {
		ID          string          `json:"id"`
		Title       string          `json:"title" validate:"required"`
		Summary     string          `json:"summary"`
		FullText    string          `json:"full_text"`
		URL         string          `json:"url"`
		Source      string          `json:"source" validate:"required"`
		Author      string          `json:"author"`
		PublishedAt time.Time       `json:"published_at"`
		Domains     []string        `json:"domains"`
		RawPayload  json.RawMessage `json:"raw_payload"`
	}

	data := new(ingestBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	newsID := data.ID
	if newsID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
		newsID = id
	}
	publishedAt := data.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now().UTC()
	}

	msg := queue.IngestNewsMsg{
		News: common.News{
			ID:          newsID,
			Title:       data.Title,
			Summary:     data.Summary,
			FullText:    data.FullText,
			URL:         data.URL,
			Source:      data.Source,
			Author:      data.Author,
			PublishedAt: publishedAt,
			Domains:     data.Domains,
		},
		RawPayload: data.RawPayload,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.IngestQueue, body); err != nil {
		logger.Error("[API] Failed to enqueue news", "news", newsID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "News accepted for processing",
		"news_id": newsID,
	})
}
