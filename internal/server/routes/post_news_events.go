package routes

import (
	"encoding/json"
	"net/http"

	"storygraph/internal/queue"
	"storygraph/internal/server/middleware"
	pgstore "storygraph/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

// ExtractNewsEventsHandler enqueues event re-extraction for one news
// item. The stored event set is replaced wholesale once the worker runs.
func ExtractNewsEventsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := pgstore.NewRelationDBStorage(conn)

	newsID := c.Param("id")
	if _, err := st.GetNews(ctx, newsID); err != nil {
		return respondError(c, err)
	}

	body, err := json.Marshal(queue.ExtractEventsMsg{NewsID: newsID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.EventQueue, body); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "Event extraction queued",
		"news_id": newsID,
	})
}
