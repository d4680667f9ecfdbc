package routes

import (
	"encoding/json"
	"net/http"

	"storygraph/internal/queue"
	"storygraph/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// ReclusterHandler enqueues a full clustering pass.
func ReclusterHandler(c echo.Context) error {
	body, err := json.Marshal(queue.ClusterMsg{Reason: "manual"})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.ClusterQueue, body); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "Clustering pass queued",
	})
}
