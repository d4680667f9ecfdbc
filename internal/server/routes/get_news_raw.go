package routes

import (
	"net/http"

	"storygraph/internal/server/middleware"
	"storygraph/internal/storage"
	pgstore "storygraph/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

// GetNewsRawHandler serves the archived original feed payload of a news
// item. The archive is best-effort at ingest time, so a known news item
// can legitimately have no raw payload.
func GetNewsRawHandler(c echo.Context) error {
	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App
	st := pgstore.NewRelationDBStorage(app.DBConn)

	newsID := c.Param("id")
	if _, err := st.GetNews(ctx, newsID); err != nil {
		return respondError(c, err)
	}

	payload, err := storage.GetRawPayload(ctx, app.S3, newsID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"message": "Raw payload not found",
		})
	}

	return c.Blob(http.StatusOK, "application/json", payload)
}
