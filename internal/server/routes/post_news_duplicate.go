package routes

import (
	"net/http"

	"storygraph/internal/server/middleware"
	"storygraph/pkg/logger"
	pgstore "storygraph/pkg/store/pgx"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// MarkDuplicateHandler flags a news item as a duplicate of another one.
// The duplicate leaves its story and loses its similarity edges; chains
// onto other duplicates are rejected.
func MarkDuplicateHandler(c echo.Context) error {
	type duplicateBody struct {
		DuplicateOf string `json:"duplicate_of" validate:"required"`
	}

	data := new(duplicateBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := pgstore.NewRelationDBStorage(conn)

	newsID := c.Param("id")
	if err := st.MarkDuplicate(ctx, newsID, data.DuplicateOf); err != nil {
		logger.Warn("[API] Duplicate marking rejected", "news", newsID, "original", data.DuplicateOf, "err", err)
		return respondError(c, err)
	}

	news, err := st.GetNews(ctx, newsID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, news)
}
