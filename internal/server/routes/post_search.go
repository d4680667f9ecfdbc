package routes

import (
	"fmt"
	"net/http"

	"storygraph/internal/server/middleware"
	"storygraph/pkg/common"
	"storygraph/pkg/logger"
	pgstore "storygraph/pkg/store/pgx"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// SearchHandler embeds a free-text query and returns the nearest news
// items by cosine similarity.
func SearchHandler(c echo.Context) error {
	type searchBody struct {
		Query     string  `json:"query" validate:"required"`
		K         int     `json:"k"`
		Threshold float64 `json:"threshold"`
	}

	data := new(searchBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if data.K <= 0 {
		data.K = 10
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App
	st := pgstore.NewRelationDBStorage(app.DBConn)

	embedding, err := app.AiClient.GenerateEmbedding(ctx, []byte(data.Query))
	if err != nil {
		logger.Error("[API] Query embedding failed", "err", err)
		return respondError(c, fmt.Errorf("query embedding: %w: %w", common.ErrExtractionFailure, err))
	}

	hits, err := st.SimilaritySearch(ctx, embedding, data.K, data.Threshold)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, hits)
}
