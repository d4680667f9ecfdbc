package routes

import (
	"net/http"

	"storygraph/internal/server/middleware"
	"storygraph/pkg/graph"
	"storygraph/pkg/leaselock"
	"storygraph/pkg/logger"
	pgstore "storygraph/pkg/store/pgx"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// SplitStoryHandler moves a strict subset of a story's members into a
// newly minted story. Both resulting stories get their metrics
// recomputed; editorial stories require an explicit override.
func SplitStoryHandler(c echo.Context) error {
	type splitBody struct {
		NewsIDs           []string `json:"news_ids" validate:"required,min=1"`
		OverrideEditorial bool     `json:"override_editorial"`
	}

	data := new(splitBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := pgstore.NewRelationDBStorage(conn)
	engine := graph.NewEngine(st, leaselock.New(conn), graph.ParamsFromEnv())

	storyID := c.Param("id")
	newStoryID, err := engine.SplitStory(ctx, storyID, data.NewsIDs, data.OverrideEditorial)
	if err != nil {
		logger.Warn("[API] Split rejected", "story", storyID, "err", err)
		return respondError(c, err)
	}

	story, err := st.GetStory(ctx, newStoryID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, story)
}
