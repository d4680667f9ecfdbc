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

// MergeStoriesHandler merges another story into the addressed one. The
// addressed story survives with the union of the members; editorial
// stories require an explicit override.
func MergeStoriesHandler(c echo.Context) error {
	type mergeBody struct {
		OtherStoryID      string `json:"other_story_id" validate:"required"`
		OverrideEditorial bool   `json:"override_editorial"`
	}

	data := new(mergeBody)
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

	winnerID := c.Param("id")
	if err := engine.MergeStories(ctx, winnerID, data.OtherStoryID, data.OverrideEditorial); err != nil {
		logger.Warn("[API] Merge rejected", "winner", winnerID, "loser", data.OtherStoryID, "err", err)
		return respondError(c, err)
	}

	story, err := st.GetStory(ctx, winnerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, story)
}
