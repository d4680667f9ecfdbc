package routes

import (
	"net/http"
	"time"

	"storygraph/internal/server/middleware"
	"storygraph/pkg/common"
	"storygraph/pkg/graph"
	pgstore "storygraph/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

// GetStoriesHandler lists active stories ordered by relevance. Freshness
// and relevance decay between clustering passes, so both are recomputed
// at read time.
func GetStoriesHandler(c echo.Context) error {
	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := pgstore.NewRelationDBStorage(conn)

	stories, err := st.ListActiveStories(ctx)
	if err != nil {
		return respondError(c, err)
	}

	now := time.Now().UTC()
	for i := range stories {
		refreshMetrics(&stories[i], now)
	}

	return c.JSON(http.StatusOK, stories)
}

func refreshMetrics(st *common.Story, now time.Time) {
	params := graph.ParamsFromEnv()
	st.Freshness = graph.Freshness(st.LastActivity, now, params.FreshnessHalfLife)
	st.Relevance = params.Relevance(st.Size, st.Cohesion, st.Freshness, len(st.TopActors))
}
