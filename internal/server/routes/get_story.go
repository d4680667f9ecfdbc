package routes

import (
	"net/http"
	"time"

	"storygraph/internal/server/middleware"
	pgstore "storygraph/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

func GetStoryHandler(c echo.Context) error {
	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := pgstore.NewRelationDBStorage(conn)

	story, err := st.GetStory(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	refreshMetrics(&story, time.Now().UTC())

	return c.JSON(http.StatusOK, story)
}

func GetStoryNewsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := pgstore.NewRelationDBStorage(conn)

	storyID := c.Param("id")
	if _, err := st.GetStory(ctx, storyID); err != nil {
		return respondError(c, err)
	}
	news, err := st.ListNewsByStory(ctx, storyID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, news)
}

func GetStoryActorsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := pgstore.NewRelationDBStorage(conn)

	storyID := c.Param("id")
	if _, err := st.GetStory(ctx, storyID); err != nil {
		return respondError(c, err)
	}
	actors, err := st.ListActorsByStory(ctx, storyID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, actors)
}

// GetStoryEventsHandler returns the story timeline: every event of every
// current member, attributed at read time so re-clustering re-homes
// events without re-extraction.
func GetStoryEventsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := pgstore.NewRelationDBStorage(conn)

	storyID := c.Param("id")
	if _, err := st.GetStory(ctx, storyID); err != nil {
		return respondError(c, err)
	}
	events, err := st.ListEventsByStory(ctx, storyID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, events)
}
