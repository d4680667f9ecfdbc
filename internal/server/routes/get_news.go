package routes

import (
	"net/http"

	"storygraph/internal/server/middleware"
	pgstore "storygraph/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

func GetNewsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := pgstore.NewRelationDBStorage(conn)

	news, err := st.GetNews(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, news)
}

func GetNewsEventsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := pgstore.NewRelationDBStorage(conn)

	newsID := c.Param("id")
	if _, err := st.GetNews(ctx, newsID); err != nil {
		return respondError(c, err)
	}
	events, err := st.ListEventsByNews(ctx, newsID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, events)
}

func GetNewsActorsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := pgstore.NewRelationDBStorage(conn)

	newsID := c.Param("id")
	if _, err := st.GetNews(ctx, newsID); err != nil {
		return respondError(c, err)
	}
	actors, err := st.ListActorsByNews(ctx, newsID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, actors)
}
