package routes

import (
	"net/http"

	"storygraph/internal/server/middleware"
	pgstore "storygraph/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

func GetGraphStatsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := pgstore.NewRelationDBStorage(conn)

	stats, err := st.Stats(ctx)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, stats)
}
