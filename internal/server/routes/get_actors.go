package routes

import (
	"net/http"

	"storygraph/internal/server/middleware"
	pgstore "storygraph/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

func GetActorsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := pgstore.NewRelationDBStorage(conn)

	actors, err := st.ListActors(ctx)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, actors)
}
