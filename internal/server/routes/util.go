package routes

import (
	"errors"
	"net/http"

	"storygraph/pkg/common"

	"github.com/labstack/echo/v4"
)

// respondError maps the shared error taxonomy onto HTTP statuses.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, common.ErrInvalidOperation):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, common.ErrInconsistentGraph):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, common.ErrMissingEmbedding):
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, common.ErrExtractionFailure):
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}
