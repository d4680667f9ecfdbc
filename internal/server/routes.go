package server

import (
	"storygraph/internal/server/middleware"
	"storygraph/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Story routes
	apiRoutes.GET("/stories", routes.GetStoriesHandler)
	apiRoutes.GET("/stories/:id", routes.GetStoryHandler)
	apiRoutes.GET("/stories/:id/news", routes.GetStoryNewsHandler)
	apiRoutes.GET("/stories/:id/actors", routes.GetStoryActorsHandler)
	apiRoutes.GET("/stories/:id/events", routes.GetStoryEventsHandler)
	apiRoutes.POST("/stories/:id/merge", routes.MergeStoriesHandler)
	apiRoutes.POST("/stories/:id/split", routes.SplitStoryHandler)

	// News routes
	apiRoutes.POST("/news", routes.IngestNewsHandler)
	apiRoutes.GET("/news/:id", routes.GetNewsHandler)
	apiRoutes.GET("/news/:id/actors", routes.GetNewsActorsHandler)
	apiRoutes.GET("/news/:id/events", routes.GetNewsEventsHandler)
	apiRoutes.GET("/news/:id/raw", routes.GetNewsRawHandler)
	apiRoutes.POST("/news/:id/events", routes.ExtractNewsEventsHandler)
	apiRoutes.POST("/news/:id/duplicate", routes.MarkDuplicateHandler)

	// Actor routes
	apiRoutes.GET("/actors", routes.GetActorsHandler)

	// Graph routes
	apiRoutes.POST("/recluster", routes.ReclusterHandler)
	apiRoutes.POST("/search", routes.SearchHandler)
	apiRoutes.GET("/graph/stats", routes.GetGraphStatsHandler)
}
