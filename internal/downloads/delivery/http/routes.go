package http

import (
	"github.com/labstack/echo/v4"
	"github.com/pixelbank/archive-service/internal/downloads"
	"github.com/pixelbank/archive-service/internal/middleware"
)

func MapDownloadsRoutes(downloadsGroup *echo.Group, h downloads.Handler, mw *middleware.MiddlewareManager) {
	downloadsGroup.Use(mw.AuthJWTMiddleware())
	downloadsGroup.POST("/jobs", h.CreateJob())
	downloadsGroup.GET("/jobs", h.ListJobs())
	downloadsGroup.GET("/jobs/:job_id", h.GetJobByID())
	downloadsGroup.POST("/archive", h.DownloadArchive())
	downloadsGroup.POST("/decide", h.DecideMode())
}

// MapWorkerRoutes exposes the scheduler trigger. It sits outside the user
// auth group: the scheduler authenticates at the network layer.
func MapWorkerRoutes(workerGroup *echo.Group, h downloads.Handler) {
	workerGroup.POST("/process", h.ProcessJobs())
}
