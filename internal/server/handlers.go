package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	downloadsHttp "github.com/pixelbank/archive-service/internal/downloads/delivery/http"
	downloadsRepository "github.com/pixelbank/archive-service/internal/downloads/repository"
	downloadsUsecase "github.com/pixelbank/archive-service/internal/downloads/usecase"
	"github.com/pixelbank/archive-service/internal/fetcher"
	"github.com/pixelbank/archive-service/internal/middleware"
	"github.com/pixelbank/archive-service/pkg/utils"
)

func (s *Server) MapHandlers(e *echo.Echo) error {
	jobRepo := downloadsRepository.NewDownloadsRepo(s.db)
	redisRepo := downloadsRepository.NewDownloadsRedisRepo(s.redisClient, s.cfg.Redis.EventChannel, s.cfg.Redis.JobStateKey)
	awsRepo := downloadsRepository.NewAwsRepository(s.s3Client, s.preSignClient, s.cfg.S3.ArchiveBucket)

	imageFetcher := fetcher.New(fetcher.Config{
		MaxRetries: s.cfg.Download.MaxRetries,
		Timeout:    s.cfg.Download.FetchTimeout(),
		Backoff:    s.cfg.Download.RetryBackoff(),
		MinBytes:   s.cfg.Download.MinImageBytes,
	})

	downloadsUC := downloadsUsecase.NewDownloadsUseCase(s.cfg, jobRepo, redisRepo, awsRepo, imageFetcher, s.logger)
	downloadsHandlers := downloadsHttp.NewDownloadsHandler(downloadsUC, s.logger)

	mw := middleware.NewMiddlewareManager(s.cfg, s.logger)

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")
	downloadsGroup := v1.Group("/downloads")
	workerGroup := v1.Group("/worker")

	downloadsHttp.MapDownloadsRoutes(downloadsGroup, downloadsHandlers, mw)
	downloadsHttp.MapWorkerRoutes(workerGroup, downloadsHandlers)

	health.GET("", func(c echo.Context) error {
		s.logger.Infof("health check RequestID: %s", utils.GetRequestID(c))
		return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})
	return nil
}
