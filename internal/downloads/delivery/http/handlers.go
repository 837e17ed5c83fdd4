package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pixelbank/archive-service/internal/archive"
	"github.com/pixelbank/archive-service/internal/downloads"
	"github.com/pixelbank/archive-service/internal/models"
	"github.com/pixelbank/archive-service/pkg/logger"
	"github.com/pixelbank/archive-service/pkg/utils"
)

type downloadsHandler struct {
	downloadsUC downloads.UseCase
	logger      logger.Logger
}

func NewDownloadsHandler(downloadsUC downloads.UseCase, log logger.Logger) downloads.Handler {
	return &downloadsHandler{
		downloadsUC: downloadsUC,
		logger:      log,
	}
}

func (h *downloadsHandler) CreateJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.CreateJobInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		job, err := h.downloadsUC.CreateJob(c.Request().Context(), input)
		if err != nil {
			if errors.Is(err, downloads.ErrNoResolvableItems) {
				return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			}
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusCreated, job)
	}
}

// DownloadArchive serves the local path: the archive is built inside the
// request and streamed straight back.
func (h *downloadsHandler) DownloadArchive() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.CreateJobInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		local, err := h.downloadsUC.BuildArchive(c.Request().Context(), input)
		if err != nil {
			if errors.Is(err, archive.ErrEmptyArchive) || errors.Is(err, downloads.ErrNoResolvableItems) {
				return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			}
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}

		c.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", local.FileName))
		c.Response().Header().Set("X-Included-Count", fmt.Sprint(local.IncludedCount))
		c.Response().Header().Set("X-Excluded-Count", fmt.Sprint(local.ExcludedCount))
		return c.Stream(http.StatusOK, "application/zip", bytes.NewReader(local.ArchiveBytes))
	}
}

func (h *downloadsHandler) GetJobByID() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID, err := uuid.Parse(c.Param("job_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid job id"})
		}
		job, err := h.downloadsUC.GetJob(c.Request().Context(), jobID)
		if err != nil {
			if errors.Is(err, downloads.ErrJobNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
			}
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, job)
	}
}

func (h *downloadsHandler) ListJobs() echo.HandlerFunc {
	return func(c echo.Context) error {
		pagination, err := utils.GetPaginationFromCtx(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		jobs, err := h.downloadsUC.ListJobs(c.Request().Context(), pagination)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, jobs)
	}
}

func (h *downloadsHandler) DecideMode() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.DecideInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		if err := utils.ValidateStruct(c.Request().Context(), input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		mode := h.downloadsUC.Decide(input.ItemCount, input.QualityTier)
		return c.JSON(http.StatusOK, map[string]string{"mode": string(mode)})
	}
}

// ProcessJobs is the scheduler-facing worker trigger. It is idempotent: with
// nothing pending it reports zeros.
func (h *downloadsHandler) ProcessJobs() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.WorkerRunInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		if err := utils.ValidateStruct(c.Request().Context(), input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		report, err := h.downloadsUC.RunWorker(c.Request().Context(), input)
		if err != nil {
			h.logger.Errorf("ProcessJobs - RunWorker error: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "worker run failed"})
		}
		return c.JSON(http.StatusOK, report)
	}
}
