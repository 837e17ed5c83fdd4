package downloads

import (
	"context"

	"github.com/google/uuid"
	"github.com/pixelbank/archive-service/internal/models"
	"github.com/pixelbank/archive-service/internal/strategy"
	"github.com/pixelbank/archive-service/pkg/utils"
)

type UseCase interface {
	CreateJob(ctx context.Context, input *models.CreateJobInput) (*models.DownloadJob, error)
	BuildArchive(ctx context.Context, input *models.CreateJobInput) (*models.LocalArchive, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*models.DownloadJob, error)
	ListJobs(ctx context.Context, pq *utils.Pagination) (*models.JobList, error)
	Decide(itemCount int, tier models.QualityTier) strategy.Mode

	RunWorker(ctx context.Context, input *models.WorkerRunInput) (*models.WorkerReport, error)
}
