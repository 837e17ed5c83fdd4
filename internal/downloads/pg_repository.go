package downloads

import (
	"context"

	"github.com/google/uuid"
	"github.com/pixelbank/archive-service/internal/models"
	"github.com/pixelbank/archive-service/pkg/utils"
)

type Repository interface {
	CreateJob(ctx context.Context, job *models.DownloadJob) (*models.DownloadJob, error)
	GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.DownloadJob, error)
	GetJobs(ctx context.Context, userID uuid.UUID, pq *utils.Pagination) (*models.JobList, error)

	// ClaimPendingJob atomically selects the oldest pending job and marks it
	// processing. Returns ErrNoPendingJobs when the queue is drained.
	ClaimPendingJob(ctx context.Context) (*models.DownloadJob, error)
	MarkJobReady(ctx context.Context, jobID uuid.UUID, archiveURL string) (*models.DownloadJob, error)
	MarkJobFailed(ctx context.Context, jobID uuid.UUID, errorDetail string) (*models.DownloadJob, error)
	CountPendingJobs(ctx context.Context) (int64, error)
}
