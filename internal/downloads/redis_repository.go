package downloads

import (
	"context"

	"github.com/google/uuid"
	"github.com/pixelbank/archive-service/internal/models"
)

// RedisRepository pushes job state changes to the realtime channel and keeps
// a last-known-state snapshot clients can reconcile against after reconnects.
type RedisRepository interface {
	PublishJobEvent(ctx context.Context, event *models.JobEvent) error
	SubscribeJobEvents(ctx context.Context, userID uuid.UUID) (<-chan *models.JobEvent, func() error, error)

	SetJobState(ctx context.Context, job *models.DownloadJob) error
	GetJobState(ctx context.Context, jobID uuid.UUID) (*models.DownloadJob, error)
}
