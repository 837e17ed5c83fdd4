package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/pixelbank/archive-service/internal/archive"
	"github.com/pixelbank/archive-service/internal/config"
	"github.com/pixelbank/archive-service/internal/downloads"
	"github.com/pixelbank/archive-service/internal/models"
	"github.com/pixelbank/archive-service/internal/resolver"
	"github.com/pixelbank/archive-service/internal/strategy"
	"github.com/pixelbank/archive-service/pkg/logger"
	"github.com/pixelbank/archive-service/pkg/utils"
)

// ImageFetcher is the single-image download contract consumed by the
// packaging pipeline.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type downloadsUC struct {
	cfg       *config.Config
	jobRepo   downloads.Repository
	redisRepo downloads.RedisRepository
	awsRepo   downloads.AWSRepository
	fetcher   ImageFetcher
	resolver  *resolver.Resolver
	selector  *strategy.Selector
	logger    logger.Logger
}

func NewDownloadsUseCase(
	cfg *config.Config,
	jobRepo downloads.Repository,
	redisRepo downloads.RedisRepository,
	awsRepo downloads.AWSRepository,
	fetcher ImageFetcher,
	log logger.Logger,
) downloads.UseCase {
	return &downloadsUC{
		cfg:       cfg,
		jobRepo:   jobRepo,
		redisRepo: redisRepo,
		awsRepo:   awsRepo,
		fetcher:   fetcher,
		resolver:  resolver.New(cfg.Download.WebQualityMarker),
		selector:  strategy.NewSelector(cfg.Download),
		logger:    log,
	}
}

// CreateJob resolves the requested images and persists a pending job for the
// server-side path. Unresolvable items are dropped with a warning; if nothing
// survives resolution, no job row is created at all.
func (u *downloadsUC) CreateJob(ctx context.Context, input *models.CreateJobInput) (*models.DownloadJob, error) {
	user, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		u.logger.Errorf("CreateJob - GetUserFromCtx error: %v", err)
		return nil, err
	}
	if err = utils.ValidateStruct(ctx, input); err != nil {
		u.logger.Errorf("CreateJob - ValidateStruct error: %v", err)
		return nil, fmt.Errorf("invalid input: %v", err)
	}

	items := u.resolveItems(input.Images, input.QualityTier)
	if len(items) == 0 {
		return nil, downloads.ErrNoResolvableItems
	}
	if dropped := len(input.Images) - len(items); dropped > 0 {
		u.logger.Warnf("CreateJob - dropped %d unresolvable items out of %d", dropped, len(input.Images))
	}

	job, err := u.jobRepo.CreateJob(ctx, &models.DownloadJob{
		RequestedBy: user.UserID,
		Items:       items,
		QualityTier: input.QualityTier,
	})
	if err != nil {
		u.logger.Errorf("CreateJob - CreateJob error: %v", err)
		return nil, err
	}

	u.notify(ctx, job, models.JobEventAccepted)
	return job, nil
}

// BuildArchive runs the whole fetch-and-pack pipeline synchronously for
// batches the strategy keeps on the local path.
func (u *downloadsUC) BuildArchive(ctx context.Context, input *models.CreateJobInput) (*models.LocalArchive, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		u.logger.Errorf("BuildArchive - ValidateStruct error: %v", err)
		return nil, fmt.Errorf("invalid input: %v", err)
	}

	items := u.resolveItems(input.Images, input.QualityTier)
	if len(items) == 0 {
		return nil, downloads.ErrNoResolvableItems
	}

	fetched, excluded := u.fetchAll(ctx, lo.Map(items, func(it models.DownloadItem, _ int) models.ArchiveItem {
		return models.ArchiveItem{SourceURL: it.SourceURL, DisplayName: it.DisplayName, SourceID: it.SourceID}
	}))
	result, err := archive.Build(fetched)
	if err != nil {
		return nil, err
	}

	return &models.LocalArchive{
		FileName:      archive.FileName(input.QualityTier, time.Now().UTC(), shortID(uuid.New())),
		ArchiveBytes:  result.ArchiveBytes,
		IncludedCount: result.IncludedCount,
		ExcludedCount: excluded + (len(input.Images) - len(items)),
	}, nil
}

func (u *downloadsUC) GetJob(ctx context.Context, jobID uuid.UUID) (*models.DownloadJob, error) {
	user, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		u.logger.Errorf("GetJob - GetUserFromCtx error: %v", err)
		return nil, err
	}
	job, err := u.jobRepo.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	// Jobs are only visible to their requester.
	if job.RequestedBy != user.UserID {
		u.logger.Warnf("GetJob - user %s requested foreign job %s", user.UserID, jobID)
		return nil, downloads.ErrJobNotFound
	}
	return job, nil
}

func (u *downloadsUC) ListJobs(ctx context.Context, pq *utils.Pagination) (*models.JobList, error) {
	user, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		u.logger.Errorf("ListJobs - GetUserFromCtx error: %v", err)
		return nil, err
	}
	if pq == nil {
		pq = &utils.Pagination{Page: 1, Size: 10}
	}
	jobs, err := u.jobRepo.GetJobs(ctx, user.UserID, pq)
	if err != nil {
		u.logger.Errorf("ListJobs - GetJobs error: %v", err)
		return nil, fmt.Errorf("failed to list download jobs: %v", err)
	}
	return jobs, nil
}

func (u *downloadsUC) Decide(itemCount int, tier models.QualityTier) strategy.Mode {
	return u.selector.Decide(itemCount, tier)
}

// RunWorker drains up to maxBatch pending jobs, one claim at a time. Each job
// runs under its own deadline so a stalled source host can never hang the
// worker indefinitely.
func (u *downloadsUC) RunWorker(ctx context.Context, input *models.WorkerRunInput) (*models.WorkerReport, error) {
	maxBatch := u.cfg.Worker.MaxBatchSize
	jobTimeout := u.cfg.Download.JobTimeout()
	if input != nil {
		if input.MaxBatchSize > 0 {
			maxBatch = input.MaxBatchSize
		}
		if input.ProcessingTimeoutSeconds > 0 {
			jobTimeout = time.Duration(input.ProcessingTimeoutSeconds) * time.Second
		}
	}

	report := &models.WorkerReport{}
	for i := 0; i < maxBatch; i++ {
		job, err := u.jobRepo.ClaimPendingJob(ctx)
		if err != nil {
			if errors.Is(err, downloads.ErrNoPendingJobs) {
				break
			}
			return nil, err
		}
		report.Processed++
		u.notify(ctx, job, models.JobEventUpdated)

		if err := u.processJob(ctx, job, jobTimeout); err != nil {
			report.Failed++
			u.logger.Errorf("RunWorker - job %s failed: %v", job.JobID, err)
		} else {
			report.Success++
		}
	}

	remaining, err := u.jobRepo.CountPendingJobs(ctx)
	if err != nil {
		u.logger.Errorf("RunWorker - CountPendingJobs error: %v", err)
	}
	report.Remaining = remaining
	return report, nil
}

// processJob fetches every item, packs the archive, uploads it and moves the
// job to its terminal state. Per-item fetch failures are absorbed; only
// zero-success, upload errors, or the job deadline fail the whole job.
func (u *downloadsUC) processJob(ctx context.Context, job *models.DownloadJob, timeout time.Duration) error {
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	items := lo.Map(job.Items, func(it models.DownloadItem, _ int) models.ArchiveItem {
		return models.ArchiveItem{SourceURL: it.SourceURL, DisplayName: it.DisplayName, SourceID: it.SourceID}
	})

	fetched, excluded := u.fetchAll(jobCtx, items)
	if excluded > 0 {
		u.logger.Warnf("processJob - job %s: %d of %d images excluded", job.JobID, excluded, len(items))
	}

	result, err := archive.Build(fetched)
	if err != nil {
		return u.failJob(ctx, jobCtx, job, errors.Wrap(err, "archive build failed"), timeout)
	}

	key := fmt.Sprintf("archives/%s/%s", job.RequestedBy,
		archive.FileName(job.QualityTier, started.UTC(), shortID(job.JobID)))
	if err := u.awsRepo.UploadArchive(jobCtx, key, result.ArchiveBytes); err != nil {
		return u.failJob(ctx, jobCtx, job, errors.Wrap(err, "archive upload failed"), timeout)
	}

	archiveURL, err := u.awsRepo.GetPresignedDownloadURL(jobCtx, key, u.cfg.Download.SignedURLExpiry())
	if err != nil {
		return u.failJob(ctx, jobCtx, job, errors.Wrap(err, "archive presign failed"), timeout)
	}

	ready, err := u.jobRepo.MarkJobReady(ctx, job.JobID, archiveURL)
	if err != nil {
		return errors.Wrap(err, "mark job ready failed")
	}

	u.logger.Infof("processJob - job %s ready: %d included, %d excluded, took %s",
		job.JobID, result.IncludedCount, excluded, time.Since(started))
	u.notify(ctx, ready, models.JobEventUpdated)
	return nil
}

// failJob records the terminal failure. The detail string is what the user
// sees, so deadline errors are rewritten into a readable timeout message.
func (u *downloadsUC) failJob(ctx, jobCtx context.Context, job *models.DownloadJob, cause error, timeout time.Duration) error {
	detail := cause.Error()
	if jobCtx.Err() == context.DeadlineExceeded {
		detail = fmt.Sprintf("processing timed out after %s", timeout)
	}

	failed, err := u.jobRepo.MarkJobFailed(ctx, job.JobID, detail)
	if err != nil {
		u.logger.Errorf("failJob - MarkJobFailed error for %s: %v", job.JobID, err)
		return cause
	}
	u.notify(ctx, failed, models.JobEventUpdated)
	return cause
}

// fetchAll downloads the items with bounded concurrency and returns the
// successfully fetched archive entries plus the excluded count. A single bad
// item never aborts its siblings.
func (u *downloadsUC) fetchAll(ctx context.Context, items []models.ArchiveItem) ([]archive.Item, int) {
	fetched := make([]archive.Item, len(items))
	ok := make([]bool, len(items))

	sem := make(chan struct{}, u.cfg.Download.MaxConcurrentFetches)
	var wg sync.WaitGroup
	for i, item := range items {
		sem <- struct{}{}
		wg.Add(1)

		go func(idx int, it models.ArchiveItem) {
			defer func() {
				<-sem
				wg.Done()
			}()
			data, err := u.fetcher.Fetch(ctx, it.SourceURL)
			if err != nil {
				u.logger.Warnf("fetchAll - skipping %s: %v", it.SourceURL, err)
				return
			}
			fetched[idx] = archive.Item{Name: it.DisplayName, Bytes: data}
			ok[idx] = true
		}(i, item)
	}
	wg.Wait()

	out := make([]archive.Item, 0, len(items))
	for i := range fetched {
		if ok[i] {
			out = append(out, fetched[i])
		}
	}
	return out, len(items) - len(out)
}

// notify updates the last-known-state snapshot and pushes the realtime event.
// Both are best effort: a notification failure never fails the job itself.
func (u *downloadsUC) notify(ctx context.Context, job *models.DownloadJob, eventType models.JobEventType) {
	if err := u.redisRepo.SetJobState(ctx, job); err != nil {
		u.logger.Warnf("notify - SetJobState error for %s: %v", job.JobID, err)
	}
	event := &models.JobEvent{
		Type:        eventType,
		JobID:       job.JobID,
		RequestedBy: job.RequestedBy,
		Status:      job.Status,
		ArchiveURL:  job.ArchiveURL,
		ErrorDetail: job.ErrorDetail,
		Title:       jobTitle(job),
	}
	if err := u.redisRepo.PublishJobEvent(ctx, event); err != nil {
		u.logger.Warnf("notify - PublishJobEvent error for %s: %v", job.JobID, err)
	}
}

func (u *downloadsUC) resolveItems(images []models.ImageRecord, tier models.QualityTier) models.DownloadItems {
	return lo.FilterMap(images, func(img models.ImageRecord, _ int) (models.DownloadItem, bool) {
		item := u.resolver.Resolve(img, tier)
		if item == nil {
			u.logger.Warnf("resolveItems - no usable url for image %q, dropping", img.Title)
			return models.DownloadItem{}, false
		}
		return models.DownloadItem{
			SourceURL:   item.SourceURL,
			DisplayName: item.DisplayName,
			SourceID:    item.SourceID,
		}, true
	})
}

func jobTitle(job *models.DownloadJob) string {
	if len(job.Items) == 0 {
		return ""
	}
	if len(job.Items) == 1 {
		return job.Items[0].DisplayName
	}
	return fmt.Sprintf("%s +%d", job.Items[0].DisplayName, len(job.Items)-1)
}

func shortID(id uuid.UUID) string {
	return strings.SplitN(id.String(), "-", 2)[0]
}
