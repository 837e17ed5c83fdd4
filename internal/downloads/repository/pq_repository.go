package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pixelbank/archive-service/internal/downloads"
	"github.com/pixelbank/archive-service/internal/models"
	"github.com/pixelbank/archive-service/pkg/utils"
)

type downloadsRepo struct {
	db *sqlx.DB
}

func NewDownloadsRepo(db *sqlx.DB) downloads.Repository {
	return &downloadsRepo{
		db: db,
	}
}

func (r *downloadsRepo) CreateJob(ctx context.Context, job *models.DownloadJob) (*models.DownloadJob, error) {
	created := &models.DownloadJob{}
	if err := r.db.QueryRowxContext(
		ctx,
		createJobQuery,
		job.RequestedBy,
		job.Items,
		job.QualityTier,
		models.JobStatusPending,
	).StructScan(created); err != nil {
		return nil, fmt.Errorf("failed to create download job: %w", err)
	}
	return created, nil
}

func (r *downloadsRepo) GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.DownloadJob, error) {
	job := &models.DownloadJob{}
	if err := r.db.QueryRowxContext(ctx, getJobByIDQuery, jobID).StructScan(job); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, downloads.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get download job by id: %w", err)
	}
	return job, nil
}

func (r *downloadsRepo) GetJobs(ctx context.Context, userID uuid.UUID, pq *utils.Pagination) (*models.JobList, error) {
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, getTotalJobsByUserQuery, userID); err != nil {
		return nil, fmt.Errorf("failed to get total jobs count: %w", err)
	}
	if totalCount == 0 {
		return &models.JobList{
			Jobs:       make([]*models.DownloadJob, 0),
			TotalCount: 0,
			Page:       pq.GetPage(),
			PageSize:   pq.GetSize(),
			HasMore:    false,
		}, nil
	}

	rows, err := r.db.QueryxContext(ctx, getJobsByUserQuery, userID, pq.GetOffset(), pq.GetLimit())
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs by user id: %w", err)
	}
	defer rows.Close()

	jobs := make([]*models.DownloadJob, 0, pq.GetSize())
	for rows.Next() {
		var job models.DownloadJob
		if err = rows.StructScan(&job); err != nil {
			return nil, fmt.Errorf("failed to scan download job: %w", err)
		}
		jobs = append(jobs, &job)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan download jobs: %w", err)
	}

	return &models.JobList{
		Jobs:       jobs,
		TotalCount: totalCount,
		Page:       pq.GetPage(),
		PageSize:   pq.GetSize(),
		HasMore:    utils.GetHasMore(pq.GetPage(), totalCount, pq.GetSize()),
	}, nil
}

func (r *downloadsRepo) ClaimPendingJob(ctx context.Context) (*models.DownloadJob, error) {
	job := &models.DownloadJob{}
	if err := r.db.QueryRowxContext(ctx, claimPendingJobQuery).StructScan(job); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, downloads.ErrNoPendingJobs
		}
		return nil, fmt.Errorf("failed to claim pending job: %w", err)
	}
	return job, nil
}

func (r *downloadsRepo) MarkJobReady(ctx context.Context, jobID uuid.UUID, archiveURL string) (*models.DownloadJob, error) {
	job := &models.DownloadJob{}
	if err := r.db.QueryRowxContext(ctx, markJobReadyQuery, jobID, archiveURL).StructScan(job); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, downloads.ErrJobNotProcessing
		}
		return nil, fmt.Errorf("failed to mark job ready: %w", err)
	}
	return job, nil
}

func (r *downloadsRepo) MarkJobFailed(ctx context.Context, jobID uuid.UUID, errorDetail string) (*models.DownloadJob, error) {
	job := &models.DownloadJob{}
	if err := r.db.QueryRowxContext(ctx, markJobFailedQuery, jobID, errorDetail).StructScan(job); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, downloads.ErrJobNotProcessing
		}
		return nil, fmt.Errorf("failed to mark job failed: %w", err)
	}
	return job, nil
}

func (r *downloadsRepo) CountPendingJobs(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, countPendingJobsQuery); err != nil {
		return 0, fmt.Errorf("failed to count pending jobs: %w", err)
	}
	return count, nil
}
