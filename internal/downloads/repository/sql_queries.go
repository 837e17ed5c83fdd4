package repository

const (
	createJobQuery = `INSERT INTO download_jobs (requested_by, items, quality_tier, status)
					VALUES ($1, $2, $3, $4)
					RETURNING job_id, requested_by, items, quality_tier, status, archive_url, error_detail, created_at, processed_at`

	getJobByIDQuery = `SELECT job_id, requested_by, items, quality_tier, status, archive_url, error_detail, created_at, processed_at
					FROM download_jobs WHERE job_id = $1`

	getJobsByUserQuery = `SELECT job_id, requested_by, items, quality_tier, status, archive_url, error_detail, created_at, processed_at
					FROM download_jobs WHERE requested_by = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3`

	getTotalJobsByUserQuery = `SELECT COUNT(job_id) FROM download_jobs WHERE requested_by = $1`

	// The claim is the only read-modify-write against shared state. The
	// conditional UPDATE plus SKIP LOCKED subselect guarantees that two
	// concurrent worker invocations can never both claim the same row.
	claimPendingJobQuery = `UPDATE download_jobs SET status = 'processing'
					WHERE job_id = (
						SELECT job_id FROM download_jobs
						WHERE status = 'pending'
						ORDER BY created_at ASC
						FOR UPDATE SKIP LOCKED
						LIMIT 1
					) AND status = 'pending'
					RETURNING job_id, requested_by, items, quality_tier, status, archive_url, error_detail, created_at, processed_at`

	markJobReadyQuery = `UPDATE download_jobs
					SET status = 'ready', archive_url = $2, processed_at = now()
					WHERE job_id = $1 AND status = 'processing'
					RETURNING job_id, requested_by, items, quality_tier, status, archive_url, error_detail, created_at, processed_at`

	markJobFailedQuery = `UPDATE download_jobs
					SET status = 'failed', error_detail = $2, processed_at = now()
					WHERE job_id = $1 AND status = 'processing'
					RETURNING job_id, requested_by, items, quality_tier, status, archive_url, error_detail, created_at, processed_at`

	countPendingJobsQuery = `SELECT COUNT(job_id) FROM download_jobs WHERE status = 'pending'`
)
