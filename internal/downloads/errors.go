package downloads

import "errors"

var (
	// ErrNoPendingJobs means the worker found nothing to claim.
	ErrNoPendingJobs = errors.New("no pending download jobs")
	// ErrJobNotFound covers lookups of unknown or foreign job IDs.
	ErrJobNotFound = errors.New("download job not found")
	// ErrNoResolvableItems blocks job creation when every requested image
	// failed URL resolution. No job row is persisted in that case.
	ErrNoResolvableItems = errors.New("no resolvable items in download request")
	// ErrJobNotProcessing guards terminal states: ready/failed jobs are
	// never transitioned again.
	ErrJobNotProcessing = errors.New("job is not in processing state")
)
