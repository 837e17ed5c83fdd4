// Package notifier delivers job state transitions to a client session. The
// event stream is advisory: after every (re)connect the listener re-syncs
// from the persisted jobs, so a dropped subscription can never leave a stale
// terminal state on the client ("last known state wins").
package notifier

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pixelbank/archive-service/internal/downloads"
	"github.com/pixelbank/archive-service/internal/models"
	"github.com/pixelbank/archive-service/pkg/logger"
	"github.com/pixelbank/archive-service/pkg/utils"
)

const resyncPageSize = 50

type Config struct {
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
}

type Listener struct {
	cfg       Config
	redisRepo downloads.RedisRepository
	jobRepo   downloads.Repository
	userID    uuid.UUID
	logger    logger.Logger
}

func NewListener(
	cfg Config,
	redisRepo downloads.RedisRepository,
	jobRepo downloads.Repository,
	userID uuid.UUID,
	log logger.Logger,
) *Listener {
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = 500 * time.Millisecond
	}
	if cfg.ReconnectMaxDelay <= 0 {
		cfg.ReconnectMaxDelay = 30 * time.Second
	}
	return &Listener{
		cfg:       cfg,
		redisRepo: redisRepo,
		jobRepo:   jobRepo,
		userID:    userID,
		logger:    log,
	}
}

// Listen returns the event stream for the user's jobs. The channel closes
// when ctx is done.
func (l *Listener) Listen(ctx context.Context) <-chan *models.JobEvent {
	out := make(chan *models.JobEvent)
	go l.run(ctx, out)
	return out
}

func (l *Listener) run(ctx context.Context, out chan<- *models.JobEvent) {
	defer close(out)

	delay := l.cfg.ReconnectBaseDelay
	for {
		events, closeSub, err := l.redisRepo.SubscribeJobEvents(ctx, l.userID)
		if err != nil {
			l.logger.Warnf("notifier - subscribe failed for user %s, retrying in %s: %v", l.userID, delay, err)
			if !sleepCtx(ctx, delay) {
				return
			}
			delay = nextDelay(delay, l.cfg.ReconnectMaxDelay)
			continue
		}

		// The stream is only trusted after a full snapshot: events buffered
		// or lost while disconnected must not win over current state.
		l.resync(ctx, out)
		delay = l.cfg.ReconnectBaseDelay

		if !l.forward(ctx, events, out) {
			closeSub()
			return
		}
		closeSub()

		l.logger.Warnf("notifier - subscription lost for user %s, reconnecting in %s", l.userID, delay)
		if !sleepCtx(ctx, delay) {
			return
		}
		delay = nextDelay(delay, l.cfg.ReconnectMaxDelay)
	}
}

// forward pumps events until the subscription drops (returns true) or ctx is
// done (returns false).
func (l *Listener) forward(ctx context.Context, events <-chan *models.JobEvent, out chan<- *models.JobEvent) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-events:
			if !ok {
				return true
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return false
			}
		}
	}
}

func (l *Listener) resync(ctx context.Context, out chan<- *models.JobEvent) {
	jobs, err := l.jobRepo.GetJobs(ctx, l.userID, &utils.Pagination{Page: 1, Size: resyncPageSize})
	if err != nil {
		l.logger.Errorf("notifier - resync failed for user %s: %v", l.userID, err)
		return
	}
	for _, job := range jobs.Jobs {
		event := &models.JobEvent{
			Type:        models.JobEventResync,
			JobID:       job.JobID,
			RequestedBy: job.RequestedBy,
			Status:      job.Status,
			ArchiveURL:  job.ArchiveURL,
			ErrorDetail: job.ErrorDetail,
		}
		select {
		case out <- event:
		case <-ctx.Done():
			return
		}
	}
}

func nextDelay(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		next = max
	}
	return next
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
