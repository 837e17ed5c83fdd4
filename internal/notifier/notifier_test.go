package notifier

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelbank/archive-service/internal/config"
	"github.com/pixelbank/archive-service/internal/downloads"
	"github.com/pixelbank/archive-service/internal/models"
	"github.com/pixelbank/archive-service/pkg/logger"
	"github.com/pixelbank/archive-service/pkg/utils"
)

type fakeJobRepo struct {
	jobs []*models.DownloadJob
}

func (f *fakeJobRepo) CreateJob(ctx context.Context, job *models.DownloadJob) (*models.DownloadJob, error) {
	return job, nil
}

func (f *fakeJobRepo) GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.DownloadJob, error) {
	return nil, downloads.ErrJobNotFound
}

func (f *fakeJobRepo) GetJobs(ctx context.Context, userID uuid.UUID, pq *utils.Pagination) (*models.JobList, error) {
	return &models.JobList{Jobs: f.jobs, TotalCount: len(f.jobs)}, nil
}

func (f *fakeJobRepo) ClaimPendingJob(ctx context.Context) (*models.DownloadJob, error) {
	return nil, downloads.ErrNoPendingJobs
}

func (f *fakeJobRepo) MarkJobReady(ctx context.Context, jobID uuid.UUID, archiveURL string) (*models.DownloadJob, error) {
	return nil, downloads.ErrJobNotProcessing
}

func (f *fakeJobRepo) MarkJobFailed(ctx context.Context, jobID uuid.UUID, errorDetail string) (*models.DownloadJob, error) {
	return nil, downloads.ErrJobNotProcessing
}

func (f *fakeJobRepo) CountPendingJobs(ctx context.Context) (int64, error) {
	return 0, nil
}

// fakeRedisRepo hands out pre-scripted subscription channels, one per
// (re)connect attempt.
type fakeRedisRepo struct {
	mu         sync.Mutex
	streams    []chan *models.JobEvent
	subscribes int
}

func (f *fakeRedisRepo) PublishJobEvent(ctx context.Context, event *models.JobEvent) error {
	return nil
}

func (f *fakeRedisRepo) SubscribeJobEvents(ctx context.Context, userID uuid.UUID) (<-chan *models.JobEvent, func() error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribes >= len(f.streams) {
		blocked := make(chan *models.JobEvent)
		f.subscribes++
		return blocked, func() error { return nil }, nil
	}
	stream := f.streams[f.subscribes]
	f.subscribes++
	return stream, func() error { return nil }, nil
}

func (f *fakeRedisRepo) SetJobState(ctx context.Context, job *models.DownloadJob) error {
	return nil
}

func (f *fakeRedisRepo) GetJobState(ctx context.Context, jobID uuid.UUID) (*models.DownloadJob, error) {
	return nil, downloads.ErrJobNotFound
}

func testLogger() logger.Logger {
	log := logger.NewApiLogger(&config.Config{Logger: config.Logger{Level: "error"}})
	log.InitLogger()
	return log
}

func collect(t *testing.T, events <-chan *models.JobEvent, n int) []*models.JobEvent {
	t.Helper()
	var got []*models.JobEvent
	deadline := time.After(3 * time.Second)
	for len(got) < n {
		select {
		case event, ok := <-events:
			require.True(t, ok, "event channel closed early")
			got = append(got, event)
		case <-deadline:
			t.Fatalf("timed out waiting for %d events, got %d", n, len(got))
		}
	}
	return got
}

func TestListenerResyncsOnConnectAndReconnect(t *testing.T) {
	userID := uuid.New()
	jobID := uuid.New()
	url := "https://bucket.example.com/archives/a.zip"
	repo := &fakeJobRepo{jobs: []*models.DownloadJob{{
		JobID:       jobID,
		RequestedBy: userID,
		Status:      models.JobStatusReady,
		ArchiveURL:  &url,
	}}}

	// First stream delivers one live event and then drops.
	first := make(chan *models.JobEvent, 1)
	first <- &models.JobEvent{Type: models.JobEventUpdated, JobID: jobID, Status: models.JobStatusReady}
	close(first)

	redisRepo := &fakeRedisRepo{streams: []chan *models.JobEvent{first}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewListener(Config{
		ReconnectBaseDelay: 10 * time.Millisecond,
		ReconnectMaxDelay:  50 * time.Millisecond,
	}, redisRepo, repo, userID, testLogger())

	events := l.Listen(ctx)
	got := collect(t, events, 3)

	// Snapshot first, then the live event, then the post-reconnect snapshot.
	assert.Equal(t, models.JobEventResync, got[0].Type)
	assert.Equal(t, jobID, got[0].JobID)
	assert.Equal(t, models.JobEventUpdated, got[1].Type)
	assert.Equal(t, models.JobEventResync, got[2].Type)
	assert.Equal(t, models.JobStatusReady, got[2].Status)
}

func TestListenerClosesOnContextCancel(t *testing.T) {
	userID := uuid.New()
	redisRepo := &fakeRedisRepo{}
	repo := &fakeJobRepo{}

	ctx, cancel := context.WithCancel(context.Background())
	l := NewListener(Config{
		ReconnectBaseDelay: 10 * time.Millisecond,
		ReconnectMaxDelay:  50 * time.Millisecond,
	}, redisRepo, repo, userID, testLogger())

	events := l.Listen(ctx)
	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok, "channel should close after cancel")
	case <-time.After(time.Second):
		t.Fatal("event channel did not close after cancel")
	}
}

func TestNextDelayIsCapped(t *testing.T) {
	max := 80 * time.Millisecond
	d := 10 * time.Millisecond
	var prev time.Duration
	for i := 0; i < 6; i++ {
		d = nextDelay(d, max)
		assert.GreaterOrEqual(t, d, prev)
		assert.LessOrEqual(t, d, max)
		prev = d
	}
	assert.Equal(t, max, d)
}
