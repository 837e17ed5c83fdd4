package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pixelbank/archive-service/internal/downloads"
	"github.com/pixelbank/archive-service/internal/models"
)

const jobStateTTL = 7 * 24 * time.Hour

type downloadsRedisRepo struct {
	redisClient  *redis.Client
	eventChannel string
	jobStateKey  string
}

func NewDownloadsRedisRepo(redisClient *redis.Client, eventChannel, jobStateKey string) downloads.RedisRepository {
	return &downloadsRedisRepo{
		redisClient:  redisClient,
		eventChannel: eventChannel,
		jobStateKey:  jobStateKey,
	}
}

// userChannel scopes events to the requesting user so a subscriber only ever
// sees its own jobs.
func (r *downloadsRedisRepo) userChannel(userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", r.eventChannel, userID)
}

func (r *downloadsRedisRepo) PublishJobEvent(ctx context.Context, event *models.JobEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal job event: %w", err)
	}
	if err := r.redisClient.Publish(ctx, r.userChannel(event.RequestedBy), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish job event: %w", err)
	}
	return nil
}

func (r *downloadsRedisRepo) SubscribeJobEvents(ctx context.Context, userID uuid.UUID) (<-chan *models.JobEvent, func() error, error) {
	pubsub := r.redisClient.Subscribe(ctx, r.userChannel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to job events: %w", err)
	}

	out := make(chan *models.JobEvent)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			event := &models.JobEvent{}
			if err := json.Unmarshal([]byte(msg.Payload), event); err != nil {
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, pubsub.Close, nil
}

func (r *downloadsRedisRepo) SetJobState(ctx context.Context, job *models.DownloadJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job state: %w", err)
	}
	key := r.jobStateKey + job.JobID.String()
	if err := r.redisClient.Set(ctx, key, payload, jobStateTTL).Err(); err != nil {
		return fmt.Errorf("failed to set job state: %w", err)
	}
	return nil
}

func (r *downloadsRedisRepo) GetJobState(ctx context.Context, jobID uuid.UUID) (*models.DownloadJob, error) {
	payload, err := r.redisClient.Get(ctx, r.jobStateKey+jobID.String()).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, downloads.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job state: %w", err)
	}
	job := &models.DownloadJob{}
	if err := json.Unmarshal([]byte(payload), job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job state: %w", err)
	}
	return job, nil
}
