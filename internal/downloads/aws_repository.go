package downloads

import (
	"context"
	"time"
)

type AWSRepository interface {
	UploadArchive(ctx context.Context, key string, data []byte) error
	GetPresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	RemoveArchive(ctx context.Context, key string) error
}
