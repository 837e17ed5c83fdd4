package repository

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pixelbank/archive-service/internal/downloads"
)

const archiveContentType = "application/zip"

type awsRepository struct {
	client        *s3.Client
	preSignClient *s3.PresignClient
	bucket        string
}

func NewAwsRepository(awsClient *s3.Client, preSignClient *s3.PresignClient, bucket string) downloads.AWSRepository {
	return &awsRepository{
		client:        awsClient,
		preSignClient: preSignClient,
		bucket:        bucket,
	}
}

func (a *awsRepository) UploadArchive(ctx context.Context, key string, data []byte) error {
	size := int64(len(data))
	contentType := archiveContentType
	_, err := a.client.PutObject(
		ctx,
		&s3.PutObjectInput{
			Bucket:        &a.bucket,
			Key:           &key,
			Body:          bytes.NewReader(data),
			ContentLength: &size,
			ContentType:   &contentType,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to upload archive %s: %w", key, err)
	}
	return nil
}

// GetPresignedDownloadURL returns a time-boxed GET link for a produced
// archive. The bucket stays private; the credential lives in the URL.
func (a *awsRepository) GetPresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := a.preSignClient.PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: &a.bucket,
			Key:    &key,
		},
		s3.WithPresignExpires(expiry),
	)
	if err != nil {
		return "", fmt.Errorf("failed to presign get object %s: %w", key, err)
	}
	return req.URL, nil
}

func (a *awsRepository) RemoveArchive(ctx context.Context, key string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &a.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("failed to remove archive %s: %w", key, err)
	}
	return nil
}
