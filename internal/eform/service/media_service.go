package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ErrMediaUnavailable is returned when no object store is configured.
var ErrMediaUnavailable = errors.New("media storage is not configured")

// MediaService stores question images and form thumbnails in MinIO.
type MediaService struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewMediaService creates the media service. client may be nil.
func NewMediaService(client *minio.Client, bucket string, logger *zap.Logger) *MediaService {
	return &MediaService{client: client, bucket: bucket, logger: logger}
}

// Enabled reports whether an object store is configured.
func (s *MediaService) Enabled() bool {
	return s.client != nil
}

// EnsureBucket creates the bucket if it does not exist yet. Called once
// at startup.
func (s *MediaService) EnsureBucket(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket: %w", err)
	}
	return nil
}

// Upload stores one object and returns the path it is served from.
func (s *MediaService) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	if s.client == nil {
		return "", ErrMediaUnavailable
	}

	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	s.logger.Info("media uploaded",
		zap.String("object", objectName),
		zap.Int64("size", size),
	)
	return "/media/" + objectName, nil
}

// Open returns a reader over a stored object together with its content
// type. The caller closes the reader.
func (s *MediaService) Open(ctx context.Context, objectName string) (io.ReadCloser, string, error) {
	if s.client == nil {
		return nil, "", ErrMediaUnavailable
	}

	stat, err := s.client.StatObject(ctx, s.bucket, objectName, minio.StatObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("stat object: %w", err)
	}

	object, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("get object: %w", err)
	}
	return object, stat.ContentType, nil
}
