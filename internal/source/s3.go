package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/muandane/opcachestat/internal/bytecode"
)

// S3 reads the status dump uploaded by the PHP host to a bucket.
type S3 struct {
	client  *minio.Client
	bucket  string
	key     string
	timeout time.Duration
	logger  *slog.Logger
}

// NewS3 returns a source reading key from bucket. A positive timeout bounds
// each read.
func NewS3(client *minio.Client, bucket, key string, timeout time.Duration, logger *slog.Logger) (*S3, error) {
	if client == nil {
		return nil, errors.New("minio client cannot be nil")
	}
	if bucket == "" || key == "" {
		return nil, errors.New("bucket and key are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &S3{client: client, bucket: bucket, key: key, timeout: timeout, logger: logger}, nil
}

func (s *S3) Status(ctx context.Context) (*bytecode.Status, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting status object: %w", err)
	}
	defer obj.Close()

	data, err := readStatus(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			s.logger.Info("no status dump in bucket", "bucket", s.bucket, "key", s.key)
			return nil, nil
		}
		return nil, fmt.Errorf("reading status object: %w", err)
	}

	s.logger.Debug("status dump loaded", "bucket", s.bucket, "key", s.key, "size", len(data))
	return bytecode.ParseStatus(data)
}
