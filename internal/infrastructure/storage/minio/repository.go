package minio

import (
	"context"
	"path"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/compoundrank/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/compoundrank/pkg/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PublishedObject describes one uploaded report.
type PublishedObject struct {
	Bucket     string
	ObjectKey  string
	ETag       string
	Size       int64
	UploadedAt time.Time
}

// ReportPublisher uploads local report files under a run-scoped key.
type ReportPublisher interface {
	Publish(ctx context.Context, runID string, files ...string) ([]PublishedObject, error)
}

type reportPublisher struct {
	client *Client
	logger logging.Logger
}

// NewReportPublisher returns a ReportPublisher writing through client.
func NewReportPublisher(client *Client, logger logging.Logger) ReportPublisher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &reportPublisher{client: client, logger: logger}
}

// ObjectKey returns {prefix}/{runID}/{base name of file}.
func (c *Client) ObjectKey(runID, file string) string {
	return path.Join(c.prefix, runID, filepath.Base(file))
}

// Publish uploads files in order and stops at the first failure.
func (p *reportPublisher) Publish(ctx context.Context, runID string, files ...string) ([]PublishedObject, error) {
	if runID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "run id is required")
	}
	if len(files) == 0 {
		return nil, nil
	}
	if err := p.client.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	published := make([]PublishedObject, 0, len(files))
	for _, file := range files {
		key := p.client.ObjectKey(runID, file)
		info, err := p.client.api.FPutObject(ctx, p.client.bucket, key, file, minio.PutObjectOptions{
			ContentType:  xlsxContentType,
			UserMetadata: map[string]string{"run-id": runID},
			UserTags:     map[string]string{"app": "compoundrank"},
		})
		if err != nil {
			return published, errors.Wrap(err, errors.ErrCodeStorageFailed, "failed to upload report").WithDetail(key)
		}
		published = append(published, PublishedObject{
			Bucket:     info.Bucket,
			ObjectKey:  info.Key,
			ETag:       info.ETag,
			Size:       info.Size,
			UploadedAt: time.Now().UTC(),
		})
		p.logger.Info("report published",
			logging.String("bucket", p.client.bucket),
			logging.String("key", key),
			logging.Int64("size", info.Size))
	}
	return published, nil
}
