package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/miva-edu/mind-analytics/backend/internal/warehouse"
)

// Service uploads rendered CSV exports to a GCS bucket.
type Service struct {
	gcsClient *storage.Client
	gcsBucket string
	logger    *slog.Logger
}

// NewService creates the export service. The bucket must already exist.
func NewService(gcsClient *storage.Client, bucket string, logger *slog.Logger) *Service {
	return &Service{
		gcsClient: gcsClient,
		gcsBucket: bucket,
		logger:    logger.With("component", "export_service"),
	}
}

// UploadTable renders table as CSV and uploads it under a batch-unique key.
// Returns the object key of the uploaded file.
func (s *Service) UploadTable(ctx context.Context, batchID uuid.UUID, name string, table *warehouse.ResultTable) (string, error) {
	objectKey := fmt.Sprintf("exports/%s/%s.csv", batchID.String(), name)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		return "", fmt.Errorf("failed to render CSV for %s: %w", name, err)
	}

	wc := s.gcsClient.Bucket(s.gcsBucket).Object(objectKey).NewWriter(ctx)
	wc.ContentType = "text/csv"

	if _, err := io.Copy(wc, &buf); err != nil {
		s.logger.ErrorContext(ctx, "Failed to upload export to GCS", slog.Any("error", err), "object_key", objectKey)
		return "", fmt.Errorf("failed to upload export to GCS: %w", err)
	}
	// Close the writer to finalize the upload
	if err := wc.Close(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to close GCS writer", slog.Any("error", err), "object_key", objectKey)
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}

	s.logger.InfoContext(ctx, "Export uploaded to GCS", "object_key", objectKey, "rows", table.NumRows())
	return objectKey, nil
}
