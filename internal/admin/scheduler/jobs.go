package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/pkg/storage"
)

// Job names
const (
	JobAggregateRefresh = "aggregate-refresh"
	JobNightlyExport    = "nightly-export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StaleRefresher refreshes stale dashboard aggregates
type StaleRefresher interface {
	RefreshStale(ctx context.Context) (int, error)
}

// WorkbookWriter writes the all-products workbook
type WorkbookWriter interface {
	Workbook(ctx context.Context, w io.Writer) error
}

// AggregateRefreshJob refreshes stale aggregates
func AggregateRefreshJob(refresher StaleRefresher) JobFunc {
	return func(ctx context.Context) error {
		_, err := refresher.RefreshStale(ctx)
		return err
	}
}

// ExportKey is the object key of a nightly workbook
func ExportKey(at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("exports/%s/simulacoes-%s.xlsx", at.Format("2006-01-02"), at.Format("20060102-150405"))
}

// NightlyExportJob uploads the workbook of every product to the bucket
func NightlyExportJob(writer WorkbookWriter, client storage.S3Client, bucket string, logger *zap.Logger) JobFunc {
	return func(ctx context.Context) error {
		var buf bytes.Buffer
		if err := writer.Workbook(ctx, &buf); err != nil {
			return fmt.Errorf("failed to build workbook: %w", err)
		}

		key := ExportKey(time.Now())
		size := buf.Len()
		if err := client.Upload(ctx, bucket, key, &buf, xlsxContentType); err != nil {
			return fmt.Errorf("failed to upload workbook: %w", err)
		}

		logger.Info("Nightly export uploaded",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Int("bytes", size))
		return nil
	}
}
