package rdbms

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/artie-labs/transfer/lib/retry"
	"github.com/google/uuid"

	"github.com/artie-labs/cursor/lib/cursor"
	"github.com/artie-labs/cursor/lib/mtr"
)

const (
	DefaultBatchSize = 5_000

	jitterBaseMs = 300
	jitterMaxMs  = 5000
)

type ScannerConfig struct {
	// TableName qualifies the produced column descriptions, it may be left empty.
	TableName string
	// BatchSize caps batches pulled without an explicit size hint, defaults to [DefaultBatchSize].
	BatchSize    int
	ErrorRetries int
	StatsD       *mtr.Client
}

func (s ScannerConfig) GetBatchSize() int {
	if s.BatchSize > 0 {
		return s.BatchSize
	}
	return DefaultBatchSize
}

// NewCursor runs a query and exposes its result as a [cursor.Cursor]. The query itself is retried
// with jitter on failure; rows are then streamed off the driver one batch per pull, and the
// underlying [sql.Rows] is released as soon as the driver is exhausted or the cursor is closed.
func NewCursor(ctx context.Context, db *sql.DB, cfg ScannerConfig, query string, args ...any) (*cursor.Cursor, error) {
	retryCfg, err := retry.NewJitterRetryConfig(jitterBaseMs, jitterMaxMs, cfg.ErrorRetries, retry.AlwaysRetry)
	if err != nil {
		return nil, fmt.Errorf("failed to build retry config: %w", err)
	}

	slog.Info("Scan query", slog.String("query", query), slog.Any("parameters", args))
	rows, err := retry.WithRetriesAndResult(retryCfg, func(_ int, _ error) (*sql.Rows, error) {
		return db.QueryContext(ctx, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	columnNames, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	scanner := &scanner{
		scanID:    uuid.New().String(),
		rows:      rows,
		width:     len(columnNames),
		batchSize: cfg.GetBatchSize(),
		tableName: cfg.TableName,
		statsD:    cfg.StatsD,
	}
	return cursor.NewCursor(BuildColumnDescriptions(cfg.TableName, columnNames), scanner.nextBatch, scanner.release), nil
}

// BuildColumnDescriptions maps driver column names onto cursor column descriptions, all qualified
// by the same table name.
func BuildColumnDescriptions(tableName string, columnNames []string) []cursor.ColumnDescription {
	columns := make([]cursor.ColumnDescription, len(columnNames))
	for i, name := range columnNames {
		columns[i] = cursor.ColumnDescription{Table: tableName, Name: name}
	}
	return columns
}

type scanner struct {
	// immutable
	scanID    string
	width     int
	batchSize int
	tableName string
	statsD    *mtr.Client

	// mutable, nil once the driver is drained
	rows *sql.Rows
}

func (s *scanner) nextBatch(_ context.Context, sizeHint *int) ([]cursor.Row, error) {
	if s.rows == nil {
		return nil, nil
	}

	limit := s.batchSize
	if sizeHint != nil {
		limit = *sizeHint
	}

	start := time.Now()
	batch := make([]cursor.Row, 0, limit)
	for len(batch) < limit && s.rows.Next() {
		values := make([]any, s.width)
		valuePtrs := make([]any, s.width)
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := s.rows.Scan(valuePtrs...); err != nil {
			_ = s.release()
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		batch = append(batch, cursor.Row(values))
	}

	if len(batch) < limit {
		// The driver ran out before the limit, release it now so the connection goes back to the
		// pool without waiting for a final empty pull.
		err := s.rows.Err()
		if releaseErr := s.release(); releaseErr != nil && err == nil {
			err = releaseErr
		}
		if err != nil {
			return nil, fmt.Errorf("row iteration failed: %w", err)
		}
	}

	if s.statsD != nil {
		(*s.statsD).Timing("batch_scanned", time.Since(start), map[string]string{"table": s.tableName})
	}
	slog.Debug("Scanned batch", slog.String("scanID", s.scanID), slog.Int("rows", len(batch)))
	return batch, nil
}

func (s *scanner) release() error {
	if s.rows == nil {
		return nil
	}
	rows := s.rows
	s.rows = nil
	return rows.Close()
}
