package observe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/brandpulse/backend/internal/attribution"
	pkgbigquery "github.com/brandpulse/backend/pkg/bigquery"
	"github.com/brandpulse/backend/pkg/logger"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultBatchSize      = 1
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second

	runStatusCompleted = "completed"
	runStatusFailed    = "failed"
)

// RunLogRow mirrors the attribution_runs BigQuery schema.
type RunLogRow struct {
	RunID       string    `bigquery:"run_id"`
	Operation   string    `bigquery:"operation"`
	Status      string    `bigquery:"status"`
	WindowFrom  time.Time `bigquery:"window_from"`
	WindowTo    time.Time `bigquery:"window_to"`
	TotalOrders int64     `bigquery:"total_orders"`
	Processed   int64     `bigquery:"processed"`
	Skipped     int64     `bigquery:"skipped"`
	CampaignPct float64   `bigquery:"campaign_pct"`
	ContentPct  float64   `bigquery:"content_pct"`
	BundlePct   float64   `bigquery:"bundle_pct"`
	OrganicPct  float64   `bigquery:"organic_pct"`
	DirectPct   float64   `bigquery:"direct_pct"`
	DurationMS  int64     `bigquery:"duration_ms"`
	Error       *string   `bigquery:"error"`
	LoggedAt    time.Time `bigquery:"logged_at"`
}

// RunLogConfig controls run-log writer buffering and retries.
type RunLogConfig struct {
	Table       string
	BatchSize   int
	RetryPolicy RetryPolicy
}

// RetryPolicy controls how many times BigQuery inserts are retried.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// RunLogWriter records finished attribution runs in BigQuery with retries
// and optional batching. Insert failures are logged, never propagated.
type RunLogWriter struct {
	client tableInserter
	logg   *logger.Logger
	table  string
	batch  int
	retry  RetryPolicy
	now    func() time.Time

	mu     sync.Mutex
	buffer []RunLogRow
}

// NewRunLogWriter creates a RunLogWriter backed by the shared client.
func NewRunLogWriter(client *pkgbigquery.Client, logg *logger.Logger, cfg RunLogConfig) (*RunLogWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	table := strings.TrimSpace(cfg.Table)
	if table == "" {
		return nil, errors.New("run log table is required")
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	retry := cfg.RetryPolicy
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = defaultInitialBackoff
	}
	if retry.MaximumBackoff <= 0 {
		retry.MaximumBackoff = defaultMaximumBackoff
	}
	if retry.MaximumBackoff < retry.InitialBackoff {
		retry.MaximumBackoff = retry.InitialBackoff
	}

	return &RunLogWriter{
		client: client,
		logg:   logg,
		table:  table,
		batch:  batch,
		retry:  retry,
		now:    time.Now,
	}, nil
}

func (w *RunLogWriter) OrderSkipped(ctx context.Context, orderID uuid.UUID, cause error) {
	// Skips are visible through the processed/skipped counters on the run row.
}

func (w *RunLogWriter) RunCompleted(ctx context.Context, report attribution.RunReport) {
	row := RunLogRow{
		RunID:       uuid.NewString(),
		Operation:   report.Operation,
		Status:      runStatusCompleted,
		WindowFrom:  report.Window.From,
		WindowTo:    report.Window.To,
		TotalOrders: int64(report.TotalOrders),
		Processed:   int64(report.Processed),
		Skipped:     int64(report.Skipped),
		CampaignPct: report.Distribution.CampaignDriven,
		ContentPct:  report.Distribution.ContentDriven,
		BundlePct:   report.Distribution.BundleDriven,
		OrganicPct:  report.Distribution.Organic,
		DirectPct:   report.Distribution.Direct,
		DurationMS:  report.Duration.Milliseconds(),
		LoggedAt:    w.now().UTC(),
	}
	w.insert(ctx, row)
}

func (w *RunLogWriter) RunFailed(ctx context.Context, operation string, window attribution.TimeRange, err error) {
	row := RunLogRow{
		RunID:      uuid.NewString(),
		Operation:  operation,
		Status:     runStatusFailed,
		WindowFrom: window.From,
		WindowTo:   window.To,
		Error:      errorMessage(err),
		LoggedAt:   w.now().UTC(),
	}
	w.insert(ctx, row)
}

func (w *RunLogWriter) insert(ctx context.Context, row RunLogRow) {
	w.mu.Lock()
	w.buffer = append(w.buffer, row)
	flush := len(w.buffer) >= w.batch
	w.mu.Unlock()

	if !flush {
		return
	}
	if err := w.Flush(ctx); err != nil {
		w.logg.Error(w.logg.WithField(ctx, "table", w.table), "write run log", err)
	}
}

// Flush writes any buffered rows immediately. Call on shutdown when
// batching is enabled.
func (w *RunLogWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	if len(w.buffer) == 0 {
		w.mu.Unlock()
		return nil
	}
	pending := w.buffer
	w.buffer = nil
	w.mu.Unlock()

	rows := make([]any, len(pending))
	for i := range pending {
		rows[i] = &pending[i]
	}
	return w.insertWithRetry(ctx, rows)
}

func (w *RunLogWriter) insertWithRetry(ctx context.Context, rows []any) error {
	attempts := 0
	backoff := w.retry.InitialBackoff

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := w.client.InsertRows(ctx, w.table, rows)
		if err == nil {
			return nil
		}

		attempts++
		if attempts >= w.retry.MaxAttempts || !isRetryableBigQueryError(err) {
			return fmt.Errorf("insert %s rows: %w", w.table, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		timer.Stop()

		backoff = minDuration(backoff*2, w.retry.MaximumBackoff)
	}
}

func errorMessage(err error) *string {
	if err == nil {
		return nil
	}
	msg := err.Error()
	return &msg
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func isRetryableBigQueryError(err error) bool {
	if err == nil {
		return false
	}

	var multi *cbigquery.MultiError
	if errors.As(err, &multi) {
		if multi == nil || len(*multi) == 0 {
			return false
		}
		for _, inner := range *multi {
			if !isRetryableBigQueryError(inner) {
				return false
			}
		}
		return true
	}

	var pme *cbigquery.PutMultiError
	if errors.As(err, &pme) {
		if pme == nil || len(*pme) == 0 {
			return false
		}
		for _, rowErr := range *pme {
			if !isRetryableBigQueryError(rowErr.Errors) {
				return false
			}
		}
		return true
	}

	var rowErr *cbigquery.RowInsertionError
	if errors.As(err, &rowErr) {
		if rowErr == nil || len(rowErr.Errors) == 0 {
			return false
		}
		for _, inner := range rowErr.Errors {
			if !isRetryableBigQueryError(inner) {
				return false
			}
		}
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return isRetryableHTTPCode(apiErr.Code)
	}

	var statusErr interface{ GRPCStatus() *status.Status }
	if errors.As(err, &statusErr) {
		if st := statusErr.GRPCStatus(); st != nil {
			return isRetryableGRPCCode(st.Code())
		}
	}

	return false
}

func isRetryableHTTPCode(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func isRetryableGRPCCode(code codes.Code) bool {
	switch code {
	case codes.Aborted,
		codes.DeadlineExceeded,
		codes.Internal,
		codes.ResourceExhausted,
		codes.Unavailable:
		return true
	default:
		return false
	}
}
