package observe

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/brandpulse/backend/internal/attribution"
	"github.com/brandpulse/backend/pkg/logger"
	"google.golang.org/api/googleapi"
)

type stubInserter struct {
	mu      sync.Mutex
	calls   int
	rows    [][]any
	errs    []error
	lastTab string
}

func (s *stubInserter) InsertRows(ctx context.Context, table string, rows []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastTab = table
	copied := make([]any, len(rows))
	copy(copied, rows)
	s.rows = append(s.rows, copied)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return err
	}
	return nil
}

func testRunLogWriter(t *testing.T, inserter tableInserter, batch int) *RunLogWriter {
	t.Helper()
	return &RunLogWriter{
		client: inserter,
		logg:   logger.New(logger.Options{ServiceName: "test"}),
		table:  "attribution_runs",
		batch:  batch,
		retry: RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaximumBackoff: 2 * time.Millisecond,
		},
		now: func() time.Time { return time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC) },
	}
}

func testWindow() attribution.TimeRange {
	return attribution.TimeRange{
		From: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC),
	}
}

func TestRunCompletedWritesRow(t *testing.T) {
	inserter := &stubInserter{}
	w := testRunLogWriter(t, inserter, 1)

	w.RunCompleted(context.Background(), attribution.RunReport{
		Operation:   "dashboard",
		Window:      testWindow(),
		TotalOrders: 20,
		Processed:   18,
		Skipped:     2,
		Distribution: attribution.Distribution{
			CampaignDriven: 40,
			ContentDriven:  25,
			BundleDriven:   5,
			Direct:         30,
		},
		Duration: 1500 * time.Millisecond,
	})

	if inserter.calls != 1 {
		t.Fatalf("expected 1 insert, got %d", inserter.calls)
	}
	if inserter.lastTab != "attribution_runs" {
		t.Fatalf("table = %q", inserter.lastTab)
	}
	row, ok := inserter.rows[0][0].(*RunLogRow)
	if !ok {
		t.Fatalf("unexpected row type %T", inserter.rows[0][0])
	}
	if row.Status != runStatusCompleted {
		t.Fatalf("status = %q", row.Status)
	}
	if row.Processed != 18 || row.Skipped != 2 {
		t.Fatalf("row counts = %+v", row)
	}
	if row.CampaignPct != 40 || row.DirectPct != 30 {
		t.Fatalf("row distribution = %+v", row)
	}
	if row.DurationMS != 1500 {
		t.Fatalf("duration_ms = %d", row.DurationMS)
	}
	if row.RunID == "" {
		t.Fatal("expected a run id")
	}
	if row.Error != nil {
		t.Fatalf("expected nil error, got %q", *row.Error)
	}
}

func TestRunFailedWritesErrorRow(t *testing.T) {
	inserter := &stubInserter{}
	w := testRunLogWriter(t, inserter, 1)

	w.RunFailed(context.Background(), "insights", testWindow(), errors.New("db unreachable"))

	if inserter.calls != 1 {
		t.Fatalf("expected 1 insert, got %d", inserter.calls)
	}
	row := inserter.rows[0][0].(*RunLogRow)
	if row.Status != runStatusFailed {
		t.Fatalf("status = %q", row.Status)
	}
	if row.Error == nil || *row.Error != "db unreachable" {
		t.Fatalf("error column = %v", row.Error)
	}
}

func TestBatchingBuffersUntilFull(t *testing.T) {
	inserter := &stubInserter{}
	w := testRunLogWriter(t, inserter, 3)

	report := attribution.RunReport{Operation: "dashboard", Window: testWindow()}
	w.RunCompleted(context.Background(), report)
	w.RunCompleted(context.Background(), report)
	if inserter.calls != 0 {
		t.Fatalf("expected buffered rows, got %d inserts", inserter.calls)
	}

	w.RunCompleted(context.Background(), report)
	if inserter.calls != 1 {
		t.Fatalf("expected flush at batch size, got %d inserts", inserter.calls)
	}
	if got := len(inserter.rows[0]); got != 3 {
		t.Fatalf("expected 3 rows in flush, got %d", got)
	}

	if err := w.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if inserter.calls != 1 {
		t.Fatal("flush of an empty buffer should not hit the client")
	}
}

func TestInsertRetriesRetryableErrors(t *testing.T) {
	inserter := &stubInserter{errs: []error{
		&googleapi.Error{Code: http.StatusServiceUnavailable},
		&googleapi.Error{Code: http.StatusServiceUnavailable},
	}}
	w := testRunLogWriter(t, inserter, 1)

	w.RunCompleted(context.Background(), attribution.RunReport{Operation: "dashboard", Window: testWindow()})

	if inserter.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inserter.calls)
	}
}

func TestInsertDoesNotRetryTerminalErrors(t *testing.T) {
	inserter := &stubInserter{errs: []error{
		&googleapi.Error{Code: http.StatusBadRequest},
	}}
	w := testRunLogWriter(t, inserter, 1)

	w.RunCompleted(context.Background(), attribution.RunReport{Operation: "dashboard", Window: testWindow()})

	if inserter.calls != 1 {
		t.Fatalf("expected 1 attempt, got %d", inserter.calls)
	}
}

func TestNewRunLogWriterValidation(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	if _, err := NewRunLogWriter(nil, logg, RunLogConfig{Table: "attribution_runs"}); err == nil {
		t.Fatal("expected error for nil client")
	}
}
