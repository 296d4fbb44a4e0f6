package attribution

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "github.com/brandpulse/backend/pkg/errors"
)

func windowRequest(rawQuery string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/api/v1/analytics/attribution/dashboard?"+rawQuery, nil)
}

func TestResolveWindowExplicitRange(t *testing.T) {
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	window, err := resolveWindow(windowRequest("from=2025-09-01T00:00:00Z&to=2025-09-08T00:00:00Z"), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !window.From.Equal(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %v", window.From)
	}
	if !window.To.Equal(time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected to %v", window.To)
	}
}

func TestResolveWindowNormalizesOffsets(t *testing.T) {
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	window, err := resolveWindow(windowRequest("from=2025-09-01T02:00:00%2B02:00&to=2025-09-08T00:00:00Z"), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if window.From.Location() != time.UTC {
		t.Fatalf("expected UTC window, got %v", window.From.Location())
	}
	if !window.From.Equal(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %v", window.From)
	}
}

func TestResolveWindowRejectsBadInput(t *testing.T) {
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	cases := map[string]string{
		"from without to":  "from=2025-09-01T00:00:00Z",
		"to without from":  "to=2025-09-08T00:00:00Z",
		"malformed from":   "from=yesterday&to=2025-09-08T00:00:00Z",
		"malformed to":     "from=2025-09-01T00:00:00Z&to=later",
		"inverted range":   "from=2025-09-08T00:00:00Z&to=2025-09-01T00:00:00Z",
		"unknown preset":   "preset=365d",
		"gibberish preset": "preset=quarter",
	}
	for name, rawQuery := range cases {
		if _, err := resolveWindow(windowRequest(rawQuery), now); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestResolveWindowPresets(t *testing.T) {
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	cases := map[string]time.Duration{
		"":           30 * 24 * time.Hour,
		"preset=7d":  7 * 24 * time.Hour,
		"preset=30d": 30 * 24 * time.Hour,
		"preset=90d": 90 * 24 * time.Hour,
		"preset=90D": 90 * 24 * time.Hour,
	}
	for rawQuery, want := range cases {
		window, err := resolveWindow(windowRequest(rawQuery), now)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", rawQuery, err)
		}
		if !window.To.Equal(now) {
			t.Fatalf("%q: expected window to end at now, got %v", rawQuery, window.To)
		}
		if got := window.To.Sub(window.From); got != want {
			t.Fatalf("%q: expected %v window, got %v", rawQuery, want, got)
		}
	}
}
