package attribution

import (
	"net/http"
	"strings"
	"time"

	attrib "github.com/brandpulse/backend/internal/attribution"
	pkgerrors "github.com/brandpulse/backend/pkg/errors"
)

var timeNowUTC = func() time.Time {
	return time.Now().UTC()
}

func resolveWindow(r *http.Request, now time.Time) (attrib.TimeRange, error) {
	query := r.URL.Query()
	from := strings.TrimSpace(query.Get("from"))
	to := strings.TrimSpace(query.Get("to"))

	if from != "" || to != "" {
		if from == "" || to == "" {
			return attrib.TimeRange{}, pkgerrors.New(pkgerrors.CodeValidation, "from and to must be provided together")
		}
		start, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return attrib.TimeRange{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid from timestamp")
		}
		end, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return attrib.TimeRange{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid to timestamp")
		}
		start = start.UTC()
		end = end.UTC()
		if end.Before(start) {
			return attrib.TimeRange{}, pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
		}
		return attrib.TimeRange{From: start, To: end}, nil
	}

	preset := strings.TrimSpace(query.Get("preset"))
	duration, ok := presetDuration(preset)
	if !ok {
		return attrib.TimeRange{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid preset")
	}

	end := now
	return attrib.TimeRange{From: end.Add(-duration), To: end}, nil
}

func presetDuration(value string) (time.Duration, bool) {
	if value == "" {
		value = "30d"
	}
	switch strings.ToLower(value) {
	case "7d":
		return 7 * 24 * time.Hour, true
	case "30d":
		return 30 * 24 * time.Hour, true
	case "90d":
		return 90 * 24 * time.Hour, true
	default:
		return 0, false
	}
}
