package transport

import (
	"fmt"
	"strings"
	"time"

	"github.com/fastygo/boardwatch/domain"
)

// CalendarWindow is the parsed query of GET /api/v1/calendar. Zero bounds
// mean "use the default".
type CalendarWindow struct {
	Start time.Time
	End   time.Time
}

// ParseCalendarWindow reads RFC 3339 start and end values. Empty values are allowed.
func ParseCalendarWindow(start, end string) (CalendarWindow, error) {
	var w CalendarWindow
	var err error
	if w.Start, err = parseBound("start", start); err != nil {
		return w, err
	}
	if w.End, err = parseBound("end", end); err != nil {
		return w, err
	}
	if !w.Start.IsZero() && !w.End.IsZero() && w.End.Before(w.Start) {
		return w, domain.WrapError(domain.ErrCodeInvalid, domain.ErrInvalidWindow.Message,
			fmt.Errorf("end %s is before start %s", end, start))
	}
	return w, nil
}

func parseBound(name, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domain.WrapError(domain.ErrCodeInvalid, domain.ErrInvalidWindow.Message,
			fmt.Errorf("%s: %w", name, err))
	}
	return t, nil
}
