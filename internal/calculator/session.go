package calculator

import (
	"fmt"
	"time"

	"PivotLevels/internal/model"
)

// PreviousSession returns the second-to-last bar of a daily series, treating the
// last bar as the current (possibly incomplete) session. It does not detect
// gaps: if the provider skipped a trading day, the bar returned is simply
// whatever sits second from the end.
func PreviousSession(series model.Series) (model.Bar, bool) {
	if len(series) < 2 {
		return model.Bar{}, false
	}
	return series[len(series)-2], true
}

// SessionClock is the wall-clock time the regular session opens.
type SessionClock struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// DefaultSessionClock is 14:30 UTC, which matches 9:30 New York time only
// while daylight saving is not in effect.
var DefaultSessionClock = SessionClock{Hour: 14, Minute: 30, Location: time.UTC}

// ParseSessionClock parses "HH:MM" in the named IANA zone ("" means UTC).
func ParseSessionClock(hhmm, zone string) (SessionClock, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return SessionClock{}, fmt.Errorf("parse session open %q: %w", hhmm, err)
	}
	loc := time.UTC
	if zone != "" {
		if loc, err = time.LoadLocation(zone); err != nil {
			return SessionClock{}, fmt.Errorf("load session timezone %q: %w", zone, err)
		}
	}
	return SessionClock{Hour: t.Hour(), Minute: t.Minute(), Location: loc}, nil
}

// SessionOpenCutoff returns the unix time the session opens on now's calendar
// date in the clock's zone.
func SessionOpenCutoff(now time.Time, clock SessionClock) int64 {
	loc := clock.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	open := time.Date(local.Year(), local.Month(), local.Day(), clock.Hour, clock.Minute, 0, 0, loc)
	return open.Unix()
}
