package services

import (
	"fmt"
	"time"
)

// TimeWindow is an absolute UTC interval.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// WindowInput is the raw calendar tuple a client submits. Zone is an IANA
// name; an empty or unknown zone falls back to the server default so a bad
// client preference degrades instead of erroring.
type WindowInput struct {
	Date            string // "2006-01-02"
	StartClock      string // "15:04"
	DurationMinutes int
	Zone            string
}

// Complete reports whether all three of date, time and duration are
// present. Multi-stage forms submit partial tuples; those are skipped, not
// rejected.
func (in WindowInput) Complete() bool {
	return in.Date != "" && in.StartClock != "" && in.DurationMinutes > 0
}

// ResolveWindow combines date and time-of-day in the named timezone and
// converts to UTC. Comparisons elsewhere are all done on the returned
// instants; server-local time never enters the picture.
func ResolveWindow(in WindowInput, fallbackZone string) (TimeWindow, error) {
	if !in.Complete() {
		return TimeWindow{}, fmt.Errorf("%w: date, start time and duration are all required", ErrValidation)
	}
	loc := resolveLocation(in.Zone, fallbackZone)
	start, err := time.ParseInLocation("2006-01-02 15:04", in.Date+" "+in.StartClock, loc)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("%w: invalid date or time: %q %q", ErrValidation, in.Date, in.StartClock)
	}
	startUTC := start.UTC()
	return TimeWindow{
		Start: startUTC,
		End:   startUTC.Add(time.Duration(in.DurationMinutes) * time.Minute),
	}, nil
}

func resolveLocation(zone, fallback string) *time.Location {
	if zone != "" {
		if loc, err := time.LoadLocation(zone); err == nil {
			return loc
		}
	}
	if fallback != "" {
		if loc, err := time.LoadLocation(fallback); err == nil {
			return loc
		}
	}
	return time.UTC
}
