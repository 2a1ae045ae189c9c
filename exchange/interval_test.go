package exchange

import (
	"testing"
	"time"
)

func TestIntervalStringsAndDurations(t *testing.T) {
	cases := []struct {
		interval Interval
		str      string
		dur      time.Duration
	}{
		{OneMinute, "1m", time.Minute},
		{FifteenMinute, "15m", 15 * time.Minute},
		{SixHour, "6h", 6 * time.Hour},
		{OneDay, "1d", 24 * time.Hour},
		{OneWeek, "1w", 7 * 24 * time.Hour},
	}

	for _, c := range cases {
		if c.interval.String() != c.str {
			t.Errorf("Expected interval %d to be named %q, but it was named %q.", c.interval, c.str, c.interval.String())
		}

		if c.interval.Duration() != c.dur {
			t.Errorf("Expected interval %s to span %s, but it spanned %s.", c.str, c.dur, c.interval.Duration())
		}
	}
}

func TestHTTPErrorMessage(t *testing.T) {
	err := NewHTTPError(502, "")
	if err.Error() != "server responded with a 502 status code" {
		t.Errorf("Unexpected error message: %s", err)
	}

	err = NewHTTPError(500, "oops")
	if err.StatusCode() != 500 || err.Body() != "oops" {
		t.Errorf("Expected status 500 and body \"oops\", got %d and %q.", err.StatusCode(), err.Body())
	}
}
