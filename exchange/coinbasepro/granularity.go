package coinbasepro

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

var ErrInvalidGranularity = errors.New("granularity must be one of 60, 300, 900, 3600, 21600, or 86400 seconds")

//
// Granularity is the width of a candle in seconds. Coinbase Pro only supports a handful of them.
//
type Granularity int

const (
	OneMinute      Granularity = 60
	FiveMinutes    Granularity = 300
	FifteenMinutes Granularity = 900
	OneHour        Granularity = 3600
	SixHours       Granularity = 21600
	OneDay         Granularity = 86400
)

var granularityNames = map[Granularity]string{
	OneMinute:      "1m",
	FiveMinutes:    "5m",
	FifteenMinutes: "15m",
	OneHour:        "1h",
	SixHours:       "6h",
	OneDay:         "1d",
}

var _ pflag.Value = (*Granularity)(nil)

//
// GranularityFromDuration maps a duration onto one of the supported granularities.
//
func GranularityFromDuration(d time.Duration) (Granularity, error) {
	g := Granularity(d / time.Second)

	if d%time.Second != 0 || !g.Valid() {
		return 0, fmt.Errorf("%w (got %s)", ErrInvalidGranularity, d)
	}

	return g, nil
}

func (o Granularity) Valid() bool {
	_, ok := granularityNames[o]

	return ok
}

func (o Granularity) Duration() time.Duration {
	return time.Duration(o) * time.Second
}

func (o Granularity) String() string {
	if name, ok := granularityNames[o]; ok {
		return name
	}

	return strconv.Itoa(int(o)) + "s"
}

//
// Set implements the pflag.Value interface. It accepts either a duration ("1h", "15m") or a plain
// number of seconds ("3600").
//
func (o *Granularity) Set(value string) error {
	if seconds, err := strconv.Atoi(value); err == nil {
		g := Granularity(seconds)
		if !g.Valid() {
			return fmt.Errorf("%w (got %s)", ErrInvalidGranularity, value)
		}

		*o = g

		return nil
	}

	//
	// NOTE ~> time.ParseDuration does not understand days, so handle the one day granularity by name.
	//
	if value == granularityNames[OneDay] {
		*o = OneDay

		return nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w (got %s)", ErrInvalidGranularity, value)
	}

	g, err := GranularityFromDuration(d)
	if err != nil {
		return err
	}

	*o = g

	return nil
}

func (o *Granularity) Type() string {
	return "granularity"
}
