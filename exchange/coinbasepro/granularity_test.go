package coinbasepro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGranularitySet(t *testing.T) {
	cases := []struct {
		value string
		want  Granularity
		ok    bool
	}{
		{"1h", OneHour, true},
		{"3600", OneHour, true},
		{"15m", FifteenMinutes, true},
		{"1d", OneDay, true},
		{"24h", OneDay, true},
		{"2h", 0, false},
		{"120", 0, false},
		{"soon", 0, false},
	}

	for _, c := range cases {
		var g Granularity

		err := g.Set(c.value)
		if c.ok {
			assert.NoError(t, err, c.value)
			assert.Equal(t, c.want, g, c.value)
		} else {
			assert.ErrorIs(t, err, ErrInvalidGranularity, c.value)
		}
	}
}

func TestGranularityFromDuration(t *testing.T) {
	g, err := GranularityFromDuration(6 * time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, SixHours, g)
	assert.Equal(t, "6h", g.String())

	_, err = GranularityFromDuration(90 * time.Second)
	assert.ErrorIs(t, err, ErrInvalidGranularity)

	assert.Equal(t, "120s", Granularity(120).String())
}
