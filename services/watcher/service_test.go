package watcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lukehollenback/cbpro/exchange/coinbasepro"
	"github.com/lukehollenback/cbpro/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2020, 3, 9, 0, 0, 0, 0, time.UTC)

//
// fakeSource serves hourly candles for the whole day, honoring the requested range the same way the
// exchange does. Without a range it serves every candle that has opened by "now".
//
type fakeSource struct {
	mu    sync.Mutex
	now   time.Time
	calls []coinbasepro.CandleRequest
}

func (o *fakeSource) GetCandles(ctx context.Context, productID string, params coinbasepro.CandleRequest) ([]*coinbasepro.Candle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.calls = append(o.calls, params)

	start, end := day, o.now
	if !params.Start.IsZero() {
		start, end = params.Start, params.End
	}

	ret := make([]*coinbasepro.Candle, 0)

	for t := day; !t.After(o.now); t = t.Add(time.Hour) {
		if t.Before(start) || t.After(end) {
			continue
		}

		price := decimal.NewFromInt(int64(5000 + t.Hour()))
		ret = append(ret, coinbasepro.NewCandle(t, coinbasepro.OneHour, price, price, price, price, decimal.NewFromInt(1)))
	}

	return ret, nil
}

func (o *fakeSource) setNow(now time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.now = now
}

func (o *fakeSource) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.calls)
}

func TestPollSeedsThenEmitsClosedCandles(t *testing.T) {
	source := &fakeSource{}

	svc, err := New(source, Config{ProductID: "BTC-USD", Granularity: coinbasepro.OneHour, History: 5})
	require.NoError(t, err)

	var emitted []*coinbasepro.Candle

	svc.RegisterCandleCloseHandler(func(c *coinbasepro.Candle) {
		emitted = append(emitted, c)
	})

	//
	// The first poll only seeds the history with the candles that have closed.
	//
	now := day.Add(10*time.Hour + 30*time.Minute)
	source.setNow(now)
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.poll(context.Background()))

	assert.Empty(t, emitted)
	require.Len(t, svc.Recent(), 5)
	assert.Equal(t, day.Add(9*time.Hour), svc.Recent()[4].StartTime())

	//
	// The next poll asks only for what came after the last known candle and emits what closed.
	//
	now = day.Add(12*time.Hour + 5*time.Minute)
	source.setNow(now)

	require.NoError(t, svc.poll(context.Background()))

	assert.Equal(t, day.Add(10*time.Hour), source.calls[1].Start)
	assert.Equal(t, now, source.calls[1].End)

	require.Len(t, emitted, 2)
	assert.Equal(t, day.Add(10*time.Hour), emitted[0].StartTime())
	assert.Equal(t, day.Add(11*time.Hour), emitted[1].StartTime())

	//
	// The twelve o'clock candle is still open, so nothing new should be emitted.
	//
	now = day.Add(12*time.Hour + 30*time.Minute)
	source.setNow(now)

	require.NoError(t, svc.poll(context.Background()))
	assert.Len(t, emitted, 2)

	last := svc.Recent()[len(svc.Recent())-1]
	assert.Equal(t, day.Add(11*time.Hour), last.StartTime())
}

func TestPollSkipsRequestWhenNothingCouldHaveClosed(t *testing.T) {
	source := &fakeSource{}

	svc, err := New(source, Config{ProductID: "BTC-USD", Granularity: coinbasepro.OneHour})
	require.NoError(t, err)

	now := day.Add(2*time.Hour + 10*time.Minute)
	source.setNow(now)
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.poll(context.Background()))
	require.NoError(t, svc.poll(context.Background()))

	// The second poll asks for the 02:00 candle onward, which has opened, so a request is made.
	assert.Equal(t, 2, source.callCount())

	svc.lastOpen = now

	require.NoError(t, svc.poll(context.Background()))
	assert.Equal(t, 2, source.callCount())
}

func TestStartAndStop(t *testing.T) {
	source := &fakeSource{now: day.Add(3 * time.Hour)}

	svc, err := New(source, Config{
		ProductID:    "BTC-USD",
		Granularity:  coinbasepro.OneHour,
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	chStarted, err := svc.Start()
	require.NoError(t, err)
	<-chStarted

	_, err = svc.Start()
	assert.ErrorIs(t, err, services.ErrAlreadyStarted)

	assert.Eventually(t, func() bool {
		return source.callCount() >= 1
	}, time.Second, 5*time.Millisecond)

	chStopped, err := svc.Stop()
	require.NoError(t, err)

	select {
	case <-chStopped:
	case <-time.After(time.Second):
		t.Fatal("The service did not stop in time.")
	}

	_, err = svc.Stop()
	assert.ErrorIs(t, err, services.ErrNotStarted)
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(&fakeSource{}, Config{Granularity: coinbasepro.OneHour})
	assert.Error(t, err)

	_, err = New(&fakeSource{}, Config{ProductID: "BTC-USD", Granularity: 42})
	assert.ErrorIs(t, err, coinbasepro.ErrInvalidGranularity)

	svc, err := New(&fakeSource{}, Config{ProductID: "BTC-USD", Granularity: coinbasepro.OneMinute})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, svc.cfg.PollInterval)
	assert.Equal(t, DefaultHistory, svc.cfg.History)
}
