package movingaverages

import (
	"errors"
	"fmt"

	"github.com/lukehollenback/cbpro/constants"
	"github.com/lukehollenback/cbpro/exchange"
	"github.com/lukehollenback/cbpro/structs/evictingqueue"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	Name = "≪moving-averages≫"
)

var (
	ErrInvalidLengths = errors.New("moving average lengths must be positive and short must be less than long")

	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
)

//
// Trend is the direction a crossover of the short moving average over the long one indicates.
//
type Trend int

const (
	None Trend = iota
	Uptrend
	Downtrend
)

func (t Trend) String() string {
	switch t {
	case Uptrend:
		return "uptrend"
	case Downtrend:
		return "downtrend"
	default:
		return "none"
	}
}

type Config struct {
	ShortLen    int
	LongLen     int
	Exponential bool
	Logger      *zerolog.Logger
}

//
// Crossover describes the candle on whose close the short moving average crossed the long one.
//
type Crossover struct {
	Trend  Trend
	Candle exchange.Candle
	Short  decimal.Decimal
	Long   decimal.Decimal
}

//
// average is a moving average along with the value it had one period earlier. Either may be unset
// while the tracker is still warming up.
//
type average struct {
	cur     decimal.Decimal
	prev    decimal.Decimal
	hasCur  bool
	hasPrev bool
}

func (o *average) push(v decimal.Decimal) {
	o.prev, o.hasPrev = o.cur, o.hasCur
	o.cur, o.hasCur = v, true
}

func (o *average) ready() bool {
	return o.hasCur && o.hasPrev
}

//
// Tracker follows the simple and exponential moving averages of candle closes over a short and a
// long lookback, and reports when the two cross.
//
type Tracker struct {
	logger  zerolog.Logger
	candles *evictingqueue.EvictingQueue[exchange.Candle]

	shortLen int
	longLen  int

	smaShort average
	smaLong  average

	emaEnabled   bool
	emaShortK    decimal.Decimal
	emaLongK     decimal.Decimal
	emaShort     average
	emaLong      average
	lastCrossing Trend
}

func New(cfg Config) (*Tracker, error) {
	if cfg.ShortLen <= 0 || cfg.LongLen <= cfg.ShortLen {
		return nil, fmt.Errorf("%w (short %d, long %d)", ErrInvalidLengths, cfg.ShortLen, cfg.LongLen)
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	o := &Tracker{
		logger:     logger.With().Str(constants.ComponentKey, Name).Logger(),
		candles:    evictingqueue.New[exchange.Candle](cfg.LongLen),
		shortLen:   cfg.ShortLen,
		longLen:    cfg.LongLen,
		emaEnabled: cfg.Exponential,
	}

	//
	// NOTE ~> EMA Smoothing Factor = 2 ÷ (number of time periods + 1)
	//
	o.emaShortK = two.Div(decimal.NewFromInt(int64(cfg.ShortLen)).Add(one))
	o.emaLongK = two.Div(decimal.NewFromInt(int64(cfg.LongLen)).Add(one))

	o.logger.Debug().
		Int("short", cfg.ShortLen).
		Int("long", cfg.LongLen).
		Bool("exponential", cfg.Exponential).
		Msg("Initialized.")

	return o, nil
}

//
// Add feeds a newly closed candle to the tracker, updates its averages, and returns the crossover
// that candle caused (if any).
//
func (o *Tracker) Add(c exchange.Candle) (Crossover, bool) {
	o.candles.Add(c)

	n := o.candles.Len()

	//
	// Calculate the short moving averages. The EMA has to wait one extra period after the first SMA,
	// which primes it.
	//
	if n >= o.shortLen {
		o.smaShort.push(o.simpleMovingAverage(o.shortLen))

		if o.smaShort.hasPrev {
			o.emaShort.push(o.nextEMA(c.Close(), &o.emaShort, o.smaShort, o.emaShortK))
		}
	}

	//
	// Calculate the long moving averages.
	//
	if n >= o.longLen {
		o.smaLong.push(o.simpleMovingAverage(o.longLen))

		if o.smaLong.hasPrev {
			o.emaLong.push(o.nextEMA(c.Close(), &o.emaLong, o.smaLong, o.emaLongK))
		}
	}

	short, long := o.averages()

	if !short.ready() || !long.ready() {
		o.logger.Debug().Int("collected", n).Int("required", o.longLen+1).Msg("Not warmed up yet.")

		return Crossover{}, false
	}

	//
	// A crossover happened if the short average sits on a different side of the long average than it
	// did one period ago.
	//
	above, abovePrev := short.cur.GreaterThan(long.cur), short.prev.GreaterThan(long.prev)
	below, belowPrev := short.cur.LessThan(long.cur), short.prev.LessThan(long.prev)

	if above == abovePrev && below == belowPrev {
		return Crossover{}, false
	}

	trend := None
	if above {
		trend = Uptrend
	} else if below {
		trend = Downtrend
	}

	if trend == None {
		return Crossover{}, false
	}

	o.lastCrossing = trend

	o.logger.Info().
		Str("trend", trend.String()).
		Str("short", short.cur.String()).
		Str("long", long.cur.String()).
		Str("close", c.Close().String()).
		Msg("Short moving average crossed the long one.")

	return Crossover{Trend: trend, Candle: c, Short: short.cur, Long: long.cur}, true
}

//
// Averages returns the current short and long moving averages, and false if either is not yet
// available.
//
func (o *Tracker) Averages() (short decimal.Decimal, long decimal.Decimal, ok bool) {
	s, l := o.averages()

	return s.cur, l.cur, s.hasCur && l.hasCur
}

//
// LastCrossing returns the trend of the most recent crossover, or None.
//
func (o *Tracker) LastCrossing() Trend {
	return o.lastCrossing
}

func (o *Tracker) averages() (average, average) {
	if o.emaEnabled {
		return o.emaShort, o.emaLong
	}

	return o.smaShort, o.smaLong
}

//
// simpleMovingAverage calculates the mean close of the most recent lookback candles.
//
func (o *Tracker) simpleMovingAverage(lookback int) decimal.Decimal {
	candles := o.candles.Snapshot()
	sum := decimal.Zero

	for _, c := range candles[len(candles)-lookback:] {
		sum = sum.Add(c.Close())
	}

	return sum.Div(decimal.NewFromInt(int64(lookback)))
}

//
// nextEMA calculates the next exponential moving average data point. The first one is primed with the
// matching simple moving average.
//
func (o *Tracker) nextEMA(closeAmt decimal.Decimal, ema *average, sma average, k decimal.Decimal) decimal.Decimal {
	prev := sma.prev
	if ema.hasCur {
		prev = ema.cur
	}

	// NOTE ~> EMA = (close - previous EMA) × smoothing factor + previous EMA

	return closeAmt.Sub(prev).Mul(k).Add(prev)
}
