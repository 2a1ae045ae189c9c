package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lukehollenback/cbpro/constants"
	"github.com/lukehollenback/cbpro/exchange/coinbasepro"
	"github.com/lukehollenback/cbpro/services"
	"github.com/lukehollenback/cbpro/structs/evictingqueue"
	"github.com/rs/zerolog"
)

const (
	Name = "≪candle-watcher≫"

	DefaultHistory = 100
)

//
// CandleSource is anything that can serve candles. *coinbasepro.ProductAPI is the real one.
//
type CandleSource interface {
	GetCandles(ctx context.Context, productID string, params coinbasepro.CandleRequest) ([]*coinbasepro.Candle, error)
}

type Config struct {
	ProductID   string
	Granularity coinbasepro.Granularity

	//
	// PollInterval is how often the exchange is asked for new candles. Defaults to a quarter of the
	// granularity, but never less than ten seconds.
	//
	PollInterval time.Duration

	//
	// History is the number of closed candles kept around for Recent().
	//
	History int

	Logger *zerolog.Logger
}

//
// Service polls the candles endpoint for a single product and fires off handlers whenever new candles
// close out.
//
type Service struct {
	mu        *sync.Mutex
	chKill    chan bool
	chStopped chan bool
	running   bool

	source CandleSource
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time

	recent   *evictingqueue.EvictingQueue[*coinbasepro.Candle]
	lastOpen time.Time

	onCandleCloseHandlers []func(*coinbasepro.Candle)
}

var _ services.Service = (*Service)(nil)

func New(source CandleSource, cfg Config) (*Service, error) {
	if cfg.ProductID == "" {
		return nil, fmt.Errorf("a product ID is required")
	}

	if !cfg.Granularity.Valid() {
		return nil, fmt.Errorf("%w (got %d)", coinbasepro.ErrInvalidGranularity, cfg.Granularity)
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = cfg.Granularity.Duration() / 4

		if cfg.PollInterval < 10*time.Second {
			cfg.PollInterval = 10 * time.Second
		}
	}

	if cfg.History <= 0 {
		cfg.History = DefaultHistory
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Service{
		mu:     &sync.Mutex{},
		source: source,
		cfg:    cfg,
		logger: logger.With().Str(constants.ComponentKey, Name).Str("product", cfg.ProductID).Logger(),
		now:    time.Now,
		recent: evictingqueue.New[*coinbasepro.Candle](cfg.History),
	}, nil
}

//
// RegisterCandleCloseHandler registers a signal handler to be executed whenever a candle closes out.
// Handlers are executed in registration order, oldest candle first.
//
func (o *Service) RegisterCandleCloseHandler(handler func(*coinbasepro.Candle)) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.onCandleCloseHandlers = append(o.onCandleCloseHandlers, handler)
}

//
// Recent returns the most recently closed candles that the service knows about, oldest first.
//
func (o *Service) Recent() []*coinbasepro.Candle {
	return o.recent.Snapshot()
}

//
// Start implements the Service interface's described method.
//
func (o *Service) Start() (<-chan bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return nil, services.ErrAlreadyStarted
	}

	//
	// (Re)initialize our instance variables.
	//
	o.chKill = make(chan bool, 1)
	o.chStopped = make(chan bool, 1)
	o.running = true

	//
	// Fire off a goroutine as the executor for the service.
	//
	go o.service()

	chStarted := make(chan bool, 1)
	chStarted <- true

	o.logger.Info().
		Str("granularity", o.cfg.Granularity.String()).
		Dur("poll_interval", o.cfg.PollInterval).
		Msg("Started.")

	return chStarted, nil
}

//
// Stop implements the Service interface's described method.
//
func (o *Service) Stop() (<-chan bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running {
		return nil, services.ErrNotStarted
	}

	o.logger.Info().Msg("Stopping...")

	o.running = false
	o.chKill <- true

	return o.chStopped, nil
}

//
// service polls the exchange until it is told to stop.
//
func (o *Service) service() {
	ctx, cancel := context.WithCancel(context.Background())

	ticker := time.NewTicker(o.cfg.PollInterval)

	defer func() {
		ticker.Stop()
		cancel()

		o.chStopped <- true
	}()

	//
	// NOTE ~> Polls run in their own goroutine so that a kill signal can cancel one that is stuck
	//  waiting on the exchange.
	//
	poll := func() <-chan struct{} {
		done := make(chan struct{})

		go func() {
			defer close(done)

			if err := o.poll(ctx); err != nil {
				o.logger.Error().Err(err).Msg("Failed to poll for candles.")
			}
		}()

		return done
	}

	inFlight := poll()

	for {
		select {
		case <-o.chKill:
			cancel()
			<-inFlight

			return

		case <-ticker.C:
			select {
			case <-inFlight:
				inFlight = poll()
			default:
				o.logger.Warn().Msg("Previous poll is still in flight. Skipping this one.")
			}
		}
	}
}

//
// poll retrieves any candles that closed since the last poll. The very first poll only seeds the
// history of recent candles and does not fire off any handlers.
//
func (o *Service) poll(ctx context.Context) error {
	now := o.now()

	params := coinbasepro.CandleRequest{
		Granularity: o.cfg.Granularity,
	}

	seeding := o.lastOpen.IsZero()

	if !seeding {
		params.Start = o.lastOpen.Add(o.cfg.Granularity.Duration())
		params.End = now

		//
		// Nothing can have closed yet if the next candle has not even opened.
		//
		if params.Start.After(now) {
			return nil
		}
	}

	candles, err := o.source.GetCandles(ctx, o.cfg.ProductID, params)
	if err != nil {
		return err
	}

	//
	// Pick out the candles that have actually closed out and that we have not seen yet.
	//
	closed := make([]*coinbasepro.Candle, 0, len(candles))

	for _, c := range candles {
		if !c.EndTime().Before(now) || !c.StartTime().After(o.lastOpen) {
			continue
		}

		closed = append(closed, c)
	}

	if len(closed) == 0 {
		return nil
	}

	for _, c := range closed {
		o.recent.Add(c)
	}

	o.lastOpen = closed[len(closed)-1].StartTime()

	if seeding {
		o.logger.Debug().Int("candles", len(closed)).Msg("Seeded candle history.")

		return nil
	}

	o.processClosedCandles(closed)

	return nil
}

//
// processClosedCandles fires off any necessary signal handlers given the closed out candles
// provided.
//
func (o *Service) processClosedCandles(candles []*coinbasepro.Candle) {
	o.mu.Lock()
	handlers := make([]func(*coinbasepro.Candle), len(o.onCandleCloseHandlers))
	copy(handlers, o.onCandleCloseHandlers)
	o.mu.Unlock()

	for _, c := range candles {
		o.logger.Debug().Str("candle", c.String()).Msg("Candle closed.")

		for _, handler := range handlers {
			handler(c)
		}
	}
}
