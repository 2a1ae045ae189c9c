package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/lukehollenback/cbpro/constants"
	"github.com/lukehollenback/cbpro/services"
	coinbasepro "github.com/preichenberger/go-coinbasepro/v2"
	"github.com/rs/zerolog"
)

const (
	Name = "≪feed-service≫"

	SubscriptionsType = "subscriptions"
	ErrorType         = "error"
)

type Config struct {
	URL        string
	ProductIDs []string
	Channels   []string

	//
	// DialTimeout bounds how long Start waits for the websocket handshake.
	//
	DialTimeout time.Duration

	Logger *zerolog.Logger
}

//
// Service maintains a subscription to the Coinbase Pro websocket feed and dispatches the messages it
// receives to registered handlers.
//
type Service struct {
	mu        *sync.Mutex
	chStopped chan bool
	stopping  bool

	cfg    Config
	logger zerolog.Logger

	state state
	conn  *ws.Conn

	handlers    map[string][]func(*coinbasepro.Message)
	anyHandlers []func(*coinbasepro.Message)
}

var _ services.Service = (*Service)(nil)

func New(cfg Config) (*Service, error) {
	if len(cfg.ProductIDs) == 0 {
		return nil, fmt.Errorf("at least one product ID is required")
	}

	if len(cfg.Channels) == 0 {
		cfg.Channels = []string{"heartbeat", "ticker"}
	}

	if cfg.URL == "" {
		cfg.URL = constants.FeedURL
	}

	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = constants.DefaultTimeout
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Service{
		mu:       &sync.Mutex{},
		cfg:      cfg,
		logger:   logger.With().Str(constants.ComponentKey, Name).Logger(),
		state:    disconnected,
		handlers: make(map[string][]func(*coinbasepro.Message)),
	}, nil
}

//
// RegisterHandler registers a signal handler to be executed whenever a message of the provided type
// (e.g. "ticker", "match", "heartbeat") is received. An empty type matches every message.
//
func (o *Service) RegisterHandler(msgType string, handler func(*coinbasepro.Message)) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if msgType == "" {
		o.anyHandlers = append(o.anyHandlers, handler)

		return
	}

	o.handlers[msgType] = append(o.handlers[msgType], handler)
}

//
// Subscribed returns whether or not the feed has acknowledged the service's subscriptions.
//
func (o *Service) Subscribed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state == subscribed
}

//
// Start implements the Service interface's described method. Unlike most services, it connects and
// subscribes synchronously so that connection failures are reported to the caller.
//
func (o *Service) Start() (<-chan bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != disconnected {
		return nil, services.ErrAlreadyStarted
	}

	//
	// Connect to the websocket feed.
	//
	o.state = connecting

	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.DialTimeout)
	defer cancel()

	conn, _, err := ws.DefaultDialer.DialContext(ctx, o.cfg.URL, nil)
	if err != nil {
		o.state = disconnected

		return nil, fmt.Errorf("could not connect to the websocket feed at %s: %w", o.cfg.URL, err)
	}

	o.conn = conn
	o.state = connected

	//
	// Subscribe to the configured channels for the configured products.
	//
	subscribe := coinbasepro.Message{
		Type:     "subscribe",
		Channels: make([]coinbasepro.MessageChannel, 0, len(o.cfg.Channels)),
	}

	for _, name := range o.cfg.Channels {
		subscribe.Channels = append(subscribe.Channels, coinbasepro.MessageChannel{
			Name:       name,
			ProductIds: o.cfg.ProductIDs,
		})
	}

	if err := o.conn.WriteJSON(subscribe); err != nil {
		_ = o.conn.Close()
		o.state = disconnected

		return nil, fmt.Errorf("could not subscribe to channels of the websocket feed: %w", err)
	}

	//
	// (Re)initialize our instance variables and fire off the reader.
	//
	o.chStopped = make(chan bool, 1)
	o.stopping = false

	go o.service(o.conn)

	chStarted := make(chan bool, 1)
	chStarted <- true

	o.logger.Info().Strs("products", o.cfg.ProductIDs).Strs("channels", o.cfg.Channels).Msg("Started.")

	return chStarted, nil
}

//
// Stop implements the Service interface's described method.
//
func (o *Service) Stop() (<-chan bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == disconnected || o.stopping {
		return nil, services.ErrNotStarted
	}

	o.logger.Info().Msg("Stopping...")

	o.stopping = true

	//
	// Say goodbye properly, then close the connection so that the reader unblocks.
	//
	_ = o.conn.WriteControl(
		ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)

	if err := o.conn.Close(); err != nil {
		o.logger.Warn().Err(err).Msg("Failed to close the websocket connection.")
	}

	return o.chStopped, nil
}

//
// service reads messages from the websocket feed until the connection goes away.
//
func (o *Service) service(conn *ws.Conn) {
	defer func() {
		o.mu.Lock()
		o.state = disconnected
		o.mu.Unlock()

		o.chStopped <- true
	}()

	for {
		msg := &coinbasepro.Message{}

		if err := conn.ReadJSON(msg); err != nil {
			o.mu.Lock()
			stopping := o.stopping
			o.mu.Unlock()

			if !stopping {
				o.logger.Error().Err(err).Msg("Could not read the next message from the websocket feed.")
			}

			return
		}

		o.handleMessage(msg)
	}
}

func (o *Service) handleMessage(msg *coinbasepro.Message) {
	o.mu.Lock()

	switch msg.Type {
	case SubscriptionsType:
		if o.state == connected {
			o.state = subscribed

			o.logger.Info().Msg("Successfully subscribed to websocket feed channels.")
		}

	case ErrorType:
		o.logger.Error().Str("message", msg.Message).Msg("The websocket feed reported an error.")
	}

	handlers := make([]func(*coinbasepro.Message), 0, len(o.anyHandlers)+len(o.handlers[msg.Type]))
	handlers = append(handlers, o.handlers[msg.Type]...)
	handlers = append(handlers, o.anyHandlers...)

	o.mu.Unlock()

	for _, handler := range handlers {
		handler(msg)
	}
}
