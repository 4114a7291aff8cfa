package session

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github/chapool/waves-ledger/internal/ledger/protocol"
	"github/chapool/waves-ledger/internal/metrics"
)

type options struct {
	debug           bool
	openTimeout     time.Duration
	listenTimeout   time.Duration
	exchangeTimeout time.Duration
	networkCode     int
	metrics         *metrics.Service
	logger          zerolog.Logger
}

func defaultOptions() options {
	return options{
		networkCode: protocol.DefaultNetworkCode,
		logger:      log.Logger,
	}
}

// Option configures a Manager.
type Option func(o *options)

// WithDebug enables trace logging of every APDU exchanged.
func WithDebug(debug bool) Option {
	return func(o *options) { o.debug = debug }
}

// WithOpenTimeout bounds opening the transport.
func WithOpenTimeout(timeout time.Duration) Option {
	return func(o *options) { o.openTimeout = timeout }
}

// WithListenTimeout bounds waiting for a device to appear.
func WithListenTimeout(timeout time.Duration) Option {
	return func(o *options) { o.listenTimeout = timeout }
}

// WithExchangeTimeout bounds every APDU exchange.
func WithExchangeTimeout(timeout time.Duration) Option {
	return func(o *options) { o.exchangeTimeout = timeout }
}

// WithNetworkCode sets the chain byte, 76 by default.
func WithNetworkCode(code int) Option {
	return func(o *options) { o.networkCode = code }
}

// WithMetrics reports connects and operations to m.
func WithMetrics(m *metrics.Service) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger replaces the global logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}
