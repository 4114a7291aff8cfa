package api

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/waves-ledger/internal/config"
	"github/chapool/waves-ledger/internal/ledger/session"
	"github/chapool/waves-ledger/internal/ledger/transport"
	"github/chapool/waves-ledger/internal/ledger/transport/hid"
	"github/chapool/waves-ledger/internal/ledger/transport/speculos"
	"github/chapool/waves-ledger/internal/metrics"
)

// PROVIDERS - https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

// NewTransportFactory picks the device transport named by the config.
//
//nolint:ireturn
func NewTransportFactory(cfg config.Server) (transport.Factory, error) {
	switch cfg.Transport.Kind {
	case config.TransportHID, "":
		return hid.Factory(), nil
	case config.TransportSpeculos:
		return speculos.Factory(cfg.Transport.SpeculosAddress), nil
	default:
		return nil, errors.Errorf("unknown ledger transport %q", cfg.Transport.Kind)
	}
}

// NewLedger creates the session manager. The device is opened on first use.
func NewLedger(cfg config.Server, factory transport.Factory, m *metrics.Service) (*session.Manager, error) {
	return session.New(factory,
		session.WithDebug(cfg.Ledger.Debug),
		session.WithOpenTimeout(cfg.Ledger.OpenTimeout),
		session.WithListenTimeout(cfg.Ledger.ListenTimeout),
		session.WithExchangeTimeout(cfg.Ledger.ExchangeTimeout),
		session.WithNetworkCode(cfg.Ledger.NetworkCode),
		session.WithMetrics(m),
		session.WithLogger(log.Logger),
	)
}
