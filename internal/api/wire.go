//go:build wireinject

package api

import (
	"github.com/google/wire"
	"github/chapool/waves-ledger/internal/config"
	"github/chapool/waves-ledger/internal/ledger/transport"
	"github/chapool/waves-ledger/internal/metrics"
)

// INJECTORS - https://github.com/google/wire/blob/main/docs/guide.md#injectors

// serviceSet groups the default set of providers that are required for initing a server
var serviceSet = wire.NewSet(
	newServerWithComponents,
	NewLedger,
	metrics.New,
)

// InitNewServer returns a new Server instance talking to the transport named by the config.
func InitNewServer(
	_ config.Server,
) (*Server, error) {
	wire.Build(serviceSet, NewTransportFactory)
	return new(Server), nil
}

// InitNewServerWithFactory returns a new Server instance opening devices through the given factory.
// All the other components are initialized via go wire according to the configuration.
func InitNewServerWithFactory(
	_ config.Server,
	_ transport.Factory,
) (*Server, error) {
	wire.Build(serviceSet)
	return new(Server), nil
}
