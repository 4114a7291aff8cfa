package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github/chapool/waves-ledger/internal/config"
	"github/chapool/waves-ledger/internal/ledger/session"
	"github/chapool/waves-ledger/internal/metrics"
)

type Router struct {
	Routes      []*echo.Route
	Root        *echo.Group
	Management  *echo.Group
	APIV1Ledger *echo.Group
}

// Server is a central struct keeping all the dependencies.
// It is initialized with wire, which handles making the new instances of the components
// in the right order. To add a new component, 3 steps are required:
// - declaring it in this struct
// - adding a provider function in providers.go
// - adding the provider's function name to the arguments of wire.Build() in wire.go
//
// Echo and Router are skipped by wire and initialized with router.Init(s).
type Server struct {
	Echo   *echo.Echo `wire:"-"`
	Router *Router    `wire:"-"`

	Config  config.Server
	Ledger  *session.Manager
	Metrics *metrics.Service
}

// newServerWithComponents is used by wire to initialize the server components.
func newServerWithComponents(
	cfg config.Server,
	ledger *session.Manager,
	metrics *metrics.Service,
) *Server {
	return &Server{
		Config:  cfg,
		Ledger:  ledger,
		Metrics: metrics,
	}
}

func NewServer(config config.Server) *Server {
	s := &Server{
		Config: config,
	}

	return s
}

// Ready reports whether every component has been initialized. It does not touch the
// device, see the readiness probe for that.
func (s *Server) Ready() bool {
	switch {
	case s.Echo == nil, s.Router == nil:
		log.Debug().Msg("Server is not fully initialized: router missing")
		return false
	case s.Ledger == nil:
		log.Debug().Msg("Server is not fully initialized: ledger session missing")
		return false
	case s.Metrics == nil:
		log.Debug().Msg("Server is not fully initialized: metrics missing")
		return false
	}

	return true
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	if err := s.Echo.Start(s.Config.Echo.ListenAddress); err != nil {
		return fmt.Errorf("failed to start echo server: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")

		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	if s.Ledger != nil {
		log.Debug().Msg("Closing ledger session")
		s.Ledger.Close()
	}

	return errs
}
