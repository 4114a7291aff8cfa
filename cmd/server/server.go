package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/api/router"
	"github/chapool/waves-ledger/internal/config"
	"github/chapool/waves-ledger/internal/util"
)

const (
	probeFlag       = "probe"
	shutdownTimeout = 10 * time.Second
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Starts the HTTP bridge",
		Long: `Starts an HTTP server exposing account derivation and signing of the connected
Ledger. The device is opened on the first request unless --probe is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			probe, err := cmd.Flags().GetBool(probeFlag)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), probe)
		},
	}

	cmd.Flags().Bool(probeFlag, false, "open the device and probe it before serving")

	return cmd
}

func runServer(ctx context.Context, cfg config.Server, probe bool) error {
	util.ConfigureLogger(cfg.Logger.Level, cfg.Logger.PrettyPrintConsole)

	s, err := api.InitNewServer(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize server")
		return err
	}

	if err := router.Init(s); err != nil {
		log.Error().Err(err).Msg("Failed to initialize router")
		return err
	}

	if probe && !s.Ledger.Probe(ctx) {
		log.Warn().Err(s.Ledger.LastError()).Msg("Ledger did not answer the startup probe, serving anyway")
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.Echo.ListenAddress).Msg("Starting server")
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
	case <-ctx.Done():
	case runErr = <-errs:
		if runErr != nil {
			log.Error().Err(runErr).Msg("Failed to start server")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if errs := s.Shutdown(shutdownCtx); len(errs) > 0 {
		log.Error().Errs("errors", errs).Msg("Failed to gracefully shut down server")
	}

	return runErr
}
