package command

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/config"
	"github/chapool/waves-ledger/internal/ledger/transport"
	"github/chapool/waves-ledger/internal/util"
)

const shutdownTimeout = 10 * time.Second

// NewSubcommandGroup returns a command that only groups subCommands and prints its help.
func NewSubcommandGroup(name string, subCommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("%s related subcommands", name),
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				log.Error().Err(err).Msg("Failed to print help")
			}
		},
	}

	cmd.AddCommand(subCommands...)

	return cmd
}

// WithServer initializes a server from config, runs f and shuts the server down again.
func WithServer(ctx context.Context, cfg config.Server, f func(ctx context.Context, s *api.Server) error) error {
	util.ConfigureLogger(cfg.Logger.Level, cfg.Logger.PrettyPrintConsole)

	s, err := api.InitNewServer(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to initialize server")
	}

	return run(ctx, s, f)
}

// WithServerFactory is WithServer opening devices through factory instead of the
// configured transport.
func WithServerFactory(ctx context.Context, cfg config.Server, factory transport.Factory, f func(ctx context.Context, s *api.Server) error) error {
	util.ConfigureLogger(cfg.Logger.Level, cfg.Logger.PrettyPrintConsole)

	s, err := api.InitNewServerWithFactory(cfg, factory)
	if err != nil {
		return errors.Wrap(err, "failed to initialize server")
	}

	return run(ctx, s, f)
}

func run(ctx context.Context, s *api.Server, f func(ctx context.Context, s *api.Server) error) error {
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if errs := s.Shutdown(shutdownCtx); len(errs) > 0 {
			log.Error().Errs("errors", errs).Msg("Failed to gracefully shut down server")
		}
	}()

	return f(ctx, s)
}
