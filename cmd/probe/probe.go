package probe

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/config"
	"github/chapool/waves-ledger/internal/util/command"
)

const (
	verboseFlag string = "verbose"
)

var errProbeFailed = errors.New("ledger did not answer")

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Checks the Waves app answers a key derivation",
		Long: `Opens the device and derives account 1 without confirmation.
Exits with a non-zero code if the device is missing, locked or the Waves app is closed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				return err
			}

			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				if s.Ledger.Probe(ctx) {
					fmt.Fprintln(cmd.OutOrStdout(), "Ready.")
					return nil
				}

				if verbose {
					log.Error().Err(s.Ledger.LastError()).Msg("Probe failed")
				}
				return errProbeFailed
			})
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "log why the probe failed")

	return cmd
}
