package version

import (
	"context"

	"github.com/spf13/cobra"
	"github/chapool/waves-ledger/cmd/output"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/config"
	"github/chapool/waves-ledger/internal/util/command"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the version of the Waves app on the device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				v, err := s.Ledger.Version(ctx)
				if err != nil {
					return err
				}
				return output.JSON(cmd.OutOrStdout(), map[string]any{
					"version": v.String(),
					"number":  v.Number(),
				})
			})
		},
	}
}
