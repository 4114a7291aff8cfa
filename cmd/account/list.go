package account

import (
	"context"

	"github.com/spf13/cobra"
	"github/chapool/waves-ledger/cmd/output"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/config"
	"github/chapool/waves-ledger/internal/util/command"
)

const (
	fromFlag  = "from"
	countFlag = "count"
)

func newList() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Prints the accounts in [from, from+count)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := cmd.Flags().GetInt64(fromFlag)
			if err != nil {
				return err
			}
			count, err := cmd.Flags().GetInt64(countFlag)
			if err != nil {
				return err
			}

			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				records, err := s.Ledger.PaginateAccounts(ctx, from, count)
				if err != nil {
					return err
				}
				return output.JSON(cmd.OutOrStdout(), records)
			})
		},
	}

	cmd.Flags().Int64(fromFlag, 0, "first account index")
	cmd.Flags().Int64(countFlag, 5, "number of accounts")

	return cmd
}
