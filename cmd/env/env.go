package env

import (
	"github.com/spf13/cobra"
	"github/chapool/waves-ledger/cmd/output"
	"github/chapool/waves-ledger/internal/config"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Prints the env config as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return output.JSON(cmd.OutOrStdout(), config.DefaultServiceConfigFromEnv())
		},
	}
}
