package account

import (
	"github.com/spf13/cobra"
	"github/chapool/waves-ledger/internal/util/command"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("account",
		newDerive(),
		newList(),
	)
}
