package account

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/waves-ledger/cmd/output"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/config"
	"github/chapool/waves-ledger/internal/ledger/session"
	"github/chapool/waves-ledger/internal/util/command"
)

const verifyFlag = "verify"

func newDerive() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive <index>",
		Short: "Prints the public key and address of one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid account index %q", args[0])
			}

			verify, err := cmd.Flags().GetBool(verifyFlag)
			if err != nil {
				return err
			}

			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				record, err := derive(ctx, s.Ledger, index, verify)
				if err != nil {
					return err
				}
				return output.JSON(cmd.OutOrStdout(), record)
			})
		},
	}

	cmd.Flags().Bool(verifyFlag, false, "show the address on the device screen and wait for confirmation")

	return cmd
}

func derive(ctx context.Context, m *session.Manager, index int64, verify bool) (*session.UserRecord, error) {
	if !verify {
		return m.DeriveAccount(ctx, index)
	}

	accountPath, err := m.PathForAccount(index)
	if err != nil {
		return nil, err
	}

	e, err := m.Engine(ctx)
	if err != nil {
		return nil, err
	}

	info, err := e.DeriveKey(ctx, accountPath, true)
	if err != nil {
		return nil, err
	}

	return &session.UserRecord{
		Index:      index,
		Path:       accountPath,
		PublicKey:  info.PublicKey,
		Address:    info.Address,
		StatusCode: info.StatusCode,
	}, nil
}
