package sign

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/waves-ledger/cmd/output"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/config"
	"github/chapool/waves-ledger/internal/ledger/protocol"
	"github/chapool/waves-ledger/internal/ledger/session"
	"github/chapool/waves-ledger/internal/util/command"
)

const (
	amountPrecisionFlag  = "amount-precision"
	amount2PrecisionFlag = "amount2-precision"
	feePrecisionFlag     = "fee-precision"
	typeFlag             = "type"
	txVersionFlag        = "tx-version"
	textFlag             = "text"
)

type result struct {
	Kind      session.Kind `json:"kind"`
	Index     int64        `json:"index"`
	Path      string       `json:"path"`
	Signature string       `json:"signature"`
}

func New() *cobra.Command {
	kinds := make([]string, 0, len(session.Kinds))
	for _, k := range session.Kinds {
		kinds = append(kinds, string(k))
	}

	cmd := &cobra.Command{
		Use:   "sign <kind> <index> <data>",
		Short: "Signs a payload with the account at index",
		Long: fmt.Sprintf(`Signs data, given in hex, with the account at index. The device asks for confirmation.

Kinds: %s.
Precision, type and version flags only apply to transactions. With --%s the data of
a message is taken as plain text.`, strings.Join(kinds, ", "), textFlag),
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := session.ParseKind(args[0])
			if err != nil {
				return err
			}

			index, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid account index %q", args[1])
			}

			sd, err := signData(cmd, kind, args[2])
			if err != nil {
				return err
			}

			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				accountPath, err := s.Ledger.PathForAccount(index)
				if err != nil {
					return err
				}

				signature, err := s.Ledger.Sign(ctx, kind, index, sd)
				if err != nil {
					return err
				}

				return output.JSON(cmd.OutOrStdout(), &result{
					Kind:      kind,
					Index:     index,
					Path:      accountPath,
					Signature: signature,
				})
			})
		},
	}

	cmd.Flags().Int(amountPrecisionFlag, protocol.DefaultPrecision, "decimals of the amount")
	cmd.Flags().Int(amount2PrecisionFlag, protocol.DefaultPrecision, "decimals of the second amount")
	cmd.Flags().Int(feePrecisionFlag, protocol.DefaultPrecision, "decimals of the fee")
	cmd.Flags().Int(typeFlag, 0, "transaction type")
	cmd.Flags().Int(txVersionFlag, 0, "transaction version")
	cmd.Flags().Bool(textFlag, false, "take message data as plain text instead of hex")

	return cmd
}

func signData(cmd *cobra.Command, kind session.Kind, raw string) (protocol.SignData, error) {
	flags := cmd.Flags()

	text, err := flags.GetBool(textFlag)
	if err != nil {
		return protocol.SignData{}, err
	}

	var data []byte
	if text && kind == session.KindMessage {
		data = []byte(raw)
	} else {
		data, err = hex.DecodeString(strings.TrimPrefix(raw, "0x"))
		if err != nil {
			return protocol.SignData{}, errors.Wrap(err, "data must be hex encoded")
		}
	}

	txType, err := flags.GetInt(typeFlag)
	if err != nil {
		return protocol.SignData{}, err
	}
	txVersion, err := flags.GetInt(txVersionFlag)
	if err != nil {
		return protocol.SignData{}, err
	}

	sd := protocol.NewTransactionData(data, txType, txVersion)
	if sd.AmountPrecision, err = flags.GetInt(amountPrecisionFlag); err != nil {
		return protocol.SignData{}, err
	}
	if sd.Amount2Precision, err = flags.GetInt(amount2PrecisionFlag); err != nil {
		return protocol.SignData{}, err
	}
	if sd.FeePrecision, err = flags.GetInt(feePrecisionFlag); err != nil {
		return protocol.SignData{}, err
	}

	return sd, nil
}
