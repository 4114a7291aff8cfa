package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"github/chapool/waves-ledger/cmd/account"
	"github/chapool/waves-ledger/cmd/env"
	"github/chapool/waves-ledger/cmd/probe"
	"github/chapool/waves-ledger/cmd/server"
	"github/chapool/waves-ledger/cmd/sign"
	"github/chapool/waves-ledger/cmd/version"
	"github/chapool/waves-ledger/internal/config"
)

const envFileFlag = "env-file"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "waves-ledger",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

Talks to the Waves application of a Ledger device over USB HID or a Speculos
emulator socket: derives accounts, signs payloads and serves both over HTTP.
Requires configuration through ENV.`, config.ModuleName),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		files, err := cmd.Flags().GetStringSlice(envFileFlag)
		if err != nil {
			return err
		}

		// variables already present in the environment win
		for _, f := range files {
			if err := gotenv.Load(f); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to load %s: %w", f, err)
			}
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.PersistentFlags().StringSlice(envFileFlag, []string{".env"}, "dotenv files loaded before reading the config")

	// attach the subcommands
	rootCmd.AddCommand(
		account.New(),
		env.New(),
		probe.New(),
		server.New(),
		sign.New(),
		version.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}
