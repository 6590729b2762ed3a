package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/celer-network/go-ledger/config"
	"github.com/celer-network/go-ledger/log"
)

const (
	flagConfig  = "config"
	flagBackend = "backend"
	flagPath    = "path"
	flagGenesis = "genesis"
)

var logger = log.NewLogger("ledgernode")

func newRootCommand() *cobra.Command {
	v := config.NewViper()
	rootCmd := &cobra.Command{
		Use:          "ledgernode",
		Short:        "ledger node: replay, apply and inspect an append-only ledger",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			for key, name := range map[string]string{
				config.KeyLedgerBackend: flagBackend,
				config.KeyLedgerPath:    flagPath,
				config.KeyGenesis:       flagGenesis,
			} {
				if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
					return err
				}
			}
			if configFile, _ := flags.GetString(flagConfig); configFile != "" {
				v.SetConfigFile(configFile)
				return v.ReadInConfig()
			}
			return nil
		},
	}

	rootCmd.AddCommand(
		ReplayCommand(v),
		ApplyCommand(v),
		BalanceCommand(v),
		DumpCommand(v),
	)

	flags := rootCmd.PersistentFlags()
	flags.String(flagConfig, "", "config file (yaml or toml)")
	flags.String(flagBackend, config.BackendFile, "ledger backend: file, badger, leveldb or memory")
	flags.String(flagPath, "./ledger.dat", "ledger file or database directory")
	flags.String(flagGenesis, "", "genesis accounts file (yaml)")
	return rootCmd
}

func main() {
	cobra.EnableCommandSorting = false
	if err := newRootCommand().Execute(); err != nil {
		logger.Error().Err(err).Send()
		os.Exit(1)
	}
}
