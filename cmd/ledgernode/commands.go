package main

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/celer-network/go-ledger/config"
	"github.com/celer-network/go-ledger/node"
	"github.com/celer-network/go-ledger/types"
)

const (
	flagStart = "start"
	flagCount = "count"
)

// openNode builds the node from the settings in v and replays its ledger.
func openNode(v *viper.Viper) (*node.Node, error) {
	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, err
	}
	n, err := node.NewNodeFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err = n.Bootstrap(); err != nil {
		n.Close()
		return nil, err
	}
	return n, nil
}

func printRecord(out io.Writer, offset uint64, ins *types.Instruction) {
	switch ins.Kind {
	case types.InstructionKindTransfer:
		fmt.Fprintf(out, "%d\t%s\tfrom=%s to=%s amount=%d fee=%d state=%s\n",
			offset, ins.Kind, ins.From, ins.Transfer.To, ins.Transfer.Amount, ins.Fee, ins.State)
	case types.InstructionKindBalanceQuery:
		fmt.Fprintf(out, "%d\t%s\tfrom=%s target=%s amount=%d\n",
			offset, ins.Kind, ins.From, ins.Balance.Target, ins.Balance.Amount)
	case types.InstructionKindRangeRequest:
		fmt.Fprintf(out, "%d\t%s\tfrom=%s start=%d count=%d\n",
			offset, ins.Kind, ins.From, ins.Range.Start, ins.Range.Count)
	}
}

func ReplayCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Replay the ledger and print the resulting account table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := openNode(v)
			if err != nil {
				return err
			}
			defer n.Close()

			out := cmd.OutOrStdout()
			accounts := n.Accounts()
			digest := n.Digest()
			fmt.Fprintf(out, "records:  %d\n", n.Ledger().Len())
			fmt.Fprintf(out, "accounts: %d\n", len(accounts))
			fmt.Fprintf(out, "capacity: %d\n", n.Capacity())
			fmt.Fprintf(out, "digest:   %s\n", hexutil.Encode(digest[:]))
			for _, account := range accounts {
				fmt.Fprintf(out, "%s\t%d\n", account.Owner, account.Balance)
			}
			return nil
		},
	}
}

func ApplyCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "apply FILE",
		Short: "Execute a yaml batch of instructions and persist the settled transfers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := loadBatch(args[0])
			if err != nil {
				return err
			}
			n, err := openNode(v)
			if err != nil {
				return err
			}
			defer n.Close()

			result, err := n.ProcessBatch(batch)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, ins := range batch {
				switch ins.Kind {
				case types.InstructionKindTransfer:
					fmt.Fprintf(out, "%d\t%s\t%s\n", i, ins.Kind, ins.State)
				case types.InstructionKindBalanceQuery:
					fmt.Fprintf(out, "%d\t%s\t%d\n", i, ins.Kind, ins.Balance.Amount)
				case types.InstructionKindRangeRequest:
					if err, ok := result.RangeErrors[i]; ok {
						fmt.Fprintf(out, "%d\t%s\terror: %v\n", i, ins.Kind, err)
					} else {
						fmt.Fprintf(out, "%d\t%s\t%d bytes\n", i, ins.Kind, len(result.Ranges[i]))
					}
				}
			}
			fmt.Fprintf(out, "created %d accounts, persisted %d records at offset %d\n",
				result.Created, result.Persisted, result.Offset)
			return nil
		},
	}
}

func BalanceCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "balance KEY",
		Short: "Print the balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := types.HexToPublicKey(args[0])
			if err != nil {
				return err
			}
			n, err := openNode(v)
			if err != nil {
				return err
			}
			defer n.Close()

			balance, err := n.Balance(key)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), balance)
			return nil
		},
	}
}

func DumpCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print a range of ledger records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}
			n, err := node.NewNodeFromConfig(cfg)
			if err != nil {
				return err
			}
			defer n.Close()

			start, err := cmd.Flags().GetUint64(flagStart)
			if err != nil {
				return err
			}
			count, err := cmd.Flags().GetUint64(flagCount)
			if err != nil {
				return err
			}
			l := n.Ledger()
			if !cmd.Flags().Changed(flagCount) && start <= l.Len() {
				count = l.Len() - start
			}
			batch, err := l.Load(start, count)
			if err != nil {
				return err
			}
			for i, ins := range batch {
				printRecord(cmd.OutOrStdout(), start+uint64(i), ins)
			}
			return nil
		},
	}
	cmd.Flags().Uint64(flagStart, 0, "first record offset")
	cmd.Flags().Uint64(flagCount, 0, "number of records, defaults to the rest of the ledger")
	return cmd
}
