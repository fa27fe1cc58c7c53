package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/mentions/pkg/types"
)

// execFlags holds the transaction fields accepted on the command line.
type execFlags struct {
	tx    types.Transaction
	store string
}

func newExecCmd(a *app) *cobra.Command {
	f := &execFlags{}
	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Apply one mention transaction and commit the result",
		Long: "Load the snapshot for --data-key from the local ledger, run the transition,\n" +
			"commit its mutations on success and print the result (as JSON with --json).\n" +
			"A rejected transition exits with status 1.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExec(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.tx.DataKey, "data-key", "", "subject the mention is filed under (required)")
	cmd.Flags().StringVar(&f.tx.MetaContractID, "contract", "", "meta contract id (required)")
	cmd.Flags().StringVar(&f.tx.PublicKey, "public-key", "", "requester identity (required)")
	cmd.Flags().StringVar(&f.tx.Data, "data", "", `proposal JSON, e.g. {"cid":"...","owner":"..."} (required)`)
	cmd.Flags().StringVar(&f.tx.Hash, "hash", "", "transaction hash (default: generated)")
	cmd.Flags().StringVar(&f.tx.TokenKey, "token-key", "", "token key")
	cmd.Flags().StringVar(&f.tx.TokenID, "token-id", "", "token id")
	cmd.Flags().StringVar(&f.tx.TokenAddress, "token-address", "", "token contract address")
	cmd.Flags().StringVar(&f.tx.ChainID, "chain-id", "", "chain id")
	cmd.Flags().StringVar(&f.store, "store", storeLocal, "where prior blocks are read from: local or ipfs")
	for _, name := range []string{"data-key", "contract", "public-key", "data"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *app) runExec(cmd *cobra.Command, f *execFlags) error {
	ledger, err := a.attachLedger()
	if err != nil {
		return err
	}
	defer ledger.Detach()

	exec, err := a.newExecutor(cmd, ledger, f.store)
	if err != nil {
		return err
	}

	tx := f.tx
	if tx.Hash == "" {
		tx.Hash = uuid.NewString()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	snapshot, err := ledger.Snapshot(ctx, tx.DataKey)
	if err != nil {
		return sysError("load snapshot: %s", err)
	}

	res := exec.OnExecute(ctx, types.MetaContract{MetaContractID: tx.MetaContractID}, snapshot, tx)
	if res.Success {
		records, err := ledger.Commit(ctx, tx, res.Mutations)
		if err != nil {
			return sysError("commit: %s", err)
		}
		a.logger(cmd).Printf("exec %s data_key=%s: committed %d records", tx.Hash, tx.DataKey, len(records))
	}

	if err := a.printResult(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if !res.Success {
		return errRejected
	}
	return nil
}

func newMintCmd(a *app) *cobra.Command {
	var dataKey, tokenID, data, contract string
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Call the mint entry point (not supported)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, err := a.newExecutor(cmd, nil, storeIPFS)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			res := exec.OnMint(ctx, types.MetaContract{MetaContractID: contract}, dataKey, tokenID, data)
			if err := a.printResult(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return errRejected
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataKey, "data-key", "", "subject to mint")
	cmd.Flags().StringVar(&tokenID, "token-id", "", "token id")
	cmd.Flags().StringVar(&data, "data", "", "mint payload")
	cmd.Flags().StringVar(&contract, "contract", "", "meta contract id")
	return cmd
}

func newCloneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clone",
		Short: "Report whether the contract can be cloned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, err := a.newExecutor(cmd, nil, storeIPFS)
			if err != nil {
				return err
			}
			ok := exec.OnClone()
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]bool{"clone": ok})
			}
			fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatBool(ok))
			return nil
		},
	}
}
