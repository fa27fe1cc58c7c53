package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/mentions/pkg/types"
)

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <cid>",
		Short: "Print a block stored in the local ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := a.attachLedger()
			if err != nil {
				return err
			}
			defer ledger.Detach()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			block, err := ledger.Get(ctx, args[0], "", 0)
			if errors.Is(err, types.ErrNotFound) {
				return userError("block %s not found", args[0])
			}
			if err != nil {
				return sysError("get block: %s", err)
			}
			return a.printBlock(cmd.OutOrStdout(), block)
		},
	}
}
