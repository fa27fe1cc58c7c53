package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize mentions storage",
		Long:  "Create configuration and data directories, then initialize the local ledger.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	cfg, err := a.ledgerConfig()
	if err != nil {
		return userError("%s", err)
	}

	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return sysError("create config directory: %s", err)
	}
	if err := writeConfigIfMissing(filepath.Join(a.configDir, configFileExt), cfg.DataDir); err != nil {
		return sysError("write config: %s", err)
	}

	ledger, err := a.attachLedger()
	if err != nil {
		return err
	}
	if err := ledger.Detach(); err != nil {
		return sysError("finalize ledger: %s", err)
	}

	if a.jsonMode {
		return printJSON(cmd.OutOrStdout(), map[string]string{
			"config_dir": a.configDir,
			"data_dir":   cfg.DataDir,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Mentions initialized successfully")
	return nil
}
