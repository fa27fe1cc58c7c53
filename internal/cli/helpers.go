package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/mentions/internal/authority"
	"github.com/mesh-intelligence/mentions/internal/ipfs"
	"github.com/mesh-intelligence/mentions/internal/mention"
	"github.com/mesh-intelligence/mentions/internal/sqlite"
	"github.com/mesh-intelligence/mentions/pkg/types"
)

// Store selections for --store.
const (
	storeLocal = "local"
	storeIPFS  = "ipfs"
)

// attachLedger resolves the data directory, creates a SQLite ledger, and
// attaches it. The caller must defer ledger.Detach().
func (a *app) attachLedger() (*sqlite.Backend, error) {
	cfg, err := a.ledgerConfig()
	if err != nil {
		return nil, userError("%s", err)
	}

	ledger := sqlite.NewBackend()
	if err := ledger.Attach(cfg); err != nil {
		return nil, sysError("attach ledger: %s", err)
	}
	return ledger, nil
}

// newExecutor builds an executor from the loaded configuration. store
// picks where prior blocks are read from: the local ledger or an IPFS node.
func (a *app) newExecutor(cmd *cobra.Command, ledger *sqlite.Backend, store string) (*mention.Executor, error) {
	cfg, err := executorConfig(a.v)
	if err != nil {
		return nil, userError("%s", err)
	}

	var getter mention.BlockGetter
	switch store {
	case storeLocal:
		getter = ledger
	case storeIPFS:
		getter = ipfs.NewClient(ipfs.ExecRunner{}, cfg)
	default:
		return nil, userError("unknown store %q (want %s or %s)", store, storeLocal, storeIPFS)
	}

	var auth mention.OwnerLookup
	if cfg.Policy == types.EscalateToAuthority {
		auth = authority.NewClient(nil, cfg)
	}

	exec, err := mention.NewExecutor(cfg, getter, auth, mention.WithLogger(a.logger(cmd)))
	if err != nil {
		return nil, userError("%s", err)
	}
	return exec, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError("marshal output: %s", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// printResult writes a transition result as JSON in --json mode and as a
// short summary with a mutation table otherwise.
func (a *app) printResult(w io.Writer, res types.TransitionResult) error {
	if a.jsonMode {
		return printJSON(w, res)
	}
	if !res.Success {
		fmt.Fprintf(w, "rejected: %s\n", res.Error)
		return nil
	}
	fmt.Fprintf(w, "ok: %d mutations\n", len(res.Mutations))
	if len(res.Mutations) == 0 {
		return nil
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ALIAS\tCONTRACT\tVERSION\tCONTENT")
	fmt.Fprintln(tw, "-----\t--------\t-------\t-------")
	for _, m := range res.Mutations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Alias, m.PublicKey, m.Version, m.Content)
	}
	tw.Flush()
	fmt.Fprint(w, sb.String())
	return nil
}

// printBlock writes a stored block as JSON in --json mode and as labelled
// lines otherwise.
func (a *app) printBlock(w io.Writer, block types.StoredBlock) error {
	if a.jsonMode {
		return printJSON(w, block)
	}
	fmt.Fprintf(w, "timestamp: %d\n", block.Timestamp)
	fmt.Fprintf(w, "previous:  %s\n", block.Previous)
	fmt.Fprintf(w, "content:   %s\n", block.Content)
	return nil
}
