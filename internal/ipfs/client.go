// Package ipfs resolves content identifiers to stored blocks by invoking the
// ipfs binary (`ipfs dag get`) through an injected Runner.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/mesh-intelligence/mentions/pkg/types"
)

// Runner executes an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the host with os/exec.
type ExecRunner struct{}

// Run executes name with args. Stderr is folded into the returned error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// DefaultBinary is the command name used when Client.Binary is empty.
const DefaultBinary = "ipfs"

// Client fetches blocks from an IPFS node. Address and Timeout are the
// defaults applied when a call passes none.
type Client struct {
	Runner  Runner
	Binary  string
	Address string
	Timeout time.Duration
}

// NewClient returns a Client using runner and the store defaults from cfg.
func NewClient(runner Runner, cfg types.Config) *Client {
	cfg = cfg.WithDefaults()
	return &Client{
		Runner:  runner,
		Binary:  DefaultBinary,
		Address: cfg.StoreAddress,
		Timeout: cfg.StoreTimeout,
	}
}

// Get runs `dag get` for cid. An empty address or zero timeout falls back to
// the client defaults. Each call is a single attempt.
func (c *Client) Get(ctx context.Context, cid, address string, timeout time.Duration) (types.StoredBlock, error) {
	if address == "" {
		address = c.Address
	}
	if address == "" {
		address = types.DefaultStoreAddress
	}
	if timeout <= 0 {
		timeout = c.Timeout
	}
	if timeout <= 0 {
		timeout = types.DefaultStoreTimeout
	}
	bin := c.Binary
	if bin == "" {
		bin = DefaultBinary
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := CommandArgs([]string{"dag", "get", cid}, address, timeout)
	out, err := c.Runner.Run(ctx, bin, args...)
	if err != nil {
		return types.StoredBlock{}, types.NewTransitionError(types.KindStoreUnavailable, types.ReasonStoreUnavailable, err)
	}

	return DecodeBlock(out)
}

// DecodeBlock parses raw `dag get` output into a StoredBlock.
func DecodeBlock(raw []byte) (types.StoredBlock, error) {
	var block types.StoredBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return types.StoredBlock{}, types.NewTransitionError(types.KindMalformedBlock, types.ReasonMalformedBlock, err)
	}
	if len(block.Content) == 0 {
		return types.StoredBlock{}, types.NewTransitionError(types.KindMalformedBlock, types.ReasonMalformedBlock, fmt.Errorf("block has no content"))
	}
	return block, nil
}

// CommandArgs appends the --timeout and --api flags to args.
func CommandArgs(args []string, address string, timeout time.Duration) []string {
	out := make([]string, 0, len(args)+4)
	out = append(out, args...)
	return append(out, "--timeout", TimeoutString(timeout), "--api", address)
}

// TimeoutString renders timeout in whole seconds, e.g. "10s". Sub-second
// values round up to one second.
func TimeoutString(timeout time.Duration) string {
	secs := int64(timeout / time.Second)
	if timeout%time.Second != 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("%ds", secs)
}
