// Package mentions is the public entry point for embedding the mention
// contract: build an Executor with a content store and, optionally, an
// ownership authority, then feed it transactions.
package mentions

import (
	"github.com/mesh-intelligence/mentions/internal/authority"
	"github.com/mesh-intelligence/mentions/internal/ipfs"
	"github.com/mesh-intelligence/mentions/internal/mention"
	"github.com/mesh-intelligence/mentions/pkg/types"
)

// Version is the release of this module.
const Version = "0.1.0"

// Executor runs mention transitions.
type Executor = mention.Executor

// Option configures an Executor.
type Option = mention.Option

// BlockGetter resolves content identifiers to stored blocks.
type BlockGetter = mention.BlockGetter

// OwnerLookup resolves who an external authority says owns a subject.
type OwnerLookup = mention.OwnerLookup

// Executor options.
var (
	WithClock  = mention.WithClock
	WithLogger = mention.WithLogger
)

// NewExecutor returns an Executor reading prior state from store. auth may
// be nil unless cfg.Policy is EscalateToAuthority.
func NewExecutor(cfg types.Config, store BlockGetter, auth OwnerLookup, opts ...Option) (*Executor, error) {
	return mention.NewExecutor(cfg, store, auth, opts...)
}

// NewIPFSExecutor wires the executor to an IPFS node through the local ipfs
// binary and, when the policy escalates, to the JSON-RPC authority named in
// cfg.
func NewIPFSExecutor(cfg types.Config, opts ...Option) (*Executor, error) {
	cfg = cfg.WithDefaults()
	store := ipfs.NewClient(ipfs.ExecRunner{}, cfg)
	var auth OwnerLookup
	if cfg.Policy == types.EscalateToAuthority {
		auth = authority.NewClient(nil, cfg)
	}
	return mention.NewExecutor(cfg, store, auth, opts...)
}
