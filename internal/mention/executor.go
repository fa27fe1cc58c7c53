// Package mention implements the state transition of a mention record:
// decode the proposal, locate prior state, fetch it from the content store,
// check ownership, merge, and encode the mutations to commit.
//
// Only the author of a mention may overwrite it. Depending on Config.Policy
// a mismatch is rejected outright or escalated to an external authority.
package mention

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/mesh-intelligence/mentions/pkg/types"
)

// BlockGetter resolves a content identifier to its stored block. An empty
// address or zero timeout selects the getter's defaults.
type BlockGetter interface {
	Get(ctx context.Context, cid, address string, timeout time.Duration) (types.StoredBlock, error)
}

// Executor runs mention transitions. It holds no per-call state and is safe
// for concurrent use.
type Executor struct {
	cfg      types.Config
	store    BlockGetter
	resolver Resolver
	now      func() time.Time
	log      *log.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock replaces time.Now for timestamp assignment.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// WithLogger sets the logger for rejections and escalations.
func WithLogger(l *log.Logger) Option {
	return func(e *Executor) { e.log = l }
}

// NewExecutor validates cfg (after applying defaults) and returns an
// Executor reading prior state from store. auth may be nil unless the
// policy is EscalateToAuthority.
func NewExecutor(cfg types.Config, store BlockGetter, auth OwnerLookup, opts ...Option) (*Executor, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Executor{
		cfg:   cfg,
		store: store,
		resolver: Resolver{
			Policy:              cfg.Policy,
			Authority:           auth,
			AuthorityContractID: cfg.AuthorityContractID,
		},
		now: time.Now,
		log: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the effective configuration.
func (e *Executor) Config() types.Config {
	return e.cfg
}

// OnExecute applies tx against the prior metadata snapshot. The contract is
// accepted for interface compatibility and not interpreted. Failures never
// carry mutations.
func (e *Executor) OnExecute(ctx context.Context, contract types.MetaContract, snapshot []types.MetadataRecord, tx types.Transaction) types.TransitionResult {
	mutations, err := e.execute(ctx, snapshot, tx)
	if err != nil {
		e.log.Printf("execute %s data_key=%s: rejected: %v", tx.Hash, tx.DataKey, err)
		return types.Failure(err)
	}
	return types.Success(mutations)
}

// OnClone reports whether cloning is supported. It never is.
func (e *Executor) OnClone() bool {
	return false
}

// OnMint is reserved and always fails.
func (e *Executor) OnMint(ctx context.Context, contract types.MetaContract, dataKey, tokenID, data string) types.TransitionResult {
	return types.Failure(types.NewTransitionError(types.KindUnsupported, types.ReasonMintUnavailable, nil))
}

// priorState is the located record and whatever mention content it held.
type priorState struct {
	record   types.MetadataRecord
	found    bool
	single   *types.FinalMention
	mentions types.MentionMap
}

func (e *Executor) execute(ctx context.Context, snapshot []types.MetadataRecord, tx types.Transaction) ([]types.MetadataMutation, error) {
	proposal, err := Decode(tx.Data, e.cfg.RequireOwner)
	if err != nil {
		return nil, err
	}

	prior, err := e.loadPrior(ctx, proposal, tx, snapshot)
	if err != nil {
		return nil, err
	}

	decision, err := e.resolver.Resolve(ctx, e.claim(prior, proposal, tx))
	if err != nil {
		return nil, err
	}
	if decision == KeepPrior {
		e.log.Printf("execute %s data_key=%s: authority did not confirm %s, keeping prior mention", tx.Hash, tx.DataKey, tx.PublicKey)
	}

	now := e.now()
	var content any
	if e.cfg.Correlation == types.CorrelateByContent {
		content = MergeSingle(prior.single, proposal, decision, now)
	} else {
		content = MergeMap(prior.mentions, proposal, decision, now)
	}

	return Encode(e.cfg, tx, snapshot, CorrelationKey(e.cfg.Correlation, proposal, tx), content)
}

func (e *Executor) loadPrior(ctx context.Context, p types.MentionProposal, tx types.Transaction, snapshot []types.MetadataRecord) (priorState, error) {
	rec, ok := Locate(e.cfg.Correlation, p, tx, snapshot)
	if !ok {
		return priorState{}, nil
	}

	if e.store == nil {
		return priorState{}, types.NewTransitionError(types.KindStoreUnavailable, types.ReasonStoreUnavailable, nil)
	}
	block, err := e.store.Get(ctx, rec.CID, e.cfg.StoreAddress, e.cfg.StoreTimeout)
	if err != nil {
		return priorState{}, err
	}

	state := priorState{record: rec, found: true}
	if e.cfg.Correlation == types.CorrelateByContent {
		fm, err := types.DecodeFinalMention(block.Content)
		if err != nil {
			return priorState{}, types.NewTransitionError(types.KindMalformedBlock, types.ReasonMalformedBlock, err)
		}
		state.single = &fm
		return state, nil
	}

	m, err := types.DecodeMentionMap(block.Content)
	if err != nil {
		return priorState{}, types.NewTransitionError(types.KindMalformedBlock, types.ReasonMalformedBlock, err)
	}
	state.mentions = m
	return state, nil
}

// claim builds the ownership claim. In content mode the record's author
// owns the mention; in subject mode the owner stored in the map entry does,
// falling back to the record's author when the entry names no owner.
func (e *Executor) claim(prior priorState, p types.MentionProposal, tx types.Transaction) Claim {
	c := Claim{Requester: tx.PublicKey, DataKey: tx.DataKey}
	if !prior.found {
		return c
	}
	if e.cfg.Correlation == types.CorrelateByContent {
		c.HasPrior = true
		c.PriorOwner = prior.record.PublicKey
		return c
	}
	if fm, ok := prior.mentions.Lookup(p.CID); ok {
		c.HasPrior = true
		c.PriorOwner = fm.Owner
		if c.PriorOwner == "" {
			c.PriorOwner = prior.record.PublicKey
		}
	}
	return c
}
