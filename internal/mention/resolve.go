package mention

import (
	"context"

	"github.com/mesh-intelligence/mentions/pkg/types"
)

// Decision is the outcome of the ownership check.
type Decision int

const (
	// Authorize lets the proposal replace the prior mention.
	Authorize Decision = iota
	// KeepPrior re-emits the prior mention unchanged.
	KeepPrior
)

func (d Decision) String() string {
	if d == KeepPrior {
		return "keep-prior"
	}
	return "authorize"
}

// OwnerLookup resolves the identity an external authority holds for a
// subject. found is false when nothing matched.
type OwnerLookup interface {
	FirstOwner(ctx context.Context, filters map[string]string) (owner string, found bool, err error)
}

// Claim is what the resolver needs to know about one write.
type Claim struct {
	Requester  string
	DataKey    string
	HasPrior   bool
	PriorOwner string
}

// Resolver applies an ownership policy to claims.
type Resolver struct {
	Policy              types.Policy
	Authority           OwnerLookup
	AuthorityContractID string
}

// AuthorityFilters returns the equality filters sent to the authority for
// a subject.
func (r Resolver) AuthorityFilters(dataKey string) map[string]string {
	return map[string]string{
		"data_key":         dataKey,
		"meta_contract_id": r.AuthorityContractID,
	}
}

// Resolve decides whether c may overwrite the prior mention.
//
//	no prior                          -> Authorize
//	requester owns prior              -> Authorize
//	mismatch, RejectOnMismatch        -> NotOwner error
//	mismatch, EscalateToAuthority     -> Authorize if the authority's first
//	                                     match is the requester, else KeepPrior
func (r Resolver) Resolve(ctx context.Context, c Claim) (Decision, error) {
	if !c.HasPrior || c.Requester == c.PriorOwner {
		return Authorize, nil
	}

	if r.Policy != types.EscalateToAuthority {
		return 0, types.NewTransitionError(types.KindNotOwner, types.ReasonNotOwner, nil)
	}
	if r.Authority == nil {
		return 0, types.NewTransitionError(types.KindAuthorityUnavailable, types.ReasonAuthority, nil)
	}

	owner, found, err := r.Authority.FirstOwner(ctx, r.AuthorityFilters(c.DataKey))
	if err != nil {
		return 0, err
	}
	if found && owner == c.Requester {
		return Authorize, nil
	}
	return KeepPrior, nil
}
