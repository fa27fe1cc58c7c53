package mention

import (
	"time"

	"github.com/mesh-intelligence/mentions/pkg/types"
)

// MergeSingle returns the mention to persist when one record holds one
// mention. KeepPrior requires prior to be non-nil.
func MergeSingle(prior *types.FinalMention, p types.MentionProposal, d Decision, now time.Time) types.FinalMention {
	if d == KeepPrior && prior != nil {
		return *prior
	}
	return types.NewFinalMention(p, now)
}

// MergeMap returns the per-subject map to persist. Only the entry for the
// proposal's content identifier changes; prior is never modified.
func MergeMap(prior types.MentionMap, p types.MentionProposal, d Decision, now time.Time) types.MentionMap {
	out := prior.Clone()
	if d == KeepPrior {
		return out
	}
	out[p.CID] = types.NewFinalMention(p, now)
	return out
}
