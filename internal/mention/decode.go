package mention

import (
	"encoding/json"

	"github.com/mesh-intelligence/mentions/pkg/types"
)

// Decode parses a transaction payload into a MentionProposal. The content
// identifier is checked before anything else; owner is checked only when
// requireOwner is set.
func Decode(data string, requireOwner bool) (types.MentionProposal, error) {
	var p *types.MentionProposal
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return types.MentionProposal{}, types.NewTransitionError(types.KindSchema, types.ReasonSchema, err)
	}
	if p == nil {
		return types.MentionProposal{}, types.NewTransitionError(types.KindSchema, types.ReasonSchema, nil)
	}
	if p.CID == "" {
		return types.MentionProposal{}, types.NewTransitionError(types.KindValidation, types.ReasonEmptyCID, nil)
	}
	if requireOwner && p.Owner == "" {
		return types.MentionProposal{}, types.NewTransitionError(types.KindValidation, types.ReasonEmptyOwner, nil)
	}
	return *p, nil
}
