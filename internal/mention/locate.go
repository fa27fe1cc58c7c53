package mention

import "github.com/mesh-intelligence/mentions/pkg/types"

// CorrelationKey returns the version a mention written by tx is filed
// under, and therefore the key later transactions look it up by.
func CorrelationKey(mode types.Correlation, p types.MentionProposal, tx types.Transaction) string {
	if mode == types.CorrelateByContent {
		return p.CID
	}
	return tx.DataKey
}

// Locate scans snapshot for the record holding the prior mention state.
// When several records match, the last one in iteration order wins.
// Records carrying a different alias never match, and a winning record
// without a CID counts as no prior state. The snapshot is not modified.
func Locate(mode types.Correlation, p types.MentionProposal, tx types.Transaction, snapshot []types.MetadataRecord) (types.MetadataRecord, bool) {
	key := CorrelationKey(mode, p, tx)

	var found types.MetadataRecord
	ok := false
	for _, rec := range snapshot {
		if rec.Alias != "" && rec.Alias != types.AliasMentions {
			continue
		}
		if rec.Version != key {
			continue
		}
		if mode == types.CorrelateByContent && rec.DataKey != tx.DataKey {
			continue
		}
		found = rec
		ok = true
	}
	if !ok || found.CID == "" {
		return types.MetadataRecord{}, false
	}
	return found, true
}
