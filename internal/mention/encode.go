package mention

import (
	"encoding/json"

	"github.com/mesh-intelligence/mentions/pkg/types"
)

// Encode serializes content into the mentions mutation, preceded by any
// bootstrap facts that still need filing.
func Encode(cfg types.Config, tx types.Transaction, snapshot []types.MetadataRecord, version string, content any) ([]types.MetadataMutation, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, types.NewTransitionError(types.KindSerialization, types.ReasonSerialization, err)
	}

	var out []types.MetadataMutation
	if cfg.Bootstrap {
		boot, err := BootstrapMutations(cfg.SystemContractID, tx, snapshot)
		if err != nil {
			return nil, err
		}
		out = append(out, boot...)
	}

	return append(out, types.MetadataMutation{
		PublicKey: tx.MetaContractID,
		Alias:     types.AliasMentions,
		Content:   string(raw),
		Loose:     0,
		Version:   version,
	}), nil
}

// BootstrapMutations returns the token and lineage_key facts for tx's
// subject, skipping whichever the snapshot already files under system.
func BootstrapMutations(system string, tx types.Transaction, snapshot []types.MetadataRecord) ([]types.MetadataMutation, error) {
	var out []types.MetadataMutation

	if !hasSystemFact(snapshot, system, types.AliasToken) {
		token, err := json.Marshal(types.TokenFact{
			Address: tx.TokenAddress,
			Chain:   tx.ChainID,
			ID:      tx.TokenID,
		})
		if err != nil {
			return nil, types.NewTransitionError(types.KindSerialization, types.ReasonSerialization, err)
		}
		out = append(out, types.MetadataMutation{
			PublicKey: system,
			Alias:     types.AliasToken,
			Content:   string(token),
		})
	}

	if !hasSystemFact(snapshot, system, types.AliasLineageKey) {
		out = append(out, types.MetadataMutation{
			PublicKey: system,
			Alias:     types.AliasLineageKey,
			Content:   tx.DataKey,
		})
	}

	return out, nil
}

func hasSystemFact(snapshot []types.MetadataRecord, system, alias string) bool {
	for _, rec := range snapshot {
		if rec.Alias == alias && rec.MetaContractID == system {
			return true
		}
	}
	return false
}
